package cmd

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagSince string
	flagKnown []string
)

func init() {
	updatesCmd := &cobra.Command{
		Use:   "updates",
		Short: "Report which known series were updated since a point in time",
		RunE:  runUpdates,
	}
	updatesCmd.Flags().StringVar(&flagSince, "since", "24h", "RFC 3339 time or a duration back from now")
	updatesCmd.Flags().StringSliceVar(&flagKnown, "known", nil, "series ids to check (comma separated or repeated)")

	bypassCmd := &cobra.Command{
		Use:   "bypass",
		Short: "Print the request to open in a browser to solve the anti-bot challenge",
		RunE:  runBypass,
	}

	rootCmd.AddCommand(updatesCmd, bypassCmd)
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid --since %q: want RFC 3339 or a positive duration", raw)
}

func runUpdates(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(flagSince, time.Now())
	if err != nil {
		return err
	}

	known := make([]providers.SeriesID, 0, len(flagKnown))
	for _, id := range flagKnown {
		if id = strings.TrimSpace(id); id != "" {
			known = append(known, providers.SeriesID(id))
		}
	}

	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	stats := ui.NewStats()
	pm := ui.NewProgressManager(nil)
	handle := pm.Register("updates since "+since.Format(time.DateTime), "new")

	var found []providers.SeriesID
	var scanErr error
	for b, err := range s.src.ScanUpdates(s.ctx, since, known) {
		if err != nil {
			scanErr = err
			break
		}
		found = append(found, b.IDs...)
		handle.Page(len(b.IDs))
		stats.Batches.Add(1)
		stats.Pages.Add(1)
		stats.Items.Add(int64(len(b.IDs)))
	}
	handle.MarkDone()
	pm.Close()

	if scanErr != nil {
		if len(found) > 0 {
			s.log.Warnf("scan stopped early, reporting the %d updates found so far\n", len(found))
		} else {
			return s.fail(scanErr)
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })

	if s.printer.JSON {
		if err := s.printer.PrintJSON(providers.UpdateBatch{IDs: found}); err != nil {
			return err
		}
	} else {
		for _, id := range found {
			fmt.Fprintln(s.printer.Out, id)
		}
	}
	s.log.Infof("%s\n", stats.Summary())

	if scanErr != nil {
		return s.fail(scanErr)
	}
	return nil
}

func runBypass(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	req, err := s.src.BypassRequest()
	if err != nil {
		return err
	}

	if s.printer.JSON {
		return s.printer.PrintJSON(struct {
			Method  string      `json:"method"`
			URL     string      `json:"url"`
			Headers http.Header `json:"headers"`
		}{req.Method, req.URL.String(), req.Header})
	}

	p := s.printer
	p.PrintHeader("Bypass request")
	p.PrintDetail("Method", req.Method)
	p.PrintDetail("URL", req.URL.String())

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.PrintDetail(k, req.Header.Get(k))
	}

	fmt.Fprintln(p.Out)
	fmt.Fprintln(p.Out, "Open the URL with these headers, then pass the resulting cookies with --cookie or cookie_file.")

	return nil
}
