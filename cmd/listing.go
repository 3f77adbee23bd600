package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brogergvhs/flamed/internal/paging"
	"github.com/brogergvhs/flamed/internal/providers"
	"github.com/brogergvhs/flamed/internal/ui"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	flagPage int
	flagAll  bool
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search series by title",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}

	homeCmd := &cobra.Command{
		Use:   "home",
		Short: "Show the home page sections",
		RunE:  runHome,
	}

	moreCmd := &cobra.Command{
		Use:   "more [section-id]",
		Short: "Page through a home section (2 = latest updates, 3 = popular)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMore,
	}

	for _, c := range []*cobra.Command{searchCmd, moreCmd} {
		c.Flags().IntVar(&flagPage, "page", 1, "page to fetch")
		c.Flags().BoolVar(&flagAll, "all", false, "keep fetching until the listing ends")
	}

	rootCmd.AddCommand(searchCmd, homeCmd, moreCmd)
}

type pageFunc func(ctx context.Context, token int) (providers.PagedTiles, error)

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	return s.listTiles("search "+strconv.Quote(query), func(ctx context.Context, token int) (providers.PagedTiles, error) {
		return s.src.Search(ctx, query, token)
	})
}

func runMore(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	var sectionID string
	if len(args) == 1 {
		sectionID = args[0]
	} else {
		sectionID, err = s.pickSection()
		if err != nil {
			return s.fail(err)
		}
	}

	return s.listTiles("section "+sectionID, func(ctx context.Context, token int) (providers.PagedTiles, error) {
		return s.src.ViewMore(ctx, sectionID, token)
	})
}

// pickSection reads the home page and asks which expandable section to open.
func (s *session) pickSection() (string, error) {
	var sections []providers.HomeSection
	for sec, err := range s.src.HomeSections(s.ctx) {
		if err != nil {
			return "", err
		}
		if sec.ViewMore {
			sections = append(sections, sec)
		}
	}
	if len(sections) == 0 {
		return "", fmt.Errorf("no expandable sections on the home page")
	}

	items := make([]string, 0, len(sections))
	for _, sec := range sections {
		items = append(items, fmt.Sprintf("%s (%d tiles)", sec.Title, len(sec.Tiles)))
	}

	prompt := promptui.Select{
		Label: "Select section",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled")
	}

	return sections[idx].ID, nil
}

func (s *session) listTiles(name string, fetchPage pageFunc) error {
	if !flagAll {
		p, err := fetchPage(s.ctx, flagPage)
		if err != nil {
			return s.fail(err)
		}
		if s.printer.JSON {
			return s.printer.PrintJSON(p)
		}
		if err := s.printTiles(p.Tiles); err != nil {
			return err
		}
		if p.Next == paging.Terminal {
			s.log.Infof("%d results, last page\n", len(p.Tiles))
		} else {
			s.log.Infof("%d results, next page: %d\n", len(p.Tiles), p.Next)
		}
		return nil
	}

	stats := ui.NewStats()
	pm := ui.NewProgressManager(nil)
	handle := pm.Register(name, "tiles")

	var tiles []providers.Tile
	var walkErr error
	for page, err := range paging.Walk(s.ctx, flagPage, func(ctx context.Context, n int) ([]providers.Tile, error) {
		p, err := fetchPage(ctx, n)
		return p.Tiles, err
	}) {
		if err != nil {
			walkErr = err
			break
		}
		tiles = append(tiles, page.Items...)
		handle.Page(len(page.Items))
		stats.Pages.Add(1)
		stats.Items.Add(int64(len(page.Items)))
	}
	handle.MarkDone()
	pm.Close()

	if walkErr != nil {
		if len(tiles) > 0 {
			s.log.Warnf("stopped early after %s\n", stats.Summary())
		}
		return s.fail(walkErr)
	}

	if s.printer.JSON {
		if err := s.printer.PrintJSON(tiles); err != nil {
			return err
		}
	} else if err := s.printTiles(tiles); err != nil {
		return err
	}
	s.log.Infof("%s\n", stats.Summary())

	return nil
}

func (s *session) printTiles(tiles []providers.Tile) error {
	rows := make([][]string, 0, len(tiles))
	for _, t := range tiles {
		rows = append(rows, []string{string(t.ID), t.Title, t.Subtitle})
	}

	return s.printer.PrintTable([]string{"ID", "TITLE", "LATEST"}, rows)
}

func runHome(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	var sections []providers.HomeSection
	for sec, err := range s.src.HomeSections(s.ctx) {
		if err != nil {
			return s.fail(err)
		}
		sections = append(sections, sec)
	}

	if s.printer.JSON {
		return s.printer.PrintJSON(sections)
	}

	for _, sec := range sections {
		title := sec.Title
		if sec.ViewMore {
			title += fmt.Sprintf("  (flamed more %s)", sec.ID)
		}
		s.printer.PrintHeader(title)
		if err := s.printTiles(sec.Tiles); err != nil {
			return err
		}
		fmt.Fprintln(s.printer.Out)
	}
	s.log.Debugf("traversal path: %q\n", s.src.Traversal())

	return nil
}
