package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/brogergvhs/flamed/internal/providers"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagChapter string
	flagRange   string
	flagList    string
	flagSortAsc bool
)

func init() {
	detailsCmd := &cobra.Command{
		Use:   "details <series-id>",
		Short: "Show title, status, tags and rating of a series",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetails,
	}

	chaptersCmd := &cobra.Command{
		Use:   "chapters <series-id>",
		Short: "List the chapters of a series, newest first unless --asc is given",
		Args:  cobra.ExactArgs(1),
		RunE:  runChapters,
	}
	chaptersCmd.Flags().StringVar(&flagChapter, "chapter", "", "single chapter by number or index (e.g. 5 or 28.5)")
	chaptersCmd.Flags().StringVar(&flagRange, "range", "", "range of chapters by index (e.g. 5-12)")
	chaptersCmd.Flags().StringVar(&flagList, "list", "", "specific chapter indices (e.g. 1,3,5)")
	chaptersCmd.Flags().BoolVar(&flagSortAsc, "asc", false, "sort by ascending chapter number")

	pagesCmd := &cobra.Command{
		Use:   "pages <series-id> <chapter-url>",
		Short: "List the page image URLs of one chapter in reading order",
		Args:  cobra.ExactArgs(2),
		RunE:  runPages,
	}

	rootCmd.AddCommand(detailsCmd, chaptersCmd, pagesCmd)
}

func runDetails(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.src.GetDetails(s.ctx, providers.SeriesID(args[0]))
	if err != nil {
		return s.fail(err)
	}

	p := s.printer
	if p.JSON {
		return p.PrintJSON(d)
	}

	p.PrintHeader(d.Title)
	p.PrintDetail("ID", string(d.ID))
	p.PrintDetail("Status", d.Status.String())
	if d.Rating > 0 {
		p.PrintDetail("Rating", strconv.FormatFloat(d.Rating, 'f', -1, 64))
	}
	p.PrintDetail("Tags", strings.Join(d.Tags, ", "))
	p.PrintDetail("Cover", d.Cover)
	p.PrintDetail("Link", d.ShareURL)
	if d.Description != "" {
		fmt.Fprintln(p.Out)
		fmt.Fprintln(p.Out, d.Description)
	}

	return nil
}

func selectChapters(ctx context.Context, src providers.Source, id providers.SeriesID) ([]providers.ChapterRef, error) {
	all, err := src.GetChapters(ctx, id)
	if err != nil {
		return nil, err
	}
	if flagSortAsc {
		providers.SortChapters(all)
	}

	selected := providers.Filter(all, flagChapter, flagRange, flagList)
	if flagChapter != "" && len(selected) == 0 {
		return nil, fmt.Errorf("chapter '%s' not found", flagChapter)
	}

	return selected, nil
}

func runChapters(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	chs, err := selectChapters(s.ctx, s.src, providers.SeriesID(args[0]))
	if err != nil {
		return s.fail(err)
	}

	if s.printer.JSON {
		return s.printer.PrintJSON(chs)
	}

	rows := make([][]string, 0, len(chs))
	for i, ch := range chs {
		published := ""
		if !ch.Published.IsZero() {
			published = ch.Published.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), ch.Label(), ch.Name, published, ch.ID})
	}

	if err := s.printer.PrintTable([]string{"#", "NO.", "NAME", "PUBLISHED", "URL"}, rows); err != nil {
		return err
	}
	s.log.Infof("%d chapters\n", len(chs))

	return nil
}

func runPages(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.Context(), loadOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.src.GetChapterContent(s.ctx, providers.SeriesID(args[0]), args[1])
	if err != nil {
		return s.fail(err)
	}

	if s.printer.JSON {
		return s.printer.PrintJSON(c)
	}

	for _, u := range c.Pages {
		fmt.Fprintln(s.printer.Out, u)
	}
	s.log.Infof("%d pages\n", len(c.Pages))

	return nil
}
