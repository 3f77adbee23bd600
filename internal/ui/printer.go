package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

type Printer struct {
	Out  io.Writer
	JSON bool
}

func NewPrinter(asJSON bool) *Printer {
	return &Printer{Out: os.Stdout, JSON: asJSON}
}

func (p *Printer) PrintHeader(text string) {
	_, _ = color.New(color.Bold, color.FgCyan).Fprintln(p.Out, text)
	_, _ = fmt.Fprintln(p.Out, strings.Repeat("-", 60))
}

func (p *Printer) PrintDetail(label, value string) {
	if value == "" {
		return
	}
	_, _ = color.New(color.FgHiBlue).Fprintf(p.Out, "%s: ", label)
	_, _ = fmt.Fprintln(p.Out, value)
}

func (p *Printer) PrintTable(headers []string, data [][]string) error {
	table := tablewriter.NewTable(p.Out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
		cfg.Header.Padding.Global = tw.Padding{Left: " ", Right: " "}
		cfg.Row.Padding.Global = tw.Padding{Left: " ", Right: " "}
	})

	table.Header(headers)
	if err := table.Bulk(data); err != nil {
		return err
	}

	return table.Render()
}

func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
