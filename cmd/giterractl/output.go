package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/bryanwahyu/giterra/internal/domain/scoring"
)

var themeColors = map[scoring.Theme]*color.Color{
	scoring.ThemeFutureCity:      color.New(color.FgCyan, color.Bold),
	scoring.ThemeLabDome:         color.New(color.FgMagenta, color.Bold),
	scoring.ThemePrimitiveForest: color.New(color.FgGreen),
	scoring.ThemeStartTree:       color.New(color.FgHiBlack),
}

// themeLabel colors a theme key. fatih/color drops the escapes when stdout
// is not a terminal.
func themeLabel(theme scoring.Theme) string {
	if c, ok := themeColors[theme]; ok {
		return c.Sprint(string(theme))
	}
	return string(theme)
}

// renderTable writes rows under headers with numeric-friendly alignment.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
