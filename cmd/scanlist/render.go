package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/JonMunkholm/ScanList/internal/core"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// productTable renders result entries. numbered adds a leading position
// column.
func productTable(entries []core.ResultEntry, numbered bool, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if colorize {
		tw.Style().Color.Header = text.Colors{text.Bold}
	}

	header := table.Row{"Barcode", "Product", "UOM", "Price"}
	priceCol := 4
	if numbered {
		header = append(table.Row{"#"}, header...)
		priceCol = 5
	}
	tw.AppendHeader(header)

	for i, e := range entries {
		row := table.Row{e.Barcode, e.Record.Name, e.Record.UOM, core.FormatPrice(e.Record.Price)}
		if numbered {
			row = append(table.Row{i + 1}, row...)
		}
		tw.AppendRow(row)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: priceCol, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// statusLine formats a session status for the terminal.
func statusLine(st core.Status, colorize bool) string {
	line := fmt.Sprintf("[%s] %s", st.Kind, st.Text)
	if st.Alert != "" {
		line += " (" + st.Alert + ")"
	}
	if colorize {
		if c := statusColor(st.Kind); c != "" {
			return c + line + ansiReset
		}
	}
	return line
}

func statusColor(kind core.StatusKind) string {
	switch kind {
	case core.StatusFound, core.StatusAdded:
		return ansiGreen
	case core.StatusDuplicate, core.StatusAlreadyInList, core.StatusNotFound:
		return ansiYellow
	case core.StatusDecoderError, core.StatusSetupFailed, core.StatusCatalogNotLoaded, core.StatusEmptyInput:
		return ansiRed
	default:
		return ""
	}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
