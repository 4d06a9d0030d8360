package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/erazemk/izgubljeno/internal/scheduler"
)

// renderReport formats a sweep report for the terminal.
func renderReport(report *scheduler.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Sweep", "Candidates", "Processed", "Failed"})

	row := func(name string, r scheduler.Result) table.Row {
		return table.Row{name, strconv.Itoa(r.Candidates), strconv.Itoa(r.Processed), strconv.Itoa(r.Failed)}
	}
	tw.AppendRow(row("to be discarded", report.Marked))
	tw.AppendRow(row("discard", report.Discarded))

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for i := 2; i <= 4; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
