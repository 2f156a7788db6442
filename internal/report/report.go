// Package report renders benchmark results as text tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/metailurini/ravl/internal/workload"
)

const percentageValue = 100

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	return tbl
}

func ratio(part, whole int64) string {
	if whole == 0 {
		return "-"
	}

	return humanize.FtoaWithDigits(float64(part)*percentageValue/float64(whole), 1) + "%"
}

// Summary renders the run configuration, tallies and final tree shape.
func Summary(res *workload.Result) string {
	cfg := res.Config
	total := res.Total

	tbl := newTable()
	tbl.SetTitle("ravlbench")
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"threads", cfg.Threads},
		{"duration", res.Elapsed.Round(time.Millisecond).String()},
		{"distribution", cfg.Distribution},
		{"key range", humanize.Comma(int64(cfg.KeyRange))},
		{"update / insert", fmt.Sprintf("%d%% / %d%%", cfg.UpdatePercent, cfg.InsertPercent)},
		{"seed", strconv.FormatInt(res.Seed, 10)},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"operations", humanize.Comma(total.Ops())},
		{"throughput", humanize.SIWithDigits(res.Throughput(), 2, "ops/s")},
		{"reads", humanize.Comma(total.Reads())},
		{"effective reads", humanize.Comma(total.EffectiveReads())},
		{"updates", humanize.Comma(total.Updates())},
		{"effective updates", fmt.Sprintf("%s (%s)", humanize.Comma(total.EffectiveUpdates()), ratio(total.EffectiveUpdates(), total.Updates()))},
	})
	tbl.AppendSeparator()

	st := res.Stats
	tbl.AppendRows([]table.Row{
		{"scx commits / aborts", fmt.Sprintf("%s / %s", humanize.Comma(st.Commits), humanize.Comma(st.Aborts))},
		{"helps", humanize.Comma(st.Helps)},
		{"retries", humanize.Comma(st.Retries)},
		{"rebalances", fmt.Sprintf("%s (promote %d, rotate1 %d, rotate2 %d, double %d)",
			humanize.Comma(st.Rebalances()), st.Promotes, st.Rotate1s, st.Rotate2s, st.DoubleRotates)},
	})
	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"size", fmt.Sprintf("%s (expected %s)", humanize.Comma(int64(res.Size)), humanize.Comma(int64(res.ExpectedSize())))},
		{"height", res.Height},
		{"violations", res.Violations},
	})

	return tbl.Render()
}

// Workers renders one row of tallies per worker.
func Workers(res *workload.Result) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Worker", "Add", "Added", "Remove", "Removed", "Contains", "Found"})

	for id, c := range res.Workers {
		tbl.AppendRow(table.Row{
			id,
			humanize.Comma(c.Adds), humanize.Comma(c.Added),
			humanize.Comma(c.Removes), humanize.Comma(c.Removed),
			humanize.Comma(c.Contains), humanize.Comma(c.Found),
		})
	}

	t := res.Total
	tbl.AppendFooter(table.Row{
		"total",
		humanize.Comma(t.Adds), humanize.Comma(t.Added),
		humanize.Comma(t.Removes), humanize.Comma(t.Removed),
		humanize.Comma(t.Contains), humanize.Comma(t.Found),
	})

	return tbl.Render()
}

// Audit renders the outcome of a sequential audit.
func Audit(rep workload.AuditReport, err error) string {
	status := "ok"
	if err != nil {
		status = "FAILED"
	}

	tbl := newTable()
	tbl.SetTitle("ravlbench verify")
	tbl.AppendRows([]table.Row{
		{"steps", humanize.Comma(int64(rep.Steps))},
		{"size", humanize.Comma(int64(rep.Size))},
		{"height", rep.Height},
		{"max path violations", rep.MaxPathViolations},
		{"status", status},
	})

	return tbl.Render()
}

// Write renders res to w with per-worker rows when verbose is set.
func Write(w io.Writer, res *workload.Result, verbose bool) error {
	if _, err := fmt.Fprintln(w, Summary(res)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if !verbose {
		return nil
	}

	if _, err := fmt.Fprintln(w, Workers(res)); err != nil {
		return fmt.Errorf("write workers: %w", err)
	}

	return nil
}
