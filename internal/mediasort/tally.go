package mediasort

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RunTally holds the process-wide counters for one run. It is owned by the
// executor and incremented exactly once per terminal per-file outcome,
// plus the duplicate classification counters which are recorded in dry and
// real runs alike.
type RunTally struct {
	Moved   int
	Deleted int
	Renamed int

	TestMoved   int
	TestDeleted int
	TestRenamed int

	Failed int

	// DuplicateFiles counts name collisions seen, MD5Matches and MD5Diffs
	// classify them by content identity.
	DuplicateFiles int
	MD5Matches     int
	MD5Diffs       int
}

// Render formats the tally as a summary table. All counters are always
// present, zero or not, so runs are comparable at a glance.
func (t *RunTally) Render() string {
	rows := []struct {
		label string
		count int
	}{
		{"TEST MOVED", t.TestMoved},
		{"TEST DELETED", t.TestDeleted},
		{"TEST RENAMED", t.TestRenamed},
		{"MOVED", t.Moved},
		{"DELETED", t.Deleted},
		{"RENAMED", t.Renamed},
		{"FAILED", t.Failed},
		{"DUPLICATE FILES", t.DuplicateFiles},
		{"MD5 MATCHES", t.MD5Matches},
		{"MD5 DIFFS", t.MD5Diffs},
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Counter", "Count"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.label, row.count})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}
