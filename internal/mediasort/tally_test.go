package mediasort

import (
	"strings"
	"testing"
)

func TestRunTally_Render_ContainsAllCounters(t *testing.T) {
	tally := &RunTally{}
	rendered := tally.Render()

	labels := []string{
		"TEST MOVED",
		"TEST DELETED",
		"TEST RENAMED",
		"MOVED",
		"DELETED",
		"RENAMED",
		"FAILED",
		"DUPLICATE FILES",
		"MD5 MATCHES",
		"MD5 DIFFS",
	}
	for _, label := range labels {
		if !strings.Contains(rendered, label) {
			t.Errorf("Expected rendered tally to contain %q:\n%s", label, rendered)
		}
	}
}

func TestRunTally_Render_ShowsCounts(t *testing.T) {
	tally := &RunTally{
		Moved:          42,
		DuplicateFiles: 7,
		MD5Matches:     3,
		MD5Diffs:       4,
	}
	rendered := tally.Render()

	for _, count := range []string{"42", "7", "3", "4"} {
		if !strings.Contains(rendered, count) {
			t.Errorf("Expected rendered tally to contain count %s:\n%s", count, rendered)
		}
	}
}

func TestRunTally_Render_ZeroCountersStayVisible(t *testing.T) {
	rendered := (&RunTally{}).Render()

	if !strings.Contains(rendered, "0") {
		t.Errorf("Expected zero counters to be rendered:\n%s", rendered)
	}
	if len(strings.Split(rendered, "\n")) < 12 {
		t.Errorf("Expected one row per counter plus header:\n%s", rendered)
	}
}
