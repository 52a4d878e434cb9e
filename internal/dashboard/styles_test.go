package dashboard

import "testing"

func TestHealthBadge_KnownValues(t *testing.T) {
	// Given: the three cluster health values plus an unknown one
	// Then: all render a non-empty badge without panicking
	for _, health := range []string{"green", "yellow", "red", "purple", ""} {
		if got := HealthBadge(health); got == "" {
			t.Errorf("HealthBadge(%q) returned empty string", health)
		}
	}
}

func TestPaneWidths_Normal(t *testing.T) {
	// Given: a normal terminal width of 120
	left, right := PaneWidths(120)

	// Then: left is 1/3 and right is the rest
	if left != 40 {
		t.Errorf("left = %d, want 40 (1/3 of 120)", left)
	}
	if right != 80 {
		t.Errorf("right = %d, want 80", right)
	}
}

func TestPaneWidths_NarrowTerminal(t *testing.T) {
	// Given: a terminal narrower than three times the minimum
	left, right := PaneWidths(60)

	// Then: the left pane keeps its minimum width
	if left != MinLeftWidth {
		t.Errorf("left = %d, want MinLeftWidth (%d)", left, MinLeftWidth)
	}
	if left+right != 60 {
		t.Errorf("left+right = %d, want 60", left+right)
	}
}

func TestPaneWidths_ZeroWidth(t *testing.T) {
	left, right := PaneWidths(0)
	if left != 0 || right != 0 {
		t.Errorf("PaneWidths(0) = %d, %d, want 0, 0", left, right)
	}
}
