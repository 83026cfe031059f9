package experience

import "testing"

func TestPermittedEdges(t *testing.T) {
	allowed := [][2]Step{
		{StepHome, StepStart},
		{StepStart, StepName},
		{StepName, StepCarousel},
		{StepCarousel, StepCarousel},
		{StepCarousel, StepLight1},
		{StepLight1, StepLight2},
		{StepLight2, StepLight3},
		{StepLight3, StepLight4},
		{StepLight4, StepEnd},
	}
	for _, edge := range allowed {
		if !CanTransition(edge[0], edge[1]) {
			t.Errorf("Expected %s -> %s to be permitted", edge[0], edge[1])
		}
	}
}

func TestForbiddenEdges(t *testing.T) {
	forbidden := [][2]Step{
		{StepHome, StepCarousel},  // no skipping the intro
		{StepCarousel, StepLight2}, // finale starts at the first light
		{StepLight2, StepLight1},  // no going back
		{StepEnd, StepHome},       // END is terminal
		{StepLight3, StepEnd},     // the final answer gates LIGHT_4 first
	}
	for _, edge := range forbidden {
		if CanTransition(edge[0], edge[1]) {
			t.Errorf("Expected %s -> %s to be rejected", edge[0], edge[1])
		}
	}
}

func TestMarkSolvedIsIdempotent(t *testing.T) {
	p := NewProfile()

	if !p.MarkSolved(2) {
		t.Error("First MarkSolved should report a new entry")
	}
	if p.MarkSolved(2) {
		t.Error("Second MarkSolved of the same card should report a duplicate")
	}
	if p.SolvedCount() != 1 {
		t.Errorf("Expected solved count 1, got %d", p.SolvedCount())
	}
}

func TestSolvedIDsKeepInsertionOrder(t *testing.T) {
	p := NewProfile()
	for _, id := range []int{3, 1, 2} {
		p.MarkSolved(id)
	}

	got := p.SolvedIDs()
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("Expected %d ids, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected SolvedIDs[%d]=%d, got %d", i, want[i], got[i])
		}
	}
}

func TestHasSolved(t *testing.T) {
	p := NewProfile()
	p.MarkSolved(7)

	if !p.HasSolved(7) {
		t.Error("Expected card 7 to be solved")
	}
	if p.HasSolved(8) {
		t.Error("Expected card 8 to be unsolved")
	}
}
