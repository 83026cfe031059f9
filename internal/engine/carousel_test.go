package engine

import "testing"

func TestCarouselStartsAtZero(t *testing.T) {
	c := NewCarouselNavigator(9, 3)

	if c.CanPrev() {
		t.Error("Expected prev to be disabled at the start")
	}
	if !c.CanNext() {
		t.Error("Expected next to be enabled with 9 cards")
	}
	if start, end := c.Bounds(); start != 0 || end != 3 {
		t.Errorf("Expected window [0,3), got [%d,%d)", start, end)
	}
}

func TestCarouselPagesByThree(t *testing.T) {
	c := NewCarouselNavigator(9, 3)

	c.Next()
	c.Next()
	if c.WindowStart() != 6 {
		t.Errorf("Expected window start 6 after two pages, got %d", c.WindowStart())
	}
	if c.CanNext() {
		t.Error("Expected next to be disabled on the last page")
	}
	if c.Next() {
		t.Error("Expected Next to refuse past the last page")
	}

	c.Prev()
	c.Prev()
	if c.WindowStart() != 0 {
		t.Errorf("Expected window start 0 after paging back, got %d", c.WindowStart())
	}
	if c.Prev() {
		t.Error("Expected Prev to refuse at the start")
	}
}

func TestCarouselClampsAtTail(t *testing.T) {
	// 7 cards: the second page would start at 6, past the max start of 4.
	c := NewCarouselNavigator(7, 3)

	c.Next()
	if c.WindowStart() != 3 {
		t.Errorf("Expected window start 3, got %d", c.WindowStart())
	}
	c.Next()
	if c.WindowStart() != 4 {
		t.Errorf("Expected window start clamped to 4, got %d", c.WindowStart())
	}
	if start, end := c.Bounds(); start != 4 || end != 7 {
		t.Errorf("Expected window [4,7), got [%d,%d)", start, end)
	}
}

func TestCarouselShortList(t *testing.T) {
	c := NewCarouselNavigator(2, 3)

	if c.CanNext() || c.CanPrev() {
		t.Error("Expected both directions disabled when all cards fit")
	}
	if start, end := c.Bounds(); start != 0 || end != 2 {
		t.Errorf("Expected window [0,2), got [%d,%d)", start, end)
	}
}
