package engine

// PageStep is how many cards a single prev/next click moves the window.
const PageStep = 3

// CarouselNavigator provides windowed pagination over the ordered card list.
// It holds no hidden iterator state: the visible slice is recomputed from
// windowStart on every query.
type CarouselNavigator struct {
	windowStart int
	windowSize  int
	total       int
}

// NewCarouselNavigator creates a navigator over total cards showing
// windowSize at a time.
func NewCarouselNavigator(total, windowSize int) *CarouselNavigator {
	if windowSize < 1 {
		windowSize = 1
	}
	return &CarouselNavigator{windowSize: windowSize, total: total}
}

// CanPrev reports whether the window can move backwards.
func (c *CarouselNavigator) CanPrev() bool {
	return c.windowStart > 0
}

// CanNext reports whether the window can move forwards.
func (c *CarouselNavigator) CanNext() bool {
	return c.windowStart+c.windowSize < c.total
}

// Prev moves the window back by PageStep, clamped at 0. Returns false when
// already at the start.
func (c *CarouselNavigator) Prev() bool {
	if !c.CanPrev() {
		return false
	}
	c.windowStart -= PageStep
	if c.windowStart < 0 {
		c.windowStart = 0
	}
	return true
}

// Next moves the window forward by PageStep, clamped so the window never
// runs past the tail. Returns false when the last card is already visible.
func (c *CarouselNavigator) Next() bool {
	if !c.CanNext() {
		return false
	}
	c.windowStart += PageStep
	if max := c.maxStart(); c.windowStart > max {
		c.windowStart = max
	}
	return true
}

// WindowStart returns the index of the first visible card.
func (c *CarouselNavigator) WindowStart() int {
	return c.windowStart
}

// Bounds returns the half-open [start, end) index range of the visible
// slice; end is clamped at total so the tail window may be shorter.
func (c *CarouselNavigator) Bounds() (start, end int) {
	end = c.windowStart + c.windowSize
	if end > c.total {
		end = c.total
	}
	return c.windowStart, end
}

func (c *CarouselNavigator) maxStart() int {
	max := c.total - c.windowSize
	if max < 0 {
		max = 0
	}
	return max
}
