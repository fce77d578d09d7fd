package list

// cursor tracks the selected row and the first visible row of a list whose
// length and viewport height are supplied per call.
type cursor struct {
	pos    int
	offset int
	margin int
}

func (c *cursor) move(delta, n, height int) {
	if n == 0 {
		return
	}
	c.pos = clamp(c.pos+delta, n-1)
	c.follow(n, height)
}

func (c *cursor) jump(pos, n, height int) {
	if n == 0 {
		return
	}
	c.pos = clamp(pos, n-1)
	c.follow(n, height)
}

// follow scrolls so the cursor stays margin rows away from either edge.
func (c *cursor) follow(n, height int) {
	if height <= 0 || n == 0 {
		return
	}
	margin := min(c.margin, (height-1)/2)
	if c.pos < c.offset+margin {
		c.offset = max(c.pos-margin, 0)
	}
	if c.pos >= c.offset+height-margin {
		c.offset = c.pos - height + margin + 1
	}
	c.offset = clamp(c.offset, max(n-height, 0))
}

func (c *cursor) visible(n, height int) (start, end int) {
	if n == 0 || height <= 0 {
		return 0, 0
	}
	return c.offset, min(c.offset+height, n)
}

func clamp(v, hi int) int {
	return min(max(v, 0), max(hi, 0))
}
