package render

// Carousel is the slide state of one card. The page starts on Index and the
// browser script continues with the same wrap rule as GoTo.
type Carousel struct {
	Images      []string
	Placeholder bool
	index       int
}

// NewCarousel uses images, or a copy of placeholders when images is empty.
func NewCarousel(images, placeholders []string) *Carousel {
	if len(images) > 0 {
		return &Carousel{Images: append([]string(nil), images...)}
	}
	return &Carousel{
		Images:      append([]string(nil), placeholders...),
		Placeholder: true,
	}
}

// Len is the number of slides.
func (c *Carousel) Len() int {
	return len(c.Images)
}

// Index is the selected slide.
func (c *Carousel) Index() int {
	return c.index
}

// Controls reports whether prev/next buttons, indicators and the auto-advance
// timer are rendered.
func (c *Carousel) Controls() bool {
	return !c.Placeholder && len(c.Images) > 0
}

// GoTo selects slide i wrapped into [0, Len()).
func (c *Carousel) GoTo(i int) int {
	n := len(c.Images)
	if n == 0 {
		c.index = 0
		return 0
	}
	c.index = ((i % n) + n) % n
	return c.index
}
