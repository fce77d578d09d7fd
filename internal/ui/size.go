// Package ui holds what the shelf components share: their render area and
// the panel geometry.
package ui

// Panel geometry in terminal rows.
const (
	// ScrollMargin rows stay visible between the cursor and a list edge.
	ScrollMargin = 3
	// BorderHeight is the top plus bottom border of a panel.
	BorderHeight = 2
	// HeaderHeight is a panel title and the rule under it.
	HeaderHeight = 2
	// PanelOverhead is the rows a panel uses besides its content.
	PanelOverhead = BorderHeight + HeaderHeight
)

// Size is the area a component renders into. Negative sizes are stored as 0.
type Size struct {
	width, height int
}

func (s *Size) SetSize(width, height int) {
	s.width, s.height = max(width, 0), max(height, 0)
}

func (s Size) Width() int  { return s.width }
func (s Size) Height() int { return s.height }
