package model

// Category caps. Every collection that crosses the payload boundary is bounded
// by one of these.
const (
	MaxHeadings            = 20
	MaxImages              = 30
	MaxLinks               = 25
	MaxFormInputs          = 15 // cumulative across all forms
	MaxAriaElements        = 20
	MaxProblematicElements = 30
)

// LimitedData is a capped, document-ordered collection paired with the
// untruncated count.
type LimitedData[T any] struct {
	Items      []T  `yaml:"items"      json:"items"`
	TotalCount int  `yaml:"totalCount" json:"totalCount"`
	Limited    bool `yaml:"limited"    json:"limited"`
	// Shown is the number of counted units included. It equals len(Items)
	// except for forms, where the unit is the form input.
	Shown int `yaml:"shown" json:"shown"`
}

// NewLimited builds a collection whose counted unit is the item itself.
// Limited is set only when items were actually dropped.
func NewLimited[T any](items []T, total int) LimitedData[T] {
	if items == nil {
		items = []T{}
	}
	if total < len(items) {
		total = len(items)
	}
	return LimitedData[T]{
		Items:      items,
		TotalCount: total,
		Limited:    len(items) < total,
		Shown:      len(items),
	}
}

// NewLimitedUnits builds a collection whose counted unit differs from the
// item (forms counted by inputs).
func NewLimitedUnits[T any](items []T, shown, total int) LimitedData[T] {
	if items == nil {
		items = []T{}
	}
	if total < shown {
		total = shown
	}
	return LimitedData[T]{
		Items:      items,
		TotalCount: total,
		Limited:    shown < total,
		Shown:      shown,
	}
}

// EmptyLimited returns a well-formed collection with no items.
func EmptyLimited[T any]() LimitedData[T] {
	return LimitedData[T]{Items: []T{}}
}

// Len returns the number of items held.
func (l LimitedData[T]) Len() int {
	return len(l.Items)
}
