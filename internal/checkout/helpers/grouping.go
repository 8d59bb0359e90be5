package helpers

import (
	"github.com/google/uuid"
)

// PricedLine is one cart line priced from the product row at checkout time.
type PricedLine struct {
	ProductID  uuid.UUID
	StoreID    uuid.UUID
	Name       string
	Quantity   int
	PriceCents int64
}

// LineTotal returns price times quantity.
func (l PricedLine) LineTotal() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// StoreGroup is the slice of a cart sold by one store.
type StoreGroup struct {
	StoreID       uuid.UUID
	Lines         []PricedLine
	SubtotalCents int64
}

// GroupLinesByStore groups lines by store. Groups keep the order in which
// their first line appears in the cart.
func GroupLinesByStore(lines []PricedLine) []StoreGroup {
	index := make(map[uuid.UUID]int, len(lines))
	groups := make([]StoreGroup, 0, len(lines))
	for _, line := range lines {
		i, ok := index[line.StoreID]
		if !ok {
			i = len(groups)
			index[line.StoreID] = i
			groups = append(groups, StoreGroup{StoreID: line.StoreID})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		groups[i].SubtotalCents += line.LineTotal()
	}
	return groups
}
