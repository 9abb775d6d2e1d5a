package view

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/daylistapp/daylist-server/internal/errors"
)

// Ordering selects the sort key and direction for a live view.
type Ordering string

const (
	OrderNameAsc     Ordering = "nameAsc"
	OrderNameDesc    Ordering = "nameDesc"
	OrderCreatedAsc  Ordering = "createdAsc"
	OrderCreatedDesc Ordering = "createdDesc"
)

// DefaultOrdering is used when a view is opened without an explicit
// ordering.
const DefaultOrdering = OrderCreatedAsc

// ParseOrdering validates a caller-supplied ordering name.
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(s) {
	case OrderNameAsc, OrderNameDesc, OrderCreatedAsc, OrderCreatedDesc:
		return Ordering(s), nil
	case "":
		return DefaultOrdering, nil
	default:
		return "", errors.Validationf("unknown ordering %q", s)
	}
}

// Filter narrows a todo view by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter validates a caller-supplied filter name.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterAll, FilterPending, FilterCompleted:
		return Filter(s), nil
	case "":
		return FilterAll, nil
	default:
		return "", errors.Validationf("unknown filter %q", s)
	}
}

// newCollator builds the collator used for name orderings. Collators
// are not safe for concurrent use, so each view owns one and calls it
// only from query evaluation.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase, collate.Numeric)
}
