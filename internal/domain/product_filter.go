package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Query defaults.
const (
	DefaultMaxRating = 5.0
	DefaultPage      = 1
	DefaultPageLimit = 3
)

// SortOrder is the requested direction of the filter sort.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortAsc
	SortDesc
)

// ParseSortOrder accepts asc/ascending/1 and desc/descending/-1.
// An empty token means no sort.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNone, nil
	case "asc", "ascending", "1":
		return SortAsc, nil
	case "desc", "descending", "-1":
		return SortDesc, nil
	}
	return SortNone, fmt.Errorf("%w: order %q must be asc or desc", ErrInvalidInput, s)
}

// PriceRange is an exclusive strike price range.
type PriceRange struct {
	Lower float64
	Upper float64
}

// ParsePriceRange reads the storefront's range label, e.g. "₹ 100 to ₹ 500".
// The label is split on single spaces and tokens 1 and 4 are the bounds;
// the remaining tokens are ignored.
func ParsePriceRange(s string) (PriceRange, error) {
	tokens := strings.Split(s, " ")
	if len(tokens) < 5 {
		return PriceRange{}, fmt.Errorf("%w: strike_price %q is not a price range", ErrInvalidInput, s)
	}
	lower, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil {
		return PriceRange{}, fmt.Errorf("%w: strike_price lower bound %q is not a number", ErrInvalidInput, tokens[1])
	}
	upper, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return PriceRange{}, fmt.Errorf("%w: strike_price upper bound %q is not a number", ErrInvalidInput, tokens[4])
	}
	return PriceRange{Lower: lower, Upper: upper}, nil
}

// ProductFilter holds the parsed parameters of the category filter.
type ProductFilter struct {
	Category   string
	Brand      string
	PriceRange *PriceRange
	// MaxRating is exclusive. Products at or above it are filtered out.
	MaxRating float64
	Order     SortOrder
}

// PageRequest holds the parsed parameters of the paginated listing.
type PageRequest struct {
	Page     int
	Limit    int
	Category string
}

// Offset returns the number of records to skip. It saturates at
// math.MaxInt64 so a far page stays past the end instead of wrapping.
func (p PageRequest) Offset() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}
