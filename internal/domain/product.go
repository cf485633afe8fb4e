package domain

import (
	"context"

	"product-service/pkg/criteria"
)

// Product document field names, as stored and as exposed over JSON.
const (
	FieldID          = "_id"
	FieldTitle       = "title"
	FieldCategory    = "category"
	FieldImage       = "image"
	FieldPrice       = "price"
	FieldBrand       = "brand"
	FieldStrikePrice = "strike_price"
	FieldRating      = "rating"
)

// ProductFields lists every queryable product field except the id.
var ProductFields = []string{
	FieldTitle,
	FieldCategory,
	FieldImage,
	FieldPrice,
	FieldBrand,
	FieldStrikePrice,
	FieldRating,
}

// IsNumericField reports whether a product field holds a number.
func IsNumericField(field string) bool {
	switch field {
	case FieldPrice, FieldStrikePrice, FieldRating:
		return true
	}
	return false
}

// IsProductField reports whether field is a known product field.
func IsProductField(field string) bool {
	for _, f := range ProductFields {
		if f == field {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Price       int      `json:"price"`
	Brand       string   `json:"brand,omitempty"`
	StrikePrice *float64 `json:"strike_price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Clone returns a deep copy so cached values can't be mutated by callers.
func (p Product) Clone() Product {
	c := p
	if p.StrikePrice != nil {
		v := *p.StrikePrice
		c.StrikePrice = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		c.Rating = &v
	}
	return c
}

// Value returns the value of a named field and whether it is set.
// Unset optional fields report false so range predicates never match them.
func (p Product) Value(field string) (interface{}, bool) {
	switch field {
	case FieldID:
		return p.ID, true
	case FieldTitle:
		return p.Title, true
	case FieldCategory:
		return p.Category, true
	case FieldImage:
		return p.Image, p.Image != ""
	case FieldPrice:
		return float64(p.Price), true
	case FieldBrand:
		return p.Brand, p.Brand != ""
	case FieldStrikePrice:
		if p.StrikePrice == nil {
			return nil, false
		}
		return *p.StrikePrice, true
	case FieldRating:
		if p.Rating == nil {
			return nil, false
		}
		return *p.Rating, true
	}
	return nil, false
}

// --- Interfaces ---

// ProductRepository is implemented by every product store.
type ProductRepository interface {
	// Create persists p and sets p.ID.
	Create(ctx context.Context, p *Product) error
	Find(ctx context.Context, q criteria.Query) ([]Product, error)
	// FindByID returns nil, nil when no record has the id.
	FindByID(ctx context.Context, id string) (*Product, error)
	// UpdateByID merges the patch into an existing record in one store
	// operation. Returns ErrNotFound when no record has the id.
	UpdateByID(ctx context.Context, id string, patch ProductPatch) error
	// DeleteByID removes a record in one store operation.
	// Returns ErrNotFound when no record has the id.
	DeleteByID(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
