package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so messages match what the caller sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProductInput is the request body accepted by the create operation.
type ProductInput struct {
	Title       string   `json:"title" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Image       string   `json:"image" validate:"omitempty,url"`
	Price       *int     `json:"price" validate:"required,gte=0"`
	Brand       string   `json:"brand"`
	StrikePrice *float64 `json:"strike_price" validate:"omitempty,gte=0"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

func (in ProductInput) Validate() error {
	return validationError(validate.Struct(in))
}

// ToProduct converts validated input into a new, unsaved Product.
func (in ProductInput) ToProduct() Product {
	p := Product{
		Title:       in.Title,
		Category:    in.Category,
		Image:       in.Image,
		Brand:       in.Brand,
		StrikePrice: in.StrikePrice,
		Rating:      in.Rating,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	return p
}

// ProductPatch is the request body accepted by the update operation.
// Nil fields are left untouched.
type ProductPatch struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Image       *string  `json:"image" validate:"omitempty,url"`
	Price       *int     `json:"price" validate:"omitempty,gte=0"`
	Brand       *string  `json:"brand"`
	StrikePrice *float64 `json:"strike_price" validate:"omitempty,gte=0"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

func (p ProductPatch) Validate() error {
	return validationError(validate.Struct(p))
}

// Fields returns the set fields keyed by document field name.
func (p ProductPatch) Fields() map[string]interface{} {
	m := make(map[string]interface{})
	if p.Title != nil {
		m[FieldTitle] = *p.Title
	}
	if p.Category != nil {
		m[FieldCategory] = *p.Category
	}
	if p.Image != nil {
		m[FieldImage] = *p.Image
	}
	if p.Price != nil {
		m[FieldPrice] = *p.Price
	}
	if p.Brand != nil {
		m[FieldBrand] = *p.Brand
	}
	if p.StrikePrice != nil {
		m[FieldStrikePrice] = *p.StrikePrice
	}
	if p.Rating != nil {
		m[FieldRating] = *p.Rating
	}
	return m
}

// IsEmpty reports whether the patch sets no field.
func (p ProductPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Apply merges the patch into prod.
func (p ProductPatch) Apply(prod *Product) {
	if p.Title != nil {
		prod.Title = *p.Title
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Image != nil {
		prod.Image = *p.Image
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Brand != nil {
		prod.Brand = *p.Brand
	}
	if p.StrikePrice != nil {
		v := *p.StrikePrice
		prod.StrikePrice = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		prod.Rating = &v
	}
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must not be empty", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
}
