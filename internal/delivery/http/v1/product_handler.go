package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"product-service/internal/domain"
	"product-service/internal/usecase"
	"product-service/pkg/logger"
	"product-service/pkg/utils"

	"github.com/goccy/go-json"
)

const maxBodyBytes = 1 << 20

type ProductHandler struct {
	productUC *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{productUC: uc}
}

// Register mounts the product routes. protect wraps the write routes.
func (h *ProductHandler) Register(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.HandleFunc("GET /products", h.ListProducts)
	mux.HandleFunc("GET /products/{$}", h.ListProducts)
	mux.HandleFunc("GET /products/filter", h.FilterProducts)
	mux.HandleFunc("GET /products/pagination", h.PaginateProducts)
	mux.HandleFunc("GET /products/search", h.SearchProducts)
	mux.HandleFunc("GET /products/search/{id}", h.GetProductByID)

	mux.Handle("POST /products/add", protect(h.AddProduct))
	mux.Handle("PATCH /products/{id}", protect(h.UpdateProduct))
	mux.Handle("DELETE /products/{id}", protect(h.DeleteProduct))
}

func (h *ProductHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductInput
	if err := decodeBody(w, r, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.productUC.CreateProduct(r.Context(), in)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"msg": "product added",
		"id":  product.ID,
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productUC.ListProducts(r.Context(), utils.FirstValues(r.URL.Query()))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) FilterProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.productUC.FilterProducts(r.Context(), filter)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) PaginateProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := domain.PageRequest{
		Page:     utils.ParsePositiveInt(query.Get("page"), domain.DefaultPage),
		Limit:    utils.ParsePositiveInt(query.Get("limit"), domain.DefaultPageLimit),
		Category: query.Get("category"),
	}

	products, err := h.productUC.PaginateProducts(r.Context(), req)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productUC.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID writes null when no product has the id.
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.productUC.GetProductByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := decodeBody(w, r, &patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.productUC.UpdateProduct(r.Context(), r.PathValue("id"), patch); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteMessage(w, "product updated")
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.productUC.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteMessage(w, "product deleted")
}

func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	query := r.URL.Query()
	filter := domain.ProductFilter{
		Category:  query.Get("category"),
		Brand:     query.Get("brand"),
		MaxRating: domain.DefaultMaxRating,
	}

	if v := query.Get("rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, fmt.Errorf("%w: rating %q is not a number", domain.ErrInvalidInput, v)
		}
		filter.MaxRating = rating
	}

	if v := query.Get("strike_price"); v != "" {
		pr, err := domain.ParsePriceRange(v)
		if err != nil {
			return filter, err
		}
		filter.PriceRange = &pr
	}

	order, err := domain.ParseSortOrder(query.Get("order"))
	if err != nil {
		return filter, err
	}
	filter.Order = order

	return filter, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after the JSON body", domain.ErrInvalidInput)
	}
	return nil
}

// writeUsecaseError maps domain errors onto status codes. Unexpected
// errors are logged and reported without detail.
func writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrRejected):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, err.Error())
	default:
		logger.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("product request failed")
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
