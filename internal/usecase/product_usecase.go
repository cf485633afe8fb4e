package usecase

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"product-service/config"
	"product-service/internal/domain"
	"product-service/pkg/cache"
	"product-service/pkg/criteria"
	"product-service/pkg/logger"

	"github.com/google/uuid"
)

type ProductUsecase struct {
	repo     domain.ProductRepository
	cache    cache.CacheService
	cacheTTL time.Duration
	timeout  time.Duration

	// writes counts completed updates and deletes. A read only caches
	// its result if no write finished while it was in flight.
	mu     sync.Mutex
	writes uint64
}

func NewProductUsecase(repo domain.ProductRepository, c cache.CacheService, cfg *config.Config) *ProductUsecase {
	if c == nil || cfg.CacheProductTTL <= 0 {
		c = cache.Nop{}
	}
	return &ProductUsecase{
		repo:     repo,
		cache:    c,
		cacheTTL: cfg.CacheProductTTL,
		timeout:  cfg.StoreTimeout,
	}
}

func (uc *ProductUsecase) CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := in.ToProduct()
	err := uc.call(ctx, "insert product", func(ctx context.Context) error {
		return uc.repo.Create(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns every product whose fields equal the given values.
func (uc *ProductUsecase) ListProducts(ctx context.Context, params map[string]string) ([]domain.Product, error) {
	return uc.find(ctx, "list products", BuildListQuery(params))
}

func (uc *ProductUsecase) FilterProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return uc.find(ctx, "filter products", BuildFilterQuery(f))
}

func (uc *ProductUsecase) PaginateProducts(ctx context.Context, req domain.PageRequest) ([]domain.Product, error) {
	return uc.find(ctx, "paginate products", BuildPageQuery(req))
}

func (uc *ProductUsecase) SearchProducts(ctx context.Context, q string) ([]domain.Product, error) {
	return uc.find(ctx, "search products", BuildSearchQuery(q))
}

// GetProductByID returns nil, nil when no product has the id.
func (uc *ProductUsecase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if val, found := uc.cache.Get(productKey(id)); found {
		p := val.(domain.Product).Clone()
		return &p, nil
	}

	uc.mu.Lock()
	seen := uc.writes
	uc.mu.Unlock()

	var p *domain.Product
	err := uc.call(ctx, "find product", func(ctx context.Context) error {
		var err error
		p, err = uc.repo.FindByID(ctx, id)
		return err
	})
	if err != nil || p == nil {
		return nil, err
	}

	uc.mu.Lock()
	if uc.writes == seen {
		uc.cache.Set(productKey(p.ID), p.Clone(), uc.cacheTTL)
	}
	uc.mu.Unlock()
	return p, nil
}

func (uc *ProductUsecase) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	defer uc.invalidate(id)
	return uc.call(ctx, "update product", func(ctx context.Context) error {
		return uc.repo.UpdateByID(ctx, id, patch)
	})
}

func (uc *ProductUsecase) DeleteProduct(ctx context.Context, id string) error {
	defer uc.invalidate(id)
	return uc.call(ctx, "delete product", func(ctx context.Context) error {
		return uc.repo.DeleteByID(ctx, id)
	})
}

// invalidate evicts id after a write and stops in-flight reads from
// caching what they loaded before it.
func (uc *ProductUsecase) invalidate(id string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.writes++
	uc.cache.Delete(productKey(id))
}

// productKey keys the cache on the canonical id: the stores accept
// uppercase hex and the braced or urn forms of a UUID.
func productKey(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return cache.ProductKey(u.String())
	}
	return cache.ProductKey(strings.ToLower(id))
}

// Ping checks the store within the usecase timeout.
func (uc *ProductUsecase) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.repo.Ping(ctx)
}

func (uc *ProductUsecase) find(ctx context.Context, op string, q criteria.Query) ([]domain.Product, error) {
	logger.WithContext(ctx).Debug().Str("op", op).Stringer("criteria", q).Msg("Store Query")

	var products []domain.Product
	err := uc.call(ctx, op, func(ctx context.Context) error {
		var err error
		products, err = uc.repo.Find(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// call runs one store operation under the store timeout and logs it.
// Every store call is attempted exactly once.
func (uc *ProductUsecase) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	logger.StoreCall(ctx, op, time.Since(start), unexpected(err))
	return err
}

// unexpected drops outcomes the caller caused so they are not logged as failures.
func unexpected(err error) error {
	switch {
	case err == nil,
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrRejected):
		return nil
	}
	return err
}

// --- Query construction ---

// BuildListQuery turns query-string pairs into equality conditions.
// Unknown keys are ignored. Numeric fields compare as numbers when the
// value parses as one.
func BuildListQuery(params map[string]string) criteria.Query {
	keys := make([]string, 0, len(params))
	for k := range params {
		if domain.IsProductField(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	b := criteria.New()
	for _, k := range keys {
		v := params[k]
		if domain.IsNumericField(k) {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				b = b.Eq(k, n)
				continue
			}
		}
		b = b.Eq(k, v)
	}
	return b.Build()
}

// BuildFilterQuery builds the category filter. The rating ceiling always
// applies, so an empty filter still excludes products rated 5 or more.
func BuildFilterQuery(f domain.ProductFilter) criteria.Query {
	b := criteria.New()
	if f.Category != "" {
		b = b.Eq(domain.FieldCategory, f.Category)
	}
	b = b.Lt(domain.FieldRating, f.MaxRating)
	if f.Brand != "" {
		b = b.Eq(domain.FieldBrand, f.Brand)
	}
	if f.PriceRange != nil {
		b = b.Gt(domain.FieldStrikePrice, f.PriceRange.Lower).
			Lt(domain.FieldStrikePrice, f.PriceRange.Upper)
	}
	switch f.Order {
	case domain.SortAsc:
		b = b.OrderBy(domain.FieldStrikePrice, criteria.Asc)
	case domain.SortDesc:
		b = b.OrderBy(domain.FieldStrikePrice, criteria.Desc)
	}
	return b.Build()
}

func BuildPageQuery(req domain.PageRequest) criteria.Query {
	b := criteria.New()
	if req.Category != "" {
		b = b.Eq(domain.FieldCategory, req.Category)
	}
	return b.Skip(req.Offset()).Limit(int64(req.Limit)).Build()
}

// BuildSearchQuery matches q anywhere in the title, ignoring case.
// An empty q matches every product.
func BuildSearchQuery(q string) criteria.Query {
	b := criteria.New()
	if q != "" {
		b = b.Contains(domain.FieldTitle, q)
	}
	return b.Build()
}
