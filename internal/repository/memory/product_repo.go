package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"product-service/internal/domain"
	"product-service/pkg/criteria"

	"github.com/google/uuid"
)

// productRepository keeps products in insertion order behind a RWMutex.
// It backs local development and the HTTP tests.
type productRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Product
	order []string
}

func NewProductRepository() domain.ProductRepository {
	return &productRepository{items: make(map[string]*domain.Product)}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.New().String()
	stored := p.Clone()
	r.items[p.ID] = &stored
	r.order = append(r.order, p.ID)
	return nil
}

func (r *productRepository) Find(ctx context.Context, q criteria.Query) ([]domain.Product, error) {
	r.mu.RLock()
	matched := make([]domain.Product, 0)
	for _, id := range r.order {
		p := r.items[id]
		if matches(*p, q.Conditions) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	if q.Sort != nil {
		sortProducts(matched, *q.Sort)
	}

	if q.Skip > 0 {
		if q.Skip >= int64(len(matched)) {
			return []domain.Product{}, nil
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(matched)) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	c := p.Clone()
	return &c, nil
}

func (r *productRepository) UpdateByID(ctx context.Context, id string, patch domain.ProductPatch) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	patch.Apply(p)
	return nil
}

func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *productRepository) Ping(ctx context.Context) error {
	return nil
}

// canonicalID parses id and returns its lowercase hyphenated form.
func canonicalID(id string) (string, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return uid.String(), nil
}

// --- Criteria evaluation ---

func matches(p domain.Product, conds []criteria.Condition) bool {
	for _, c := range conds {
		v, ok := p.Value(c.Field)
		if !ok {
			return false
		}
		if !match(v, c) {
			return false
		}
	}
	return true
}

func match(v interface{}, c criteria.Condition) bool {
	switch c.Op {
	case criteria.Eq:
		if fv, ok := v.(float64); ok {
			cv, ok := toFloat(c.Value)
			return ok && fv == cv
		}
		return fmt.Sprint(v) == fmt.Sprint(c.Value)
	case criteria.Lt, criteria.Gt:
		fv, ok := v.(float64)
		if !ok {
			return false
		}
		cv, ok := toFloat(c.Value)
		if !ok {
			return false
		}
		if c.Op == criteria.Lt {
			return fv < cv
		}
		return fv > cv
	case criteria.Contains:
		s, ok := v.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(c.Value)))
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// sortProducts orders by field; products missing the field sort first
// ascending, matching document store semantics for absent values.
func sortProducts(ps []domain.Product, s criteria.Sort) {
	less := func(a, b domain.Product) bool {
		av, aok := a.Value(s.Field)
		bv, bok := b.Value(s.Field)
		if !aok || !bok {
			return !aok && bok
		}
		af, aNum := av.(float64)
		bf, bNum := bv.(float64)
		if aNum && bNum {
			return af < bf
		}
		return fmt.Sprint(av) < fmt.Sprint(bv)
	}
	sort.SliceStable(ps, func(i, j int) bool {
		if s.Direction == criteria.Desc {
			return less(ps[j], ps[i])
		}
		return less(ps[i], ps[j])
	})
}
