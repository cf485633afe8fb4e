package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"product-service/internal/domain"
	"product-service/pkg/criteria"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// productDocument is the JSONB body of a products row. The id lives in
// its own column.
type productDocument struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Image       string   `json:"image,omitempty"`
	Price       int      `json:"price"`
	Brand       string   `json:"brand,omitempty"`
	StrikePrice *float64 `json:"strike_price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

type productRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	doc, err := json.Marshal(productDocument{
		Title:       p.Title,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.Price,
		Brand:       p.Brand,
		StrikePrice: p.StrikePrice,
		Rating:      p.Rating,
	})
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}

	id := uuid.New().String()
	_, err = r.db.Exec(ctx, `INSERT INTO products (id, doc) VALUES ($1::uuid, $2::jsonb)`, id, string(doc))
	if err != nil {
		return classifyError("insert product", err)
	}
	p.ID = id
	return nil
}

func (r *productRepository) Find(ctx context.Context, q criteria.Query) ([]domain.Product, error) {
	stmt, err := buildSelect(q)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, classifyError("find products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p, err := decodeProduct(id, raw)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError("find products", err)
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	id = uid.String()

	var raw []byte
	err = r.db.QueryRow(ctx, `SELECT doc FROM products WHERE id = $1::uuid`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError("find product", err)
	}

	p, err := decodeProduct(id, raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateByID merges the patch with the jsonb concatenation operator, so
// the existence check and the write are the same statement.
func (r *productRepository) UpdateByID(ctx context.Context, id string, patch domain.ProductPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}

	set, err := json.Marshal(patch.Fields())
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE products SET doc = doc || $2::jsonb, updated_at = now() WHERE id = $1::uuid`,
		id, string(set))
	if err != nil {
		return classifyError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1::uuid`, id)
	if err != nil {
		return classifyError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *productRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// --- Helpers ---

func decodeProduct(id string, raw []byte) (domain.Product, error) {
	var doc productDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	return domain.Product{
		ID:          id,
		Title:       doc.Title,
		Category:    doc.Category,
		Image:       doc.Image,
		Price:       doc.Price,
		Brand:       doc.Brand,
		StrikePrice: doc.StrikePrice,
		Rating:      doc.Rating,
	}, nil
}

// classifyError marks data exceptions (class 22) and integrity
// violations (class 23) as rejected writes.
func classifyError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) == 5 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return fmt.Errorf("%s: %w: %w", op, domain.ErrRejected, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
