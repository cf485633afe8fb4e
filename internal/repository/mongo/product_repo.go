package mongorepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"product-service/internal/domain"
	"product-service/pkg/criteria"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server error code for a write that fails the collection's $jsonSchema.
const documentValidationFailure = 121

type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Category    string             `bson:"category"`
	Image       string             `bson:"image,omitempty"`
	Price       int                `bson:"price"`
	Brand       string             `bson:"brand,omitempty"`
	StrikePrice *float64           `bson:"strike_price,omitempty"`
	Rating      *float64           `bson:"rating,omitempty"`
}

func toDocument(p *domain.Product) productDocument {
	return productDocument{
		Title:       p.Title,
		Category:    p.Category,
		Image:       p.Image,
		Price:       p.Price,
		Brand:       p.Brand,
		StrikePrice: p.StrikePrice,
		Rating:      p.Rating,
	}
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Category:    d.Category,
		Image:       d.Image,
		Price:       d.Price,
		Brand:       d.Brand,
		StrikePrice: d.StrikePrice,
		Rating:      d.Rating,
	}
}

type productRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewProductRepository(client *mongo.Client, database, collection string) domain.ProductRepository {
	return &productRepository{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	doc := toDocument(p)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return classifyError("insert product", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (r *productRepository) Find(ctx context.Context, q criteria.Query) ([]domain.Product, error) {
	cursor, err := r.coll.Find(ctx, buildFilter(q), findOptions(q))
	if err != nil {
		return nil, classifyError("find products", err)
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classifyError("decode products", err)
	}

	products := make([]domain.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toDomain()
	}
	return products, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc productDocument
	err = r.coll.FindOne(ctx, bson.D{{Key: domain.FieldID, Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError("find product", err)
	}

	p := doc.toDomain()
	return &p, nil
}

func (r *productRepository) UpdateByID(ctx context.Context, id string, patch domain.ProductPatch) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	if patch.IsEmpty() {
		n, err := r.coll.CountDocuments(ctx, bson.D{{Key: domain.FieldID, Value: oid}}, options.Count().SetLimit(1))
		if err != nil {
			return classifyError("count product", err)
		}
		if n == 0 {
			return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return nil
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: buildSet(patch)}})
	if err != nil {
		return classifyError("update product", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *productRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: domain.FieldID, Value: oid}})
	if err != nil {
		return classifyError("delete product", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *productRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// --- Helpers ---

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

// buildFilter translates a criteria.Query into a filter document.
// Conditions on the same field are merged into one operator document,
// e.g. {"strike_price": {"$gt": 100, "$lt": 500}}.
func buildFilter(q criteria.Query) bson.D {
	filter := bson.D{}
	for _, field := range q.Fields() {
		conds := q.ConditionsFor(field)
		if len(conds) == 1 {
			switch conds[0].Op {
			case criteria.Eq:
				filter = append(filter, bson.E{Key: field, Value: conds[0].Value})
				continue
			case criteria.Contains:
				filter = append(filter, bson.E{Key: field, Value: containsRegex(conds[0].Value)})
				continue
			}
		}

		ops := bson.D{}
		for _, c := range conds {
			switch c.Op {
			case criteria.Eq:
				ops = append(ops, bson.E{Key: "$eq", Value: c.Value})
			case criteria.Lt:
				ops = append(ops, bson.E{Key: "$lt", Value: c.Value})
			case criteria.Gt:
				ops = append(ops, bson.E{Key: "$gt", Value: c.Value})
			case criteria.Contains:
				ops = append(ops, bson.E{Key: "$regex", Value: containsRegex(c.Value)})
			}
		}
		filter = append(filter, bson.E{Key: field, Value: ops})
	}
	return filter
}

func containsRegex(v interface{}) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(fmt.Sprint(v)), Options: "i"}
}

func findOptions(q criteria.Query) *options.FindOptions {
	opts := options.Find()
	if q.Sort != nil {
		dir := 1
		if q.Sort.Direction == criteria.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.Sort.Field, Value: dir}})
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}

// buildSet returns the $set document for a patch with keys in a stable order.
func buildSet(patch domain.ProductPatch) bson.D {
	fields := patch.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := bson.D{}
	for _, k := range keys {
		set = append(set, bson.E{Key: k, Value: fields[k]})
	}
	return set
}

func classifyError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRejected, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(documentValidationFailure) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRejected, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
