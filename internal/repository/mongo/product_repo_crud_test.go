package mongorepo

import (
	"context"
	"errors"
	"testing"

	"product-service/internal/domain"
	"product-service/pkg/criteria"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockRepo(mt *mtest.T) *productRepository {
	return &productRepository{client: mt.Client, coll: mt.Coll}
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestProductRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &domain.Product{Title: "Runner", Category: "shoes", Price: 120}
		require.NoError(mt, newMockRepo(mt).Create(context.Background(), p))

		_, err := primitive.ObjectIDFromHex(p.ID)
		assert.NoError(mt, err)
	})

	mt.Run("duplicate key is rejected", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		p := &domain.Product{Title: "Runner", Category: "shoes", Price: 120}
		err := newMockRepo(mt).Create(context.Background(), p)
		assert.True(mt, errors.Is(err, domain.ErrRejected), "got %v", err)
		assert.Empty(mt, p.ID)
	})

	mt.Run("schema validation is rejected", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    documentValidationFailure,
			Message: "Document failed validation",
		}))

		err := newMockRepo(mt).Create(context.Background(), &domain.Product{Title: "x"})
		assert.True(mt, errors.Is(err, domain.ErrRejected), "got %v", err)
	})
}

func TestProductRepository_Find(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes documents", func(mt *mtest.T) {
		id1, id2 := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: id1},
				{Key: "title", Value: "Runner"},
				{Key: "category", Value: "shoes"},
				{Key: "price", Value: int32(120)},
				{Key: "rating", Value: 4.5},
			},
			bson.D{
				{Key: "_id", Value: id2},
				{Key: "title", Value: "Cap"},
				{Key: "category", Value: "hats"},
				{Key: "price", Value: int32(15)},
			},
		))

		q := criteria.New().Eq("category", "shoes").Limit(10).Build()
		products, err := newMockRepo(mt).Find(context.Background(), q)
		require.NoError(mt, err)
		require.Len(mt, products, 2)

		assert.Equal(mt, id1.Hex(), products[0].ID)
		assert.Equal(mt, "Runner", products[0].Title)
		assert.Equal(mt, 120, products[0].Price)
		require.NotNil(mt, products[0].Rating)
		assert.Equal(mt, 4.5, *products[0].Rating)

		assert.Equal(mt, id2.Hex(), products[1].ID)
		assert.Nil(mt, products[1].Rating)
	})

	mt.Run("empty result", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		products, err := newMockRepo(mt).Find(context.Background(), criteria.Query{})
		require.NoError(mt, err)
		assert.Empty(mt, products)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad sort",
		}))

		_, err := newMockRepo(mt).Find(context.Background(), criteria.Query{})
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, domain.ErrRejected))
	})
}

func TestProductRepository_FindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "Runner"},
			{Key: "category", Value: "shoes"},
			{Key: "price", Value: int32(120)},
		}))

		p, err := newMockRepo(mt).FindByID(context.Background(), id.Hex())
		require.NoError(mt, err)
		require.NotNil(mt, p)
		assert.Equal(mt, id.Hex(), p.ID)
		assert.Equal(mt, "Runner", p.Title)
	})

	mt.Run("missing returns nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		p, err := newMockRepo(mt).FindByID(context.Background(), primitive.NewObjectID().Hex())
		assert.NoError(mt, err)
		assert.Nil(mt, p)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		p, err := newMockRepo(mt).FindByID(context.Background(), "not-an-object-id")
		assert.True(mt, errors.Is(err, domain.ErrInvalidID), "got %v", err)
		assert.Nil(mt, p)
	})
}

func TestProductRepository_UpdateByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	title := "Trail Runner"

	mt.Run("matched", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(1)},
		))

		err := newMockRepo(mt).UpdateByID(context.Background(), primitive.NewObjectID().Hex(), domain.ProductPatch{Title: &title})
		assert.NoError(mt, err)
	})

	mt.Run("matched without change", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		err := newMockRepo(mt).UpdateByID(context.Background(), primitive.NewObjectID().Hex(), domain.ProductPatch{Title: &title})
		assert.NoError(mt, err)
	})

	mt.Run("unmatched is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		err := newMockRepo(mt).UpdateByID(context.Background(), primitive.NewObjectID().Hex(), domain.ProductPatch{Title: &title})
		assert.True(mt, errors.Is(err, domain.ErrNotFound), "got %v", err)
	})

	mt.Run("empty patch on existing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int32(1)},
			{Key: "n", Value: int64(1)},
		}))

		err := newMockRepo(mt).UpdateByID(context.Background(), primitive.NewObjectID().Hex(), domain.ProductPatch{})
		assert.NoError(mt, err)
	})

	mt.Run("empty patch on missing document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		err := newMockRepo(mt).UpdateByID(context.Background(), primitive.NewObjectID().Hex(), domain.ProductPatch{})
		assert.True(mt, errors.Is(err, domain.ErrNotFound), "got %v", err)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		err := newMockRepo(mt).UpdateByID(context.Background(), "xyz", domain.ProductPatch{Title: &title})
		assert.True(mt, errors.Is(err, domain.ErrInvalidID), "got %v", err)
	})
}

func TestProductRepository_DeleteByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))

		err := newMockRepo(mt).DeleteByID(context.Background(), primitive.NewObjectID().Hex())
		assert.NoError(mt, err)
	})

	mt.Run("missing is not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		err := newMockRepo(mt).DeleteByID(context.Background(), primitive.NewObjectID().Hex())
		assert.True(mt, errors.Is(err, domain.ErrNotFound), "got %v", err)
	})

	mt.Run("malformed id", func(mt *mtest.T) {
		err := newMockRepo(mt).DeleteByID(context.Background(), "")
		assert.True(mt, errors.Is(err, domain.ErrInvalidID), "got %v", err)
	})
}
