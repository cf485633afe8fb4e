package main

import (
	"context"
	"fmt"
	"product-service/config"
	"product-service/internal/domain"
	"product-service/internal/repository/memory"
	mongorepo "product-service/internal/repository/mongo"
	pgrepo "product-service/internal/repository/postgres"
	"product-service/pkg/logger"
)

// openStore connects the configured product store. The returned func
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (domain.ProductRepository, func(context.Context), error) {
	log := logger.Get()

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := mongorepo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("database", cfg.MongoDatabase).Str("collection", cfg.MongoCollection).Msg("Connected to MongoDB")
		closeFn := func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error().Err(err).Msg("MongoDB disconnect failed")
			}
		}
		return mongorepo.NewProductRepository(client, cfg.MongoDatabase, cfg.MongoCollection), closeFn, nil

	case config.StorePostgres:
		pool, err := pgrepo.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info().Msg("Successfully connected to PostgreSQL via pgx")
		return pgrepo.NewProductRepository(pool), func(context.Context) { pool.Close() }, nil

	case config.StoreMemory:
		log.Warn().Msg("Using in-memory product store; data is lost on restart")
		return memory.NewProductRepository(), func(context.Context) {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
