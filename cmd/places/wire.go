package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/adeilh/go-places/cache"
	cachememory "github.com/adeilh/go-places/cache/memory"
	cacheredis "github.com/adeilh/go-places/cache/redis"
	"github.com/adeilh/go-places/config"
	"github.com/adeilh/go-places/db/sql/docsql"
	"github.com/adeilh/go-places/db/sql/postgres"
	"github.com/adeilh/go-places/db/sql/sqlite"
	"github.com/adeilh/go-places/lookup"
	"github.com/adeilh/go-places/lookup/google"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/repository"
	"github.com/adeilh/go-places/service"
	"github.com/adeilh/go-places/store"
	storememory "github.com/adeilh/go-places/store/memory"
)

// components holds everything a command needs, built from one Config.
type components struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	places   *service.Places
	recipes  *service.Recipes
	comments *service.Comments
	caches   map[string]*cache.Cache

	closers []func() error
}

func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// opener builds a store.Collection for a schema.
type opener struct {
	db     *sql.DB
	driver string
	opts   []docsql.Option
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger, reg prometheus.Registerer) (*opener, error) {
	collections := []string{
		record.PlaceSchema.Collection,
		record.RecipeSchema.Collection,
		record.CommentSchema.Collection,
	}
	o := &opener{driver: cfg.Driver}
	switch cfg.Driver {
	case "memory":
		return o, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, sqlite.Options{Path: cfg.DSN})
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(ctx, db, collections...); err != nil {
			_ = db.Close()
			return nil, err
		}
		o.db = db
	case "postgres":
		db, err := postgres.Open(postgres.WithDSN(cfg.DSN))
		if err != nil {
			return nil, err
		}
		if err := postgres.ApplyMigrations(ctx, db, postgres.Schema(collections...)...); err != nil {
			_ = db.Close()
			return nil, err
		}
		o.db = db
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	o.opts = []docsql.Option{docsql.WithLogger(logger), docsql.WithMetrics(docsql.NewMetrics(reg))}
	return o, nil
}

func collection[T any](o *opener, schema record.Schema[T]) store.Collection[T] {
	switch o.driver {
	case "sqlite":
		return sqlite.NewCollection(o.db, schema, o.opts...)
	case "postgres":
		return postgres.NewCollection(o.db, schema, o.opts...)
	default:
		return storememory.New(schema)
	}
}

func openCacheStore(cfg config.CacheConfig) (cache.Store, func() error) {
	switch cfg.Backend {
	case "redis":
		s := cacheredis.NewStore(cacheredis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return s, s.Close
	case "memory":
		return cachememory.NewStore(cachememory.Options{Capacity: cfg.Capacity, MaxTTL: cfg.TTL.Std()}), nil
	default:
		return nil, nil
	}
}

func records[T any](backend cache.Store, schema record.Schema[T], opts []cache.Option) (*cache.Records[T], *cache.Cache) {
	if backend == nil {
		return nil, nil
	}
	c := cache.New(backend, schema.Collection, opts...)
	return cache.NewRecords(c, schema), c
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*components, error) {
	reg := prometheus.NewRegistry()
	c := &components{logger: logger, registry: reg, caches: map[string]*cache.Cache{}}

	st, err := openStore(ctx, cfg.Store, logger, reg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if st.db != nil {
		c.closers = append(c.closers, st.db.Close)
	}

	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	backend, closeCache := openCacheStore(cfg.Cache)
	if closeCache != nil {
		c.closers = append(c.closers, closeCache)
	}
	cacheOpts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL.Std()),
		cache.WithCodec(codec),
		cache.WithLogger(logger),
		cache.WithMetrics(cache.NewMetrics(reg)),
	}

	placeCache, pc := records(backend, record.PlaceSchema, cacheOpts)
	recipeCache, rc := records(backend, record.RecipeSchema, cacheOpts)
	commentCache, mc := records(backend, record.CommentSchema, cacheOpts)
	for name, raw := range map[string]*cache.Cache{
		record.PlaceSchema.Collection:   pc,
		record.RecipeSchema.Collection:  rc,
		record.CommentSchema.Collection: mc,
	} {
		if raw != nil {
			c.caches[name] = raw
		}
	}

	repoOpts := []repository.Option{repository.WithLogger(logger)}
	places := repository.New(collection(st, record.PlaceSchema), placeCache, record.PlaceSchema, repoOpts...)
	recipes := repository.New(collection(st, record.RecipeSchema), recipeCache, record.RecipeSchema, repoOpts...)
	comments := repository.New(collection(st, record.CommentSchema), commentCache, record.CommentSchema, repoOpts...)

	var finder lookup.Finder
	if cfg.Google.APIKey != "" {
		g, err := google.New(google.Options{
			APIKey:     cfg.Google.APIKey,
			BaseURL:    cfg.Google.BaseURL,
			Timeout:    cfg.Google.Timeout.Std(),
			RetryCount: cfg.Google.RetryCount,
			Logger:     logger,
		})
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		finder = g
	} else {
		logger.Warn("GOOGLE_API_KEY is not set; adding places is disabled")
	}

	c.places = service.NewPlaces(places, finder, logger)
	c.recipes = service.NewRecipes(recipes)
	c.comments = service.NewComments(comments, places)
	return c, nil
}
