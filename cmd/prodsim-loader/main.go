// Catalog ingest pipeline for prodsim.
// Reads product and embedding parquet exports and loads them into Redis
// as the hashes the API serves from. Parallel workers, Prometheus metrics.
//
// Usage:
//
//	prodsim-loader -products products.parquet -embeddings embeddings.parquet -workers 8
//
// Env vars:
//
//	REDIS_ADDR     — Redis address (default: localhost:6379)
//	REDIS_PASSWORD — Redis password
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	dbRedis "github.com/shopsight/prodsim/internal/db/redis"
	embeddingrepo "github.com/shopsight/prodsim/internal/repository/embedding"
	productrepo "github.com/shopsight/prodsim/internal/repository/product"
)

func main() {
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGTERM, syscall.SIGINT,
	)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		cancel()
		log.Fatal(err)
	}
}

type config struct {
	productsPath   string
	embeddingsPath string
	keyPrefix      string
	workers        int
	batchSize      int
	maxRows        int
	metricsPort    string
	skipIndex      bool
	recreateIndex  bool
}

func parseFlags() config {
	cfg := config{}
	flag.StringVar(&cfg.productsPath, "products", "", "products parquet file (optional)")
	flag.StringVar(&cfg.embeddingsPath, "embeddings", "", "embeddings parquet file (optional)")
	flag.StringVar(&cfg.keyPrefix, "key-prefix", "prodsim:", "Redis key namespace")
	flag.IntVar(&cfg.workers, "workers", 8, "number of parallel upsert workers")
	flag.IntVar(&cfg.batchSize, "batch-size", 200, "rows per batch upsert")
	flag.IntVar(&cfg.maxRows, "max-rows", 0, "max rows per file (0=unlimited)")
	flag.StringVar(&cfg.metricsPort, "metrics-port", "9090", "Prometheus metrics port")
	flag.BoolVar(&cfg.skipIndex, "skip-index", false, "do not create the catalog search index")
	flag.BoolVar(&cfg.recreateIndex, "recreate-index", false, "drop and rebuild the catalog search index")
	flag.Parse()
	return cfg
}

func run(ctx context.Context, cfg config) error {
	if cfg.productsPath == "" && cfg.embeddingsPath == "" {
		return fmt.Errorf("at least one of -products or -embeddings is required")
	}

	start := time.Now()

	reg := prometheus.NewRegistry()
	metrics := newLoaderMetrics(reg)
	metricsSrv := serveMetrics(cfg.metricsPort, reg)
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = metricsSrv.Shutdown(shutCtx)
	}()

	store, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	products := productrepo.New(store, cfg.keyPrefix)
	embeddings := embeddingrepo.New(store, cfg.keyPrefix)

	if cfg.productsPath != "" {
		result, err := loadProducts(ctx, cfg, products, metrics)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		log.Printf("products: %d loaded, %d failed in %s",
			result.Processed, result.Failed, result.Duration.Round(time.Second))
	}

	if cfg.embeddingsPath != "" {
		result, err := loadEmbeddings(ctx, cfg, embeddings, metrics)
		if err != nil {
			return fmt.Errorf("load embeddings: %w", err)
		}
		log.Printf("embeddings: %d loaded, %d failed in %s",
			result.Processed, result.Failed, result.Duration.Round(time.Second))
	}

	if !cfg.skipIndex && cfg.productsPath != "" {
		ensure := products.EnsureIndex
		if cfg.recreateIndex {
			ensure = products.RecreateIndex
		}
		if err := ensure(ctx); err != nil {
			return fmt.Errorf("ensure catalog index: %w", err)
		}
		if n, err := products.Count(ctx); err == nil {
			log.Printf("catalog search index ready, %d products indexed", n)
		} else {
			log.Printf("catalog search index ready (count unavailable: %v)", err)
		}
	}

	log.Printf("done in %s", time.Since(start).Round(time.Second))
	return nil
}

func connectRedis(ctx context.Context) (*dbRedis.Store, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    []string{addr},
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	log.Printf("connected to Redis at %s", addr)
	return store, nil
}
