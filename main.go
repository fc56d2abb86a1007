package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipebox/auth"
	"recipebox/config"
	"recipebox/db"
	"recipebox/logging"
	"recipebox/mq"
	"recipebox/ratelim"
	"recipebox/rdx"
	"recipebox/routes"
	"recipebox/seed"
	"recipebox/store"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := &cli.Command{
		Name:  "recipebox",
		Usage: "Recipe catalog API",
		Commands: []*cli.Command{
			serveCmd(),
			seedCmd(),
		},
	}
	err := cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("recipebox failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Keep the catalog in process memory instead of MongoDB",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			return serve(ctx, cfg, cmd.Bool("memory"))
		},
	}
}

func seedCmd() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Load the bundled ingredients and units into an empty database",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "recipes",
				Usage: "Also replace every recipe with the bundled set",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer closeStore()

			ds, err := seed.Load(cfg.SeedFile)
			if err != nil {
				return err
			}
			cache := rdx.New(cfg.RedisAddr, cfg.RedisPassword)
			defer cache.Close()

			loader := &seed.Loader{Store: st, Data: ds, Cache: cache}
			if err := loader.SeedIngredients(ctx); err != nil {
				return err
			}
			if cmd.Bool("recipes") {
				if _, err := loader.ReloadRecipes(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.LogLevel)
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.Config, memory bool) (*store.Store, func(), error) {
	if memory {
		slog.Info("using in-memory store")
		return store.NewMemory(), func() {}, nil
	}

	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	d, err := db.Connect(cctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, nil, err
	}
	if err := d.EnsureIndexes(cctx); err != nil {
		_ = d.Close(context.Background())
		return nil, nil, err
	}
	closeStore := func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.Close(sctx); err != nil {
			slog.Warn("mongodb disconnect", "error", err)
		}
	}
	return store.NewMongo(d), closeStore, nil
}

func serve(ctx context.Context, cfg *config.Config, memory bool) error {
	st, closeStore, err := openStore(ctx, cfg, memory)
	if err != nil {
		return err
	}
	defer closeStore()

	cache := rdx.New(cfg.RedisAddr, cfg.RedisPassword)
	defer cache.Close()
	if cache.Enabled() {
		if err := cache.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, facet lookups go to the store", "addr", cfg.RedisAddr, "error", err)
		}
	}

	hub := mq.NewHub()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if !tokens.Enabled() {
		slog.Warn("JWT_SECRET is empty, login will not issue tokens")
	}

	var loader *seed.Loader
	if ds, err := seed.Load(cfg.SeedFile); err != nil {
		slog.Warn("seed data unavailable, /initRecipes disabled", "error", err)
	} else {
		loader = &seed.Loader{Store: st, Data: ds, Cache: cache, Events: hub}
		if err := loader.SeedIngredients(ctx); err != nil {
			return err
		}
	}

	limiter := ratelim.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	handler := routes.NewRouter(routes.Deps{
		Store:        st,
		Cache:        cache,
		Events:       hub,
		Limiter:      limiter,
		Tokens:       tokens,
		Seed:         loader,
		UploadDir:    cfg.UploadDir,
		StoreTimeout: cfg.StoreTimeout,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	server.RegisterOnShutdown(hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, shutting down gracefully")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		slog.Info("server stopped cleanly")
		return nil
	})
	return g.Wait()
}
