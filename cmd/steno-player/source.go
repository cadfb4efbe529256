package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwulff/steno/player/internal/config"
	"github.com/jwulff/steno/player/internal/daemon"
	"github.com/jwulff/steno/player/internal/db"
	"github.com/jwulff/steno/player/internal/source"
)

const httpTimeout = 15 * time.Second

// openSource builds the configured transcript source, wrapped in the Redis
// cache when one is configured. The returned close func releases everything.
func openSource(ctx context.Context, c *config.Config) (source.Source, func() error, error) {
	var (
		src     source.Source
		closers []func() error
	)

	switch c.Source.Kind {
	case config.SourceSQLite:
		store, err := db.Open(c.Source.DBPath)
		if err != nil {
			return nil, nil, err
		}
		src = store
		closers = append(closers, store.Close)

	case config.SourceDaemon:
		client, err := daemon.Connect(c.Source.SocketPath)
		if err != nil {
			return nil, nil, err
		}
		src = client
		closers = append(closers, client.Close)

	case config.SourceHTTP:
		src = source.NewHTTP(c.Source.HTTPURL, &http.Client{Timeout: httpTimeout})

	default:
		return nil, nil, fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}

	if c.Cache.RedisAddr != "" {
		cached, err := source.ConnectCache(ctx, src, c.Cache.RedisAddr, c.Cache.TTL)
		if err != nil {
			// The cache is optional; play straight from the source.
			slog.Warn("transcript cache unavailable", "addr", c.Cache.RedisAddr, "err", err)
		} else {
			src = cached
			closers = append(closers, cached.Close)
		}
	}

	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	return src, closeAll, nil
}
