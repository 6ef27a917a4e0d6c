package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/limeview/internal/api"
	"github.com/samcharles93/limeview/internal/logger"
	"github.com/samcharles93/limeview/internal/registry"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve registered captures over a REST API",
		ArgsUsage: "[file.lime ...]",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyLoggingConfig(c, cfg)
			applyServeConfig(c, cfg, &addr)
			log := newLogger()
			ctx = logger.WithContext(ctx, log)

			reg := registry.New(log)
			defer func() { _ = reg.CloseAll() }()

			// Captures named on the command line are stacked up front so
			// the API starts out populated.
			for _, path := range c.Args().Slice() {
				entry, err := reg.Stack(path)
				if err != nil {
					return err
				}
				log.Info("preloaded capture", "name", entry.Name, "path", path)
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			api.NewServer(reg, log).Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
