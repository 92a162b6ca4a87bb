package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/inkhorn/inkhorn/internal/api"
	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/internal/trainer"
	"github.com/inkhorn/inkhorn/pkg/slm"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the model over a REST API",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, LoadConfig(), &addr)

			store := api.NewModelStore()
			model, err := slm.Load(modelPath)
			switch {
			case err == nil:
				store.Swap(model, trainer.Stats{})
				log.Info("model loaded",
					"path", modelPath,
					"order", model.Order(),
					"vocabulary", model.Vocab.Size())
			case errors.Is(err, fs.ErrNotExist):
				log.Warn("no model file yet, serving untrained fallback", "path", modelPath)
			default:
				return err
			}

			server := api.NewServer(store, log, api.WithPersistPath(modelPath))
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
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
