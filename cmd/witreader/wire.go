//go:build wireinject
// +build wireinject

package main

import (
	"context"
	"io"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/tamzrod/witmotion-modbus/internal/config"
)

func InitApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, stdout io.Writer) (*App, func(), error) {
	wire.Build(
		NewApp,
		ProvideSessionOptions,
		ProvideSession,
		ProvideWriters,
		ProvideTracker,
	)
	return nil, nil, nil // wire will generate the result
}
