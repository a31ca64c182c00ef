//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/mltrack/mltrack/internal/gateway"
	"github.com/mltrack/mltrack/pkg/app/builders"
)

// wire up the dependencies.
func InitializeDependencies() (*dependencies, error) {
	wire.Build(builders.Builders,
		gateway.NewConfigFromEnv, gateway.NewResolver, gateway.NewLoadedModel,
		gateway.NewZapLogger, gateway.NewAPI,
		newServers, newDependencies)
	return &dependencies{}, nil
}
