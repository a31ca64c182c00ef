//go:build wireinject
// +build wireinject

package lsql

import (
	"github.com/google/wire"
	ltest "github.com/mltrack/mltrack/pkg/test"
)

func initializeTest(t ltest.T) (*Instance, error) {
	wire.Build(
		TestingWireSet,
	)
	return &Instance{}, nil
}
