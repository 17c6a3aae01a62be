//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/uniedit/filelink/internal/domain/filelink"
	"github.com/uniedit/filelink/internal/shared/config"
)

// InitializeFileLink builds the filelink domain for command line use.
func InitializeFileLink(ctx context.Context, cfg *config.Config) (*filelink.Domain, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}

// InitializeApp builds the HTTP application.
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(AppSet, HTTPSet)
	return nil, nil, nil
}
