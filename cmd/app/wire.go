//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/outdoor-planner/internal/bootstrap"
	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/planner"
	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/internal/infra/config"
	"github.com/yanqian/outdoor-planner/internal/infra/forecastcache"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/tokens"
	"github.com/yanqian/outdoor-planner/internal/infra/openmeteo"
	httpiface "github.com/yanqian/outdoor-planner/internal/interface/http"
	"github.com/yanqian/outdoor-planner/pkg/logger"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		provideForecastConfig,
		provideOpenMeteoClient,
		provideDurableCache,
		provideFallbackCache,
		provideStateRepository,
		provideChatClient,
		provideTokenCounter,
		providePlannerConfig,
		forecast.NewService,
		userstate.NewService,
		planner.NewService,
		wire.Bind(new(forecast.Provider), new(*openmeteo.Client)),
		wire.Bind(new(forecast.FallbackCache), new(*forecastcache.MemoryCache)),
		wire.Bind(new(planner.TokenCounter), new(*tokens.Counter)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
