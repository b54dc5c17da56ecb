package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/oilfield/internal/clock"
	"github.com/smallbiznis/oilfield/internal/config"
	"github.com/smallbiznis/oilfield/internal/logger"
	"github.com/smallbiznis/oilfield/internal/migration"
	"github.com/smallbiznis/oilfield/internal/observability"
	"github.com/smallbiznis/oilfield/internal/server"
	"github.com/smallbiznis/oilfield/internal/tanklock"
	"github.com/smallbiznis/oilfield/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		tanklock.Module,

		// Tank API
		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
