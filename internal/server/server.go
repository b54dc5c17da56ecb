package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/oilfield/internal/config"
	obslogger "github.com/smallbiznis/oilfield/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/oilfield/internal/observability/metrics"
	obstracing "github.com/smallbiznis/oilfield/internal/observability/tracing"
	"github.com/smallbiznis/oilfield/internal/tank"
	tankdomain "github.com/smallbiznis/oilfield/internal/tank/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	tank.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log, obslogger.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	tankSvc tankdomain.Service
}

type ServerParams struct {
	fx.In

	Gin     *gin.Engine
	Cfg     config.Config
	TankSvc tankdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:  p.Gin,
		cfg:     p.Cfg,
		tankSvc: p.TankSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Tanks --------
	api.POST("/tanks", s.CreateTank)
	api.GET("/tanks/:id", s.GetTank)
	api.PATCH("/tanks/:id", s.UpdateTank)
	api.PUT("/tanks/:id/wells", s.AttachWells)
	api.GET("/tanks/:id/connected", s.ConnectedTanks)

	// -------- Wells --------
	api.POST("/wells", s.CreateWell)

	// -------- Readings --------
	api.PUT("/tanks/:id/readings", s.SaveReading)
	api.GET("/tanks/:id/readings/relevant", s.RelevantReadings)
	api.GET("/tanks/:id/cumulative", s.TankCumulative)
	api.DELETE("/readings/:id", s.DeleteReading)
	api.GET("/readings/:id/cumulative", s.ReadingCumulative)

	// -------- Run Tickets --------
	api.PUT("/tanks/:id/run-tickets", s.SaveRunTicket)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
