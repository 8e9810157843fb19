package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Yulian302/lfusys-services-crmrelay/config"
	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/metrics"
	"github.com/Yulian302/lfusys-services-crmrelay/tracing"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/trace"
)

type App struct {
	Server *http.Server

	Sqs *sqs.Client

	Config    config.Config
	AwsConfig aws.Config

	Registry *prometheus.Registry
	Metrics  *metrics.PrometheusObserver

	Services       *Services
	TracerProvider *trace.TracerProvider
	Logger         logging.Logger
}

func SetupApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logging.NewZerologLogger(logging.CreateAppLogger(cfg.Env))

	registry := prometheus.NewRegistry()
	observer, err := metrics.NewPrometheusObserver(cfg.ServiceConfig.MetricsNamespace, registry)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Registry: registry,
		Metrics:  observer,
		Logger:   appLogger,
	}

	if cfg.ServiceConfig.SQSNotify {
		awsCfg, err := initAWS(cfg.AWSConfig)
		if err != nil {
			return nil, err
		}

		sqs := initSqs(awsCfg)
		if sqs == nil {
			return nil, errors.New("could not init sqs")
		}

		app.AwsConfig = awsCfg
		app.Sqs = sqs
	}

	if cfg.Tracing {
		tp, err := tracing.InitTracer(context.Background(), "crm-relay", cfg.TracingAddr)
		if err != nil {
			return nil, fmt.Errorf("tracing start failed: %w", err)
		}
		app.Logger.Info("tracing in progress...")

		app.TracerProvider = tp
	}

	app.Services = BuildServices(app)

	return app, nil
}

func (a *App) Run(r *gin.Engine) error {
	a.Server = &http.Server{
		Addr:    a.Config.RelayAddr,
		Handler: r,
	}

	a.Logger.Info("relay listening", "addr", a.Config.RelayAddr)
	return a.Server.ListenAndServe()
}

func initAWS(cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func initSqs(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("starting graceful shutdown")

	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Logger.Error("http server shutdown failed", "err", err.Error())
		}
	}

	if a.Services != nil {
		if err := a.Services.Shutdown(ctx); err != nil {
			a.Logger.Error("services shutdown failed", "err", err.Error())
		}
	}

	if a.TracerProvider != nil {
		if err := a.TracerProvider.Shutdown(ctx); err != nil {
			a.Logger.Error("tracer shutdown failed", "err", err.Error())
		}
	}

	a.Logger.Info("graceful shutdown complete")
	return nil
}
