package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sharethoughts/courier/api"
	sc "github.com/sharethoughts/courier/clients"
	"github.com/sharethoughts/courier/infrastructure"
	"github.com/sharethoughts/courier/models"
	"github.com/sharethoughts/courier/templates"
)

var defaultStopTimeout = 60 * time.Second

// InboundConfig describes how to receive inbound communication
type InboundConfig struct {
	ListenAddress string `split_words:"true" required:"true"`
}

func serviceConfigProvider() (InboundConfig, error) {
	var config InboundConfig
	err := envconfig.Process("service", &config)
	if err != nil {
		return InboundConfig{}, err
	}
	return config, nil
}

func httpClientProvider() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

func authClientProvider(config infrastructure.Config, httpClient *http.Client) api.AuthClient {
	return infrastructure.NewAuthClient(config, httpClient)
}

func emailTemplateProvider() (models.Templates, error) {
	emailTemplates, err := templates.New()
	return emailTemplates, err
}

func serverProvider(config InboundConfig, rtr *mux.Router) *http.Server {
	return &http.Server{
		Addr:    config.ListenAddress,
		Handler: rtr,
	}
}

func loggerProvider() (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	config.EncoderConfig.FunctionKey = "function"
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// InvocationParams are the parameters need to kick off the service
type InvocationParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     InboundConfig
	Server     *http.Server
}

func startServer(p InvocationParams) {
	p.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := p.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Printf("Server error: %v", err)
						log.Printf("Shutting down the service")
						if shutdownErr := p.Shutdowner.Shutdown(); shutdownErr != nil {
							log.Printf("Failed to shutdown: %v", shutdownErr)
						}
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return p.Server.Shutdown(ctx)
			},
		},
	)
}

func main() {
	fx.New(
		sc.SesModule,
		sc.MongoModule,
		api.RouterModule,
		fx.Provide(
			infrastructure.ConfigProvider,
			authClientProvider,
			serviceConfigProvider,
			httpClientProvider,
			emailTemplateProvider,
			serverProvider,
			loggerProvider,
			api.NewApi,
		),
		fx.Invoke(startServer),
		fx.StopTimeout(defaultStopTimeout),
	).Run()
}
