package main

import (
	"context"
	"fmt"

	"github.com/Yulian302/lfusys-services-crmrelay/crm"
	"github.com/Yulian302/lfusys-services-crmrelay/logging"
	"github.com/Yulian302/lfusys-services-crmrelay/queues"
	"github.com/Yulian302/lfusys-services-crmrelay/services"
)

type Services struct {
	Relay       services.RelayService
	RelayNotify queues.RelayNotify
	CRM         crm.Client

	logger logging.Logger
}

type Shutdowner interface {
	Shutdown(context.Context) error
}

func BuildServices(app *App) *Services {
	var relayNotify queues.RelayNotify = queues.NopRelayNotify{}
	if app.Sqs != nil {
		relayNotify = queues.NewSQSRelayNotify(
			app.Sqs,
			app.Config.AWSConfig.Region,
			app.Config.AWSConfig.AccountID,
			app.Config.ServiceConfig.RelayNotificationsQueueName,
			app.Logger,
		)
	}

	crmClient := crm.NewRestClient(app.Config.CRMConfig.Timeout, app.Metrics)
	relayService := services.NewRelayServiceImpl(crmClient, relayNotify, app.Metrics, app.Logger)

	app.Logger.Info("relay services initialized successfully",
		"sqs_notify", app.Sqs != nil,
		"crm_timeout", app.Config.CRMConfig.Timeout.String(),
	)

	return &Services{
		Relay:       relayService,
		RelayNotify: relayNotify,
		CRM:         crmClient,

		logger: app.Logger,
	}
}

func (s *Services) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down services")

	shutdownIfPossible := func(name string, v any) {
		if sh, ok := v.(Shutdowner); ok {
			if err := sh.Shutdown(ctx); err != nil {
				s.logger.Error(fmt.Sprintf("%s shutdown failed", name), "err", err.Error())
			}
		}
	}

	shutdownIfPossible("crm client", s.CRM)
	shutdownIfPossible("relay notify", s.RelayNotify)

	s.logger.Info("services shutdown complete")
	return nil
}
