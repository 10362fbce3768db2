// Package container wires the application's dependencies together.
package container

import (
	"campwatch/internal/app"
	"campwatch/internal/config"
	"campwatch/internal/db"
	"campwatch/internal/handler"
	"campwatch/internal/httpclient"
	"campwatch/internal/notify"
	"campwatch/internal/parks"
	"campwatch/internal/router"
	"campwatch/internal/scanner"
	"campwatch/internal/store"

	"go.uber.org/dig"
)

// BuildContainer creates and configures the dependency injection container.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		// Configuration and infrastructure
		config.NewManager,
		config.NewSystemSettingsManager,
		db.NewDB,
		httpclient.NewHTTPClientManager,
		func() store.Store { return store.NewMemoryStore() },

		// Upstream reservation system client
		parks.NewClient,

		// Notification delivery
		notify.NewTwilioClient,
		func(t *notify.TwilioClient) notify.SMSSender { return t },
		notify.NewEmailClient,
		func(e *notify.EmailClient) notify.EmailSender { return e },
		notify.NewDispatcher,

		// Scan service
		scanner.NewScanner,

		// HTTP layer
		handler.NewServer,
		router.NewRouter,

		// Application
		app.NewApp,
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}
