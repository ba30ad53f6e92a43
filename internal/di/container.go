// Package di provides dependency injection configuration for the library server.
package di

import (
	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/config"
	"github.com/listenupapp/library-server/internal/di/providers"
	"github.com/listenupapp/library-server/internal/logger"
	"github.com/listenupapp/library-server/internal/ratelimit"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Events
	do.Provide(injector, providers.ProvideBroker)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideAuthorService)
	do.Provide(injector, providers.ProvideBookService)

	// GraphQL
	do.Provide(injector, providers.ProvideSchema)
	do.Provide(injector, providers.ProvideSSEHandler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services, rebuilds the search index and starts
// the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*search.BookIndex](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*providers.BrokerHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.AuthorService](injector)
	_ = do.MustInvoke[*service.BookService](injector)

	// GraphQL
	_ = do.MustInvoke[*graphql.Schema](injector)
	_ = do.MustInvoke[*providers.SSEHandle](injector)

	if err := providers.RebuildSearchIndex(injector); err != nil {
		return err
	}

	server, err := do.Invoke[*providers.HTTPServerHandle](injector)
	if err != nil {
		return err
	}
	server.Start()

	return nil
}

// Shutdown ends open subscriptions before stopping the HTTP server, which
// would otherwise wait on them, then releases everything else.
func Shutdown(injector *do.RootScope) error {
	if broker, err := do.Invoke[*providers.BrokerHandle](injector); err == nil {
		_ = broker.Shutdown()
	}
	if streams, err := do.Invoke[*providers.SSEHandle](injector); err == nil {
		_ = streams.Shutdown()
	}

	if report := injector.Shutdown(); report != nil && !report.Succeed {
		return report
	}
	return nil
}
