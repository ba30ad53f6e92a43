package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/library-server/internal/auth"
	"github.com/listenupapp/library-server/internal/config"
	"github.com/listenupapp/library-server/internal/logger"
	"github.com/listenupapp/library-server/internal/pubsub"
	"github.com/listenupapp/library-server/internal/ratelimit"
	"github.com/listenupapp/library-server/internal/service"
)

// BrokerHandle wraps the pubsub broker with shutdown capability.
type BrokerHandle struct {
	*pubsub.Broker
}

// Shutdown implements do.Shutdownable.
func (h *BrokerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Broker.Shutdown(ctx)
}

// ProvideBroker provides the in-process pubsub broker.
func ProvideBroker(i do.Injector) (*BrokerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &BrokerHandle{Broker: pubsub.NewBroker(log.Logger, brokerBufferSize)}, nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Repository, tokenService, cfg.Auth.LoginSecret, limiter, log.Logger)
}

// ProvideAuthorService provides the author service.
func ProvideAuthorService(i do.Injector) (*service.AuthorService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthorService(storeHandle.Repository, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authors := do.MustInvoke[*service.AuthorService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	brokerHandle := do.MustInvoke[*BrokerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Repository, authors, searchService, brokerHandle.Broker, log.Logger), nil
}
