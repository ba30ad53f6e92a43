package providers

import (
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/library-server/internal/config"
	"github.com/listenupapp/library-server/internal/logger"
	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/store/sqlite"
)

// StoreHandle wraps the repository with shutdown capability.
type StoreHandle struct {
	store.Repository
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the repository selected by the store driver.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		repo   store.Repository
		dbPath string
		err    error
	)

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		dbPath = filepath.Join(cfg.Storage.DataPath, "library.db")
		repo, err = sqlite.Open(dbPath, log.Logger)
	case config.DriverBadger:
		dbPath = filepath.Join(cfg.Storage.DataPath, "db")
		repo, err = store.New(dbPath, log.Logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", dbPath)

	return &StoreHandle{Repository: repo}, nil
}
