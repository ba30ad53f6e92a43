package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/library-server/internal/logger"
	"github.com/listenupapp/library-server/internal/search"
	"github.com/listenupapp/library-server/internal/service"
)

// ProvideSearchIndex provides the in-memory Bleve book index.
func ProvideSearchIndex(i do.Injector) (*search.BookIndex, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return search.NewBookIndex(log.Logger)
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	index := do.MustInvoke[*search.BookIndex](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(index, storeHandle.Repository, log.Logger), nil
}

// RebuildSearchIndex loads every stored book into the index.
// The index lives in memory, so this runs on every boot before serving.
func RebuildSearchIndex(i do.Injector) error {
	searchService := do.MustInvoke[*service.SearchService](i)
	index := do.MustInvoke[*search.BookIndex](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := searchService.Rebuild(context.Background()); err != nil {
		return err
	}

	count, _ := index.DocumentCount()
	log.Info("Search index built", "documents", count)
	return nil
}
