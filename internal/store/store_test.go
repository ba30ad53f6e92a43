package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/library-server/internal/store"
	"github.com/listenupapp/library-server/internal/store/storetest"
)

func TestBadgerRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		s, err := store.New(filepath.Join(t.TempDir(), "library.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "Robert Martin", store.NormalizeName("  Robert Martin\t"))
	// "é" composed and decomposed.
	require.Equal(t, store.NormalizeName("Ren\u00e9"), store.NormalizeName("Rene\u0301"))
}
