package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/sma-lab/smactl/internal/checkpoint"
	"github.com/sma-lab/smactl/internal/checkpoint/storetest"
)

func TestFileStore_Contract(t *testing.T) {
	store := checkpoint.NewFileStore(filepath.Join(t.TempDir(), "runs"))
	storetest.RunStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := checkpoint.NewFileStore("")
	if store.BasePath != filepath.Join(".smactl", "runs") {
		t.Errorf("unexpected default path: %s", store.BasePath)
	}
}
