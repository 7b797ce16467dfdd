//go:build integration

package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/morezero/bridge-gateway/pkg/memory"
)

const integrationTestPrefix = "tests:integration_test"

// Integration tests use DATABASE_URL (e.g. .../gateway_test on platform
// Postgres) and apply the migrations from ../migrations before each run.

func docStore(t *testing.T, ctx context.Context) *memory.DocStore {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skipf("%s - DATABASE_URL not set, skipping", integrationTestPrefix)
	}

	store, err := memory.NewDocStore(ctx, url)
	if err != nil {
		t.Fatalf("%s - failed to connect document store: %v", integrationTestPrefix, err)
	}
	t.Cleanup(store.Close)

	migrationSQL, err := memory.LoadMigrationFiles("../migrations")
	if err != nil {
		t.Fatalf("%s - failed to load migrations: %v", integrationTestPrefix, err)
	}
	if err := memory.RunMigrations(ctx, store.Pool(), migrationSQL); err != nil {
		t.Fatalf("%s - failed to run migrations: %v", integrationTestPrefix, err)
	}
	if err := memory.ClearInteractions(ctx, store.Pool()); err != nil {
		t.Fatalf("%s - failed to clear interactions: %v", integrationTestPrefix, err)
	}

	return store
}

func TestIntegration_DocStoreRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store := docStore(t, ctx)

	req := map[string]any{
		"module":  "sample_text",
		"intent":  "analyze",
		"user_id": "int-u1",
		"data":    map[string]any{"text": "hello world"},
	}
	resp := map[string]any{"status": "success", "message": "", "result": map[string]any{"word_count": 2}}
	if err := store.StoreInteraction(ctx, "int-u1", req, resp); err != nil {
		t.Fatalf("%s - store failed: %v", integrationTestPrefix, err)
	}

	items, err := store.GetUserHistory(ctx, "int-u1")
	if err != nil {
		t.Fatalf("%s - history failed: %v", integrationTestPrefix, err)
	}
	if len(items) != 1 {
		t.Fatalf("%s - got %d items, want 1", integrationTestPrefix, len(items))
	}
	it := items[0]
	if it.Module != "sample_text" || it.Intent != "analyze" {
		t.Errorf("%s - unexpected record: %+v", integrationTestPrefix, it)
	}
	result, _ := it.Response["result"].(map[string]any)
	if result["word_count"] != float64(2) {
		t.Errorf("%s - word_count = %v, want 2", integrationTestPrefix, result["word_count"])
	}
}

func TestIntegration_DocStoreContextLimit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store := docStore(t, ctx)

	for i := 0; i < 5; i++ {
		req := map[string]any{"module": "echo", "intent": "go", "data": map[string]any{"seq": i}}
		resp := map[string]any{"status": "success"}
		if err := store.StoreInteraction(ctx, "int-u2", req, resp); err != nil {
			t.Fatalf("%s - store %d failed: %v", integrationTestPrefix, i, err)
		}
	}

	items, err := store.GetContext(ctx, "int-u2", memory.DefaultContextLimit)
	if err != nil {
		t.Fatalf("%s - context failed: %v", integrationTestPrefix, err)
	}
	if len(items) != memory.DefaultContextLimit {
		t.Fatalf("%s - got %d items, want %d", integrationTestPrefix, len(items), memory.DefaultContextLimit)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID <= items[i].ID {
			t.Errorf("%s - items not newest first", integrationTestPrefix)
		}
	}
}

func TestIntegration_DocStoreUserIsolation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store := docStore(t, ctx)

	reqA := map[string]any{"module": "echo", "intent": "go"}
	resp := map[string]any{"status": "success"}
	if err := store.StoreInteraction(ctx, "int-a", reqA, resp); err != nil {
		t.Fatalf("%s - store failed: %v", integrationTestPrefix, err)
	}
	if err := store.StoreInteraction(ctx, "int-b", reqA, resp); err != nil {
		t.Fatalf("%s - store failed: %v", integrationTestPrefix, err)
	}

	items, err := store.GetUserHistory(ctx, "int-a")
	if err != nil {
		t.Fatalf("%s - history failed: %v", integrationTestPrefix, err)
	}
	for _, it := range items {
		if it.UserID != "int-a" {
			t.Errorf("%s - foreign record leaked: %+v", integrationTestPrefix, it)
		}
	}
}
