package memory

import (
	"context"
	"path/filepath"
	"testing"
)

const sqliteTestPrefix = "memory:sqlite_test"

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "context.db"))
	if err != nil {
		t.Fatalf("%s - failed to open store: %v", sqliteTestPrefix, err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storeN(t *testing.T, store *SQLiteStore, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		req := map[string]any{
			"module":  "echo",
			"intent":  "go",
			"user_id": userID,
			"data":    map[string]any{"seq": i},
		}
		resp := map[string]any{"status": "success", "message": "", "result": map[string]any{"seq": i}}
		if err := store.StoreInteraction(context.Background(), userID, req, resp); err != nil {
			t.Fatalf("%s - store %d failed: %v", sqliteTestPrefix, i, err)
		}
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	storeN(t, store, "u1", 1)

	items, err := store.GetUserHistory(context.Background(), "u1")
	if err != nil {
		t.Fatalf("%s - history failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != 1 {
		t.Fatalf("%s - got %d items, want 1", sqliteTestPrefix, len(items))
	}
	it := items[0]
	if it.UserID != "u1" || it.Module != "echo" || it.Intent != "go" {
		t.Errorf("%s - unexpected record: %+v", sqliteTestPrefix, it)
	}
	if it.Request["module"] != "echo" {
		t.Errorf("%s - request payload lost: %v", sqliteTestPrefix, it.Request)
	}
	if it.Response["status"] != "success" {
		t.Errorf("%s - response payload lost: %v", sqliteTestPrefix, it.Response)
	}
	if it.Timestamp.IsZero() {
		t.Errorf("%s - timestamp not stored", sqliteTestPrefix)
	}
}

func TestSQLiteStore_ContextLimitNewestFirst(t *testing.T) {
	store := openTestStore(t)
	storeN(t, store, "u1", 5)

	items, err := store.GetContext(context.Background(), "u1", DefaultContextLimit)
	if err != nil {
		t.Fatalf("%s - context failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != DefaultContextLimit {
		t.Fatalf("%s - got %d items, want %d", sqliteTestPrefix, len(items), DefaultContextLimit)
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID <= items[i].ID {
			t.Errorf("%s - items not newest first: %d then %d", sqliteTestPrefix, items[i-1].ID, items[i].ID)
		}
	}
	// Newest record carries the highest sequence number.
	result := items[0].Response["result"].(map[string]any)
	if result["seq"] != float64(4) {
		t.Errorf("%s - newest seq = %v, want 4", sqliteTestPrefix, result["seq"])
	}
}

func TestSQLiteStore_HistoryUnbounded(t *testing.T) {
	store := openTestStore(t)
	storeN(t, store, "u1", 7)

	items, err := store.GetUserHistory(context.Background(), "u1")
	if err != nil {
		t.Fatalf("%s - history failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != 7 {
		t.Errorf("%s - got %d items, want 7", sqliteTestPrefix, len(items))
	}
}

func TestSQLiteStore_UserIsolation(t *testing.T) {
	store := openTestStore(t)
	storeN(t, store, "u1", 2)
	storeN(t, store, "u2", 3)

	items, err := store.GetUserHistory(context.Background(), "u1")
	if err != nil {
		t.Fatalf("%s - history failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != 2 {
		t.Errorf("%s - got %d items for u1, want 2", sqliteTestPrefix, len(items))
	}
	for _, it := range items {
		if it.UserID != "u1" {
			t.Errorf("%s - foreign record leaked: %+v", sqliteTestPrefix, it)
		}
	}
}

func TestSQLiteStore_UnknownUserEmpty(t *testing.T) {
	store := openTestStore(t)

	items, err := store.GetContext(context.Background(), "nobody", 3)
	if err != nil {
		t.Fatalf("%s - context failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != 0 {
		t.Errorf("%s - got %d items, want 0", sqliteTestPrefix, len(items))
	}
}

func TestSQLiteStore_ZeroLimitUsesDefault(t *testing.T) {
	store := openTestStore(t)
	storeN(t, store, "u1", 5)

	items, err := store.GetContext(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("%s - context failed: %v", sqliteTestPrefix, err)
	}
	if len(items) != DefaultContextLimit {
		t.Errorf("%s - got %d items, want default %d", sqliteTestPrefix, len(items), DefaultContextLimit)
	}
}
