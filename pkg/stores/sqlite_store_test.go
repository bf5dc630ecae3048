package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "prism-test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { store.Close() })
	return store
}

func testExecution(id, workflowID string) *Execution {
	now := time.Now().UTC().Truncate(time.Second)
	completed := now.Add(2 * time.Second)
	return &Execution{
		ID:          id,
		WorkflowID:  workflowID,
		Fingerprint: "a1b2c3d4e5f60718",
		Phase:       1,
		Status:      ExecutionStatusSucceeded,
		Summary:     "3 engine perspectives were analyzed.",
		Output:      `{"workflow_id":"` + workflowID + `"}`,
		DurationMS:  2000,
		StartedAt:   now,
		CompletedAt: &completed,
		CreatedAt:   now,
	}
}

func TestInitAppliesConnectionPragmas(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var journalMode string
	if err := store.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var foreignKeys int
	if err := store.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if foreignKeys != 1 {
		t.Errorf("foreign_keys = %d, want 1", foreignKeys)
	}
}

func TestCreateAndGetExecution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exec := testExecution("exec-1", "birth-blueprint")
	if err := store.CreateExecution(ctx, exec); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.WorkflowID != "birth-blueprint" {
		t.Errorf("workflow id = %q", got.WorkflowID)
	}
	if got.Status != ExecutionStatusSucceeded {
		t.Errorf("status = %q", got.Status)
	}
	if got.Fingerprint != exec.Fingerprint {
		t.Errorf("fingerprint = %q", got.Fingerprint)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at must round-trip")
	}
}

func TestGetExecutionNotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetExecution(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing execution")
	}
}

func TestListExecutionsFilterAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testExecution("exec-old", "daily-practice")
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	newer := testExecution("exec-new", "daily-practice")
	other := testExecution("exec-other", "self-inquiry")

	for _, e := range []*Execution{older, newer, other} {
		if err := store.CreateExecution(ctx, e); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	workflowID := "daily-practice"
	execs, err := store.ListExecutions(ctx, &workflowID, 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(execs) != 2 {
		t.Fatalf("got %d executions, want 2", len(execs))
	}
	if execs[0].ID != "exec-new" || execs[1].ID != "exec-old" {
		t.Errorf("expected newest first, got %s then %s", execs[0].ID, execs[1].ID)
	}

	all, err := store.ListExecutions(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("unfiltered list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d executions, want 3", len(all))
	}

	page, err := store.ListExecutions(ctx, nil, 2, 2)
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if len(page) != 1 {
		t.Errorf("pagination returned %d rows, want 1", len(page))
	}
}

func TestDeleteExecution(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateExecution(ctx, testExecution("exec-1", "full-spectrum")); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteExecution(ctx, "exec-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.GetExecution(ctx, "exec-1"); err == nil {
		t.Error("deleted execution still readable")
	}
	if err := store.DeleteExecution(ctx, "exec-1"); err == nil {
		t.Error("expected error deleting missing execution")
	}
}

func TestPruneExecutionsBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := testExecution("exec-old", "daily-practice")
	old.StartedAt = time.Now().UTC().Add(-48 * time.Hour)
	recent := testExecution("exec-recent", "daily-practice")

	if err := store.CreateExecution(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateExecution(ctx, recent); err != nil {
		t.Fatal(err)
	}

	pruned, err := store.PruneExecutionsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned %d rows, want 1", pruned)
	}
	if _, err := store.GetExecution(ctx, "exec-recent"); err != nil {
		t.Errorf("recent execution must survive prune: %v", err)
	}
}

func TestAppendAndListEngineResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateExecution(ctx, testExecution("exec-1", "decision-support")); err != nil {
		t.Fatal(err)
	}

	errMsg := "backend timeout"
	results := []*EngineResult{
		{ExecutionID: "exec-1", EngineID: "numerology", Status: EngineResultStatusSucceeded, Cached: true, DurationMS: 3, CreatedAt: time.Now().UTC()},
		{ExecutionID: "exec-1", EngineID: "vimshottari", Status: EngineResultStatusFailed, Error: &errMsg, CreatedAt: time.Now().UTC()},
		{ExecutionID: "exec-1", EngineID: "gene-keys", Status: EngineResultStatusSkipped, CreatedAt: time.Now().UTC()},
	}
	for _, r := range results {
		if err := store.AppendEngineResult(ctx, r); err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if r.ID == 0 {
			t.Error("append must backfill the generated id")
		}
	}

	got, err := store.ListEngineResultsByExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].EngineID != "numerology" || !got[0].Cached {
		t.Errorf("first result = %+v", got[0])
	}
	if got[1].Error == nil || *got[1].Error != "backend timeout" {
		t.Errorf("failure reason lost: %+v", got[1])
	}
}

func TestDeleteExecutionCascadesResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateExecution(ctx, testExecution("exec-1", "self-inquiry")); err != nil {
		t.Fatal(err)
	}
	result := &EngineResult{
		ExecutionID: "exec-1",
		EngineID:    "enneagram",
		Status:      EngineResultStatusSucceeded,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.AppendEngineResult(ctx, result); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteExecution(ctx, "exec-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, err := store.ListEngineResultsByExecution(ctx, "exec-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("engine results must cascade on delete, got %d", len(got))
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check failed: %v", err)
	}

	uninitialized := &SQLiteStore{}
	if err := uninitialized.HealthCheck(context.Background()); err == nil {
		t.Error("uninitialized store must fail health check")
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}
