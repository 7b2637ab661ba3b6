package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"suitcase/internal/domain"
	"suitcase/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// newRun creates a run with a whole-second start time so it survives the
// epoch-seconds column unchanged
func newRun(direction string, startedAt time.Time) *domain.Run {
	run := domain.NewRun(direction, "edf")
	run.StartedAt = startedAt
	return run
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ============================================================================
// Helper Tests
// ============================================================================

func TestStringToNull(t *testing.T) {
	assertEqual(t, sql.NullString{}, stringToNull(""))
	assertEqual(t, sql.NullString{String: "x", Valid: true}, stringToNull("x"))
	assertEqual(t, "", nullToString(sql.NullString{}))
	assertEqual(t, "x", nullToString(sql.NullString{String: "x", Valid: true}))
}

func TestTimePtrToNull(t *testing.T) {
	if got := timePtrToNull(nil); got.Valid {
		t.Errorf("timePtrToNull(nil) = %v, want invalid", got)
	}
	if got := nullToTimePtr(sql.NullFloat64{}); got != nil {
		t.Errorf("nullToTimePtr(invalid) = %v, want nil", got)
	}

	back := nullToTimePtr(timePtrToNull(&epoch))
	if back == nil || !back.Equal(epoch) {
		t.Errorf("round trip = %v, want %v", back, epoch)
	}
}

// ============================================================================
// Run Tests
// ============================================================================

func TestCreateAndGetRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := newRun("export", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))

	got, err := repo.GetRun(ctx, run.UID)
	assertNoError(t, err)

	assertEqual(t, run.UID, got.UID)
	assertEqual(t, "export", got.Direction)
	assertEqual(t, "edf", got.Format)
	assertEqual(t, domain.RunRunning, got.Status)
	assertEqual(t, "", got.Reason)
	if !got.StartedAt.Equal(epoch) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, epoch)
	}
	if got.FinishedAt != nil {
		t.Errorf("FinishedAt = %v, want nil", got.FinishedAt)
	}
	assertEqual(t, 0, got.ArtifactCount)
}

func TestCreateRunDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := newRun("ingest", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))
	if err := repo.CreateRun(ctx, run); err == nil {
		t.Error("expected error inserting the same uid twice")
	}
}

func TestGetRunNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetRun(context.Background(), "missing")
	if !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestFinishRun(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := newRun("export", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))

	finished := epoch.Add(90 * time.Second)
	assertNoError(t, repo.FinishRun(ctx, run.UID, domain.RunFailed, "disk full", finished))

	got, err := repo.GetRun(ctx, run.UID)
	assertNoError(t, err)
	assertEqual(t, domain.RunFailed, got.Status)
	assertEqual(t, "disk full", got.Reason)
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
}

func TestFinishRunNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.FinishRun(context.Background(), "missing", domain.RunSuccess, "", epoch)
	if !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("FinishRun() error = %v, want ErrRunNotFound", err)
	}
}

// ============================================================================
// Artifact Tests
// ============================================================================

func TestAddArtifacts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := newRun("export", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))

	artifacts := []domain.Artifact{
		{RunUID: run.UID, Path: "/out/e1_image.edf", Kind: domain.ArtifactImage, Checksum: "abc", Size: 1536},
		{RunUID: run.UID, Path: "/out/e2_image.edf", Kind: domain.ArtifactImage, Checksum: "def", Size: 1536},
		{RunUID: run.UID, Path: "/out/s1.json", Kind: domain.ArtifactStop, Size: 120},
	}
	for i := range artifacts {
		assertNoError(t, repo.AddArtifact(ctx, &artifacts[i]))
	}

	got, err := repo.GetRun(ctx, run.UID)
	assertNoError(t, err)
	assertEqual(t, artifacts, got.Artifacts)
	assertEqual(t, 3, got.ArtifactCount)
}

func TestAddArtifactReplacesPath(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	run := newRun("export", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))

	first := domain.Artifact{RunUID: run.UID, Path: "/out/a.edf", Kind: domain.ArtifactImage, Checksum: "old", Size: 1}
	second := domain.Artifact{RunUID: run.UID, Path: "/out/a.edf", Kind: domain.ArtifactImage, Checksum: "new", Size: 2}
	assertNoError(t, repo.AddArtifact(ctx, &first))
	assertNoError(t, repo.AddArtifact(ctx, &second))

	got, err := repo.GetRun(ctx, run.UID)
	assertNoError(t, err)
	assertEqual(t, []domain.Artifact{second}, got.Artifacts)
}

func TestAddArtifactUnknownRun(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.AddArtifact(context.Background(), &domain.Artifact{RunUID: "missing", Path: "/x", Kind: domain.ArtifactSource})
	if err == nil {
		t.Error("expected foreign key error for an unknown run")
	}
}

// ============================================================================
// Listing Tests
// ============================================================================

func TestListRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := newRun("ingest", epoch)
	newer := newRun("export", epoch.Add(time.Hour))
	assertNoError(t, repo.CreateRun(ctx, older))
	assertNoError(t, repo.CreateRun(ctx, newer))
	assertNoError(t, repo.AddArtifact(ctx, &domain.Artifact{RunUID: older.UID, Path: "/in/a.img", Kind: domain.ArtifactSource}))
	assertNoError(t, repo.AddArtifact(ctx, &domain.Artifact{RunUID: older.UID, Path: "/in/b.img", Kind: domain.ArtifactSource}))

	runs, err := repo.ListRuns(ctx, 0)
	assertNoError(t, err)
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	assertEqual(t, newer.UID, runs[0].UID)
	assertEqual(t, 0, runs[0].ArtifactCount)
	assertEqual(t, older.UID, runs[1].UID)
	assertEqual(t, 2, runs[1].ArtifactCount)

	limited, err := repo.ListRuns(ctx, 1)
	assertNoError(t, err)
	if len(limited) != 1 || limited[0].UID != newer.UID {
		t.Errorf("ListRuns(1) = %v, want only the newest run", limited)
	}
}

func TestListRunsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	runs, err := repo.ListRuns(context.Background(), 10)
	assertNoError(t, err)
	if len(runs) != 0 {
		t.Errorf("ListRuns() = %v, want empty", runs)
	}
}

func TestFileBackedCatalogPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	ctx := context.Background()

	repo, err := New(path)
	assertNoError(t, err)
	run := newRun("export", epoch)
	assertNoError(t, repo.CreateRun(ctx, run))
	assertNoError(t, repo.Close())

	reopened, err := New(path)
	assertNoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRun(ctx, run.UID)
	assertNoError(t, err)
	assertEqual(t, run.UID, got.UID)
}
