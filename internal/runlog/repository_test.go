package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/riglab-core/internal/campaign"
	"github.com/nerrad567/riglab-core/internal/infrastructure/database"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "riglab.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	repo := NewSQLiteRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return repo
}

func sampleRun(id string, startedAt time.Time) campaign.Run {
	return campaign.Run{
		ID: id,
		Params: campaign.Params{
			Offset:             campaign.Range{Min: 0, Max: 100, Step: 100},
			Width:              campaign.Range{Min: 50, Max: 150, Step: 50},
			AttemptsPerSetting: 2,
			SuccessPatterns:    []string{`ctf\{.*?\}`},
			StopOnSuccess:      true,
		},
		Successes: []campaign.Success{
			{Offset: 100, Width: 100, Attempt: 1, Matched: "ctf{pwned}", At: startedAt.Add(3 * time.Second)},
		},
		Attempts:     9,
		Planned:      12,
		Elapsed:      4200 * time.Millisecond,
		StoppedEarly: true,
		IOErrors:     1,
		StartedAt:    startedAt,
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	startedAt := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	want := sampleRun("run-1", startedAt)
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got.ID != want.ID || got.Attempts != 9 || got.Planned != 12 {
		t.Errorf("run = %+v", got)
	}
	if !got.StoppedEarly || got.Cancelled {
		t.Errorf("flags = stopped=%v cancelled=%v", got.StoppedEarly, got.Cancelled)
	}
	if got.IOErrors != 1 {
		t.Errorf("io errors = %d, want 1", got.IOErrors)
	}
	if got.Elapsed != want.Elapsed {
		t.Errorf("elapsed = %v, want %v", got.Elapsed, want.Elapsed)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Errorf("started at = %v, want %v", got.StartedAt, startedAt)
	}
	if got.Params.Offset != want.Params.Offset || got.Params.Width != want.Params.Width {
		t.Errorf("ranges = %+v/%+v", got.Params.Offset, got.Params.Width)
	}
	if !got.Params.StopOnSuccess || got.Params.AttemptsPerSetting != 2 {
		t.Errorf("params = %+v", got.Params)
	}

	if len(got.Successes) != 1 {
		t.Fatalf("successes = %d, want 1", len(got.Successes))
	}
	s := got.Successes[0]
	if s.Offset != 100 || s.Width != 100 || s.Matched != "ctf{pwned}" {
		t.Errorf("success = %+v", s)
	}
	if !s.At.Equal(startedAt.Add(3 * time.Second)) {
		t.Errorf("success time = %v", s.At)
	}
}

func TestGetUnknownRun(t *testing.T) {
	repo := openTestRepo(t)
	if _, err := repo.Get(context.Background(), "ghost"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("got %v, want ErrRunNotFound", err)
	}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := sampleRun(id, base.Add(time.Duration(i)*time.Hour))
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	got, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d summaries, want 2 (limit)", len(got))
	}
	if got[0].ID != "run-c" || got[1].ID != "run-b" {
		t.Errorf("order = %s, %s; want run-c, run-b", got[0].ID, got[1].ID)
	}
	if got[0].Successes != 1 {
		t.Errorf("success count = %d, want 1", got[0].Successes)
	}

	all, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("default limit returned %d rows, want 3", len(all))
	}
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Errorf("second EnsureSchema() error = %v", err)
	}
}
