package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/portalwatch/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *History {
	t.Helper()

	h, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func successfulRun(profile string, offset time.Duration, rows ...model.TableRow) *model.RunReport {
	r := model.NewRunReport(profile, base.Add(offset))
	r.Succeed(&model.WorkflowResult{
		Variant:         model.VariantHTML,
		IllegalPrograms: model.Entries{Rows: rows},
		Announcements:   model.Entries{Rows: []model.TableRow{{"2024-05-01", "news"}}},
	}, base.Add(offset+time.Second))
	return r
}

func failedRun(profile string, offset time.Duration) *model.RunReport {
	r := model.NewRunReport(profile, base.Add(offset))
	r.Fail("credentials", errors.New("login rejected"), base.Add(offset+time.Second))
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		h, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer h.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if h.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", h.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		h, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		run := failedRun("alice@portal", 0)
		if err := h.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
		_ = h.Close()

		h, err = Open(dir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer h.Close()
		got, err := h.GetRun(context.Background(), run.ID)
		if err != nil || got == nil {
			t.Fatalf("GetRun = %v, %v", got, err)
		}
	})
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := setupTestDB(t)

	run := successfulRun("alice@portal", 0, model.TableRow{"a", "b"})
	run.CaptchaAttempts = 2
	if err := h.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := h.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	missing, err := h.GetRun(ctx, "no-such-id")
	if err != nil || missing != nil {
		t.Errorf("GetRun(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := setupTestDB(t)

	run := failedRun("alice@portal", 0)
	if err := h.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	run.Succeed(&model.WorkflowResult{}, base.Add(time.Minute))
	if err := h.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	metas, err := h.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(metas) != 1 || !metas[0].Success {
		t.Errorf("expected one successful run, got %+v", metas)
	}
}

func TestLatestRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := setupTestDB(t)

	first := successfulRun("alice@portal", 0, model.TableRow{"old"})
	failed := failedRun("alice@portal", time.Hour)
	second := successfulRun("alice@portal", 2*time.Hour, model.TableRow{"old"}, model.TableRow{"new"})
	other := successfulRun("bob@portal", 3*time.Hour)
	for _, r := range []*model.RunReport{first, failed, second, other} {
		if err := h.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	t.Run("all runs newest first", func(t *testing.T) {
		t.Parallel()

		runs, err := h.LatestRuns(ctx, "alice@portal", 10, false)
		if err != nil {
			t.Fatalf("LatestRuns: %v", err)
		}
		var ids []string
		for _, r := range runs {
			ids = append(ids, r.ID)
		}
		if diff := cmp.Diff([]string{second.ID, failed.ID, first.ID}, ids); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("successful only", func(t *testing.T) {
		t.Parallel()

		runs, err := h.LatestRuns(ctx, "alice@portal", 2, true)
		if err != nil {
			t.Fatalf("LatestRuns: %v", err)
		}
		if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
			t.Fatalf("unexpected runs: %+v", runs)
		}
		diff := model.Diff(runs[1].Result, runs[0].Result)
		if diff := cmp.Diff([][]string{{"new"}}, diff.IllegalPrograms); diff != "" {
			t.Errorf("diff mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("profiles", func(t *testing.T) {
		t.Parallel()

		profiles, err := h.ListProfiles(ctx)
		if err != nil {
			t.Fatalf("ListProfiles: %v", err)
		}
		if diff := cmp.Diff([]string{"alice@portal", "bob@portal"}, profiles); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("metadata", func(t *testing.T) {
		t.Parallel()

		metas, err := h.ListRuns(ctx, "alice@portal", 10)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(metas) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(metas))
		}
		if metas[0].IllegalPrograms != 2 || metas[0].Announcements != 1 {
			t.Errorf("unexpected counts: %+v", metas[0])
		}
		if metas[1].Success || metas[1].FailedStep != "credentials" {
			t.Errorf("unexpected failed run metadata: %+v", metas[1])
		}
		if !metas[2].StartedAt.Equal(base) {
			t.Errorf("StartedAt = %v, want %v", metas[2].StartedAt, base)
		}
	})
}

func TestDeleteBefore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := setupTestDB(t)

	for _, r := range []*model.RunReport{
		failedRun("alice@portal", 0),
		failedRun("alice@portal", 48*time.Hour),
	} {
		if err := h.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	n, err := h.DeleteBefore(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d runs, want 1", n)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2024-05-01T09:00:00.000000000Z", want: base},
		{in: "2024-05-01 09:00:00", want: base},
		{in: "2024-05-01T09:00:00Z", want: base},
		{in: "garbage", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
