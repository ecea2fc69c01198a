package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

const (
	testCardID  = "V1StGXR8_Z5jdHi6B-myT"
	testShareID = "abcDEF123_-x"
)

func setupCLITestEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cards.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("RATE_LIMIT_STORE", "memory")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("PUBLIC_BASE_URL", "https://songcards.app")
	t.Setenv("SUNO_API_KEY", "")
	return dbPath
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func seedCard(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()
	db, err := repo.Open(repo.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB(db)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	now := time.Now().UTC()
	card := &domain.Card{
		ID:                testCardID,
		ShareID:           testShareID,
		RecipientName:     "Sam",
		PersonalityTraits: []string{"funny"},
		Interests:         []string{"hiking"},
		Relationship:      "friend",
		MusicStyle:        domain.MusicStyleUpbeatPop,
		ThemeID:           "classic",
		Occasion:          domain.OccasionBirthday,
		SenderName:        "Alex",
		SongStatus:        domain.SongStatusFailed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repo.CreateCard(ctx, db, card); err != nil {
		t.Fatalf("seed card: %v", err)
	}
	job, err := repo.CreateJob(ctx, db, testCardID, "suno-1", domain.JobStatusProcessing)
	if err != nil {
		t.Fatalf("seed job: %v", err)
	}
	msg := "lyrics rejected"
	if err := repo.UpdateJobStatus(ctx, db, job.ID, domain.JobStatusFailed, &msg); err != nil {
		t.Fatalf("fail job: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	setupCLITestEnv(t)
	out, _, err := runCLI(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	requireContains(t, out, "schema up to date (sqlite)")
}

func TestShow(t *testing.T) {
	dbPath := setupCLITestEnv(t)
	seedCard(t, dbPath)

	out, _, err := runCLI(t, "show", testShareID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, testCardID)
	requireContains(t, out, "https://songcards.app/card/"+testShareID)
	requireContains(t, out, "suno-1")
	requireContains(t, out, "lyrics rejected")

	out, _, err = runCLI(t, "show", "--json", testCardID)
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	var rep struct {
		Card struct {
			ShareID string `json:"shareId"`
		}
		Jobs []struct {
			SunoJobID string `json:"sunoJobId"`
		}
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if rep.Card.ShareID != testShareID || len(rep.Jobs) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	if _, _, err := runCLI(t, "show", "zzzzzzzzzzzz"); err == nil {
		t.Fatalf("expected error for unknown card")
	}
}

func TestPoll_TerminalJobFromStore(t *testing.T) {
	dbPath := setupCLITestEnv(t)
	seedCard(t, dbPath)

	out, _, err := runCLI(t, "poll", "suno-1")
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	requireContains(t, out, "failed")
	requireContains(t, out, "lyrics rejected")

	if _, _, err := runCLI(t, "poll", "missing"); err == nil {
		t.Fatalf("expected error for unknown job")
	}
}

func TestPurge(t *testing.T) {
	setupCLITestEnv(t)
	out, _, err := runCLI(t, "purge")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	requireContains(t, out, "purged 0 idempotency records, 0 rate limit windows")
}

func TestInvalidConfig(t *testing.T) {
	setupCLITestEnv(t)
	t.Setenv("RATE_LIMIT_STORE", "etcd")
	if _, _, err := runCLI(t, "migrate"); err == nil || !strings.Contains(err.Error(), "RATE_LIMIT_STORE") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	requireContains(t, out, "A")
	requireContains(t, out, "3")
	if renderTable(nil, nil, nil) != "" {
		t.Fatalf("empty headers should render nothing")
	}
}
