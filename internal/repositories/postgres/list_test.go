package postgres

import (
	"context"
	"strings"
	"sync"
	"testing"

	"supportmatch/internal/models"
	"supportmatch/internal/repositories/interfaces"
	"supportmatch/internal/utils"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// statementRecorder opens a dry-run handle that never touches a server and
// records the SQL of every query it builds.
type statementRecorder struct {
	mu  sync.Mutex
	sql []string
}

func newDryRunDB(t *testing.T) (*gorm.DB, *statementRecorder) {
	t.Helper()
	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		DSN: "host=localhost user=supportmatch dbname=supportmatch sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	rec := &statementRecorder{}
	err = db.Callback().Query().After("gorm:query").Register("test:record_sql", func(tx *gorm.DB) {
		rec.mu.Lock()
		rec.sql = append(rec.sql, tx.Statement.SQL.String())
		rec.mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return db, rec
}

// assertCountThenPage checks that a paginated listing issues a count and a
// separate page query, each with its filter exactly once.
func assertCountThenPage(t *testing.T, rec *statementRecorder, filter string) {
	t.Helper()
	if len(rec.sql) != 2 {
		t.Fatalf("recorded %d statements, want 2: %q", len(rec.sql), rec.sql)
	}
	count, page := rec.sql[0], rec.sql[1]

	if !strings.Contains(strings.ToLower(count), "count(") {
		t.Errorf("first statement is not a count: %s", count)
	}
	if strings.Contains(strings.ToLower(page), "count(") {
		t.Errorf("page statement still selects count: %s", page)
	}
	for _, want := range []string{"ORDER BY", "LIMIT"} {
		if !strings.Contains(page, want) {
			t.Errorf("page statement missing %s: %s", want, page)
		}
	}
	for _, stmt := range rec.sql {
		if n := strings.Count(stmt, filter); n != 1 {
			t.Errorf("filter %q appears %d times in %s", filter, n, stmt)
		}
	}
}

func TestMatchListCountsAndPagesSeparately(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewMatchRepository(db)

	filter := interfaces.MatchFilter{ServiceIDs: []string{"svc-a", "svc-b"}, Status: models.MatchStatusPending}
	if _, _, err := repo.List(context.Background(), filter, utils.DefaultPagination()); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	assertCountThenPage(t, rec, "match_status_type =")
}

func TestReportListCountsAndPagesSeparately(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewReportRepository(db)

	if _, _, err := repo.GetByUser(context.Background(), "survivor-1", utils.DefaultPagination()); err != nil {
		t.Fatalf("GetByUser() error = %v", err)
	}
	assertCountThenPage(t, rec, "user_id =")
}

func TestAppointmentListCountsAndPagesSeparately(t *testing.T) {
	db, rec := newDryRunDB(t)
	repo := NewAppointmentRepository(db)

	if _, _, err := repo.GetByParticipant(context.Background(), "prov-a", utils.DefaultPagination()); err != nil {
		t.Fatalf("GetByParticipant() error = %v", err)
	}
	assertCountThenPage(t, rec, "professional_id =")
}
