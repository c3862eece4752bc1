package cleanup

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetmesh/control-plane/internal/gc/model"
)

func TestSweeperRunSoftAndHardDeletesOnTick(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("UPDATE meeting_assignments a SET ended_at").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM meeting_assignments").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := model.NewRepository(sqlx.NewDb(db, "postgres"))
	s := NewSweeper(repo, Config{Interval: 5 * time.Millisecond, InactivityWindow: time.Hour, RetentionWindow: 24 * time.Hour})

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweeperStopsWhenContextIsCancelled(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := model.NewRepository(sqlx.NewDb(db, "postgres"))
	s := NewSweeper(repo, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
