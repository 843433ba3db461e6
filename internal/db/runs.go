package db

import (
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/interh852/lunch-order/internal/errors"
)

// Run statuses recorded in the journal.
const (
	RunStatusRunning = "running"
	RunStatusOK      = "ok"
	RunStatusFailed  = "failed"
	RunStatusSkipped = "skipped"
)

// Run is one journal row for a CLI invocation.
type Run struct {
	ID         string
	Command    string
	StartedAt  int64
	FinishedAt *int64
	Status     string
	Note       *string
}

// StartRun records the beginning of a command run and returns its ULID.
func StartRun(database *sql.DB, command string) (string, error) {
	id, err := newRunID()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	_, err = database.Exec(`
		INSERT INTO runs (id, command, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, command, time.Now().Unix(), RunStatusRunning)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id, nil
}

// FinishRun closes a journal row with a final status and optional note.
func FinishRun(database *sql.DB, id, status, note string) error {
	var noteVal sql.NullString
	if note != "" {
		noteVal = sql.NullString{String: note, Valid: true}
	}
	_, err := database.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, note = ? WHERE id = ?
	`, time.Now().Unix(), status, noteVal, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LatestRun returns the most recent journal row for a command, or a
// NOT_FOUND error when the command has never run.
func LatestRun(database *sql.DB, command string) (*Run, error) {
	row := database.QueryRow(`
		SELECT id, command, started_at, finished_at, status, note
		FROM runs
		WHERE command = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, command)

	var r Run
	var finished sql.NullInt64
	var note sql.NullString
	err := row.Scan(&r.ID, &r.Command, &r.StartedAt, &finished, &r.Status, &note)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(command)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if finished.Valid {
		r.FinishedAt = &finished.Int64
	}
	if note.Valid {
		r.Note = &note.String
	}
	return &r, nil
}

func newRunID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
