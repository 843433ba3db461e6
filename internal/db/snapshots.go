package db

import (
	"database/sql"
	"time"

	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/order"
)

// ReplaceSnapshot stores the order records for a period key, replacing any
// rows previously saved under the same key. Delete and insert run in one
// transaction so a period never holds a mix of old and new rows.
func ReplaceSnapshot(database *sql.DB, periodKey string, records []order.Record) error {
	if periodKey == "" {
		return errors.NewInvalidRequest("period key is required")
	}

	tx, err := database.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE period_key = ?`, periodKey); err != nil {
		return errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (period_key, order_date, person, size, count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		// sizes are stored normalized so later diffs compare categories
		size := string(order.NormalizeSize(r.Size))
		if _, err := stmt.Exec(periodKey, r.Date, r.Person, size, r.NormalizedCount(), now); err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadSnapshot returns the records saved under a period key. A key with no
// rows yields a NOT_FOUND error; an empty snapshot is never returned as an
// empty slice.
func LoadSnapshot(database *sql.DB, periodKey string) ([]order.Record, error) {
	if periodKey == "" {
		return nil, errors.NewInvalidRequest("period key is required")
	}

	rows, err := database.Query(`
		SELECT order_date, person, size, count
		FROM snapshots
		WHERE period_key = ?
	`, periodKey)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var records []order.Record
	for rows.Next() {
		var r order.Record
		if err := rows.Scan(&r.Date, &r.Person, &r.Size, &r.Count); err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if len(records) == 0 {
		return nil, errors.NewNotFound(periodKey)
	}
	return records, nil
}

// HasSnapshot reports whether any rows exist for a period key.
func HasSnapshot(database *sql.DB, periodKey string) (bool, error) {
	var one int
	err := database.QueryRow(`
		SELECT 1 FROM snapshots WHERE period_key = ? LIMIT 1
	`, periodKey).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}
