// Package archive mirrors focus history into SQLite so that range queries and
// aggregations do not have to walk the JSON document.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/charlie0129/tomato/pkg/appdata"
)

const currentVersion = 1

// Archive is a SQLite index over history and interruption records. AppData
// remains the source of truth; the archive can always be rebuilt from it.
type Archive struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates it.
func New(dbPath string) (*Archive, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to create archive directory for %s", dbPath)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open archive %s", dbPath)
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, pkgerrors.Wrapf(err, "failed to exec %q", p)
		}
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "failed to migrate archive")
	}
	return a, nil
}

// NewMemory creates an in-memory archive.
func NewMemory() (*Archive, error) {
	return New(":memory:")
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) migrate() error {
	var version int
	if err := a.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return pkgerrors.Wrap(err, "failed to read user_version")
	}
	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := a.migrateV1(); err != nil {
			return err
		}
	}

	_, err := a.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (a *Archive) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS work_records (
		date        TEXT    NOT NULL,
		idx         INTEGER NOT NULL,
		tag         TEXT    NOT NULL,
		start_time  TEXT    NOT NULL DEFAULT '',
		end_time    TEXT    NOT NULL DEFAULT '',
		duration    INTEGER NOT NULL DEFAULT 0,
		phase       TEXT    NOT NULL DEFAULT 'work',
		remark      TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (date, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_work_records_tag ON work_records(tag);

	CREATE TABLE IF NOT EXISTS interruptions (
		id                 TEXT    PRIMARY KEY,
		date               TEXT    NOT NULL,
		timestamp          TEXT    NOT NULL,
		type               TEXT    NOT NULL,
		reason             TEXT    NOT NULL DEFAULT '',
		tag                TEXT    NOT NULL DEFAULT '',
		remaining_seconds  INTEGER NOT NULL DEFAULT 0,
		focused_seconds    INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_interruptions_date ON interruptions(date);
	`
	_, err := a.db.Exec(ddl)
	return pkgerrors.Wrap(err, "failed to create tables")
}

const (
	upsertRecordSQL = `INSERT OR REPLACE INTO work_records
		(date, idx, tag, start_time, end_time, duration, phase, remark)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	upsertInterruptionSQL = `INSERT OR REPLACE INTO interruptions
		(id, date, timestamp, type, reason, tag, remaining_seconds, focused_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// Rebuild replaces the archive content with the records of data.
func (a *Archive) Rebuild(data *appdata.AppData) error {
	tx, err := a.db.Begin()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM work_records", "DELETE FROM interruptions"} {
		if _, err := tx.Exec(stmt); err != nil {
			return pkgerrors.Wrapf(err, "failed to exec %q", stmt)
		}
	}

	records, interruptions := 0, 0
	for _, day := range data.History {
		for i, rec := range day.Records {
			if _, err := tx.Exec(upsertRecordSQL, recordArgs(day.Date, i, rec)...); err != nil {
				return pkgerrors.Wrapf(err, "failed to insert record %s#%d", day.Date, i)
			}
			records++
		}
	}
	for _, day := range data.Interruptions {
		for _, rec := range day.Records {
			if _, err := tx.Exec(upsertInterruptionSQL, interruptionArgs(day.Date, rec)...); err != nil {
				return pkgerrors.Wrapf(err, "failed to insert interruption %s", rec.ID)
			}
			interruptions++
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, "failed to commit rebuild")
	}

	logrus.WithFields(logrus.Fields{
		"records":       records,
		"interruptions": interruptions,
	}).Debug("archive rebuilt")
	return nil
}

// PutRecord stores the index-th record of date.
func (a *Archive) PutRecord(date string, index int, rec appdata.HistoryRecord) error {
	_, err := a.db.Exec(upsertRecordSQL, recordArgs(date, index, rec)...)
	return pkgerrors.Wrapf(err, "failed to put record %s#%d", date, index)
}

// SetRemark updates the remark of a stored record.
func (a *Archive) SetRemark(date string, index int, remark string) error {
	res, err := a.db.Exec(`UPDATE work_records SET remark = ? WHERE date = ? AND idx = ?`, remark, date, index)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to set remark of %s#%d", date, index)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkgerrors.Errorf("record %s#%d is not archived", date, index)
	}
	return nil
}

// PutInterruption stores an interruption under date.
func (a *Archive) PutInterruption(date string, rec appdata.InterruptionRecord) error {
	_, err := a.db.Exec(upsertInterruptionSQL, interruptionArgs(date, rec)...)
	return pkgerrors.Wrapf(err, "failed to put interruption %s", rec.ID)
}

func recordArgs(date string, index int, rec appdata.HistoryRecord) []any {
	return []any{date, index, rec.Tag, rec.StartTime, rec.EndTime, rec.Duration, string(rec.Phase), rec.Remark}
}

func interruptionArgs(date string, rec appdata.InterruptionRecord) []any {
	return []any{rec.ID, date, rec.Timestamp, string(rec.Type), rec.Reason, rec.Tag, int64(rec.RemainingSeconds), int64(rec.FocusedSeconds)}
}
