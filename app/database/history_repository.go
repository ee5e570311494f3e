package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lysyi3m/product-feeds/app/feed"
)

var _ HistoryRepository = (*HistoryRepo)(nil)

const defaultHistoryLimit = 50

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert stores entry, assigning an id and timestamp when missing.
func (r *HistoryRepo) Insert(entry *HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.GeneratedAt.IsZero() {
		entry.GeneratedAt = time.Now().UTC()
	}

	var report []byte
	if len(entry.Reports) > 0 {
		var err error
		report, err = msgpack.Marshal(entry.Reports)
		if err != nil {
			return fmt.Errorf("failed to encode history report: %w", err)
		}
	}

	_, err := r.db.Exec(`
		INSERT INTO feed_history (
			id, template_name, template_id, feed_type, status,
			accepted_count, skipped_count, warning_count,
			error, document, report, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.TemplateName, entry.TemplateID, entry.FeedType, string(entry.Status),
		entry.Accepted, entry.Skipped, entry.Warnings,
		entry.Error, entry.Document, report, entry.GeneratedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Get returns nil when no entry has the id.
func (r *HistoryRepo) Get(id string) (*HistoryEntry, error) {
	entry, err := scanHistory(r.db.QueryRow(`
		SELECT id, template_name, template_id, feed_type, status,
		       accepted_count, skipped_count, warning_count,
		       error, document, report, generated_at
		FROM feed_history
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history entry: %w", err)
	}

	return entry, nil
}

// List returns the newest entries first without their documents. An empty
// templateName lists every template.
func (r *HistoryRepo) List(templateName string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := r.db.Query(`
		SELECT id, template_name, template_id, feed_type, status,
		       accepted_count, skipped_count, warning_count,
		       error, '', report, generated_at
		FROM feed_history
		WHERE ? = '' OR template_name = ?
		ORDER BY generated_at DESC, rowid DESC
		LIMIT ?
	`, templateName, templateName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}

func (r *HistoryRepo) Latest(templateName string) (*HistoryEntry, error) {
	return r.latest(templateName, false)
}

// LatestSuccessful returns the newest entry that produced a document.
func (r *HistoryRepo) LatestSuccessful(templateName string) (*HistoryEntry, error) {
	return r.latest(templateName, true)
}

func (r *HistoryRepo) latest(templateName string, successful bool) (*HistoryEntry, error) {
	entry, err := scanHistory(r.db.QueryRow(`
		SELECT id, template_name, template_id, feed_type, status,
		       accepted_count, skipped_count, warning_count,
		       error, document, report, generated_at
		FROM feed_history
		WHERE template_name = ? AND (? = 0 OR status != 'error')
		ORDER BY generated_at DESC, rowid DESC
		LIMIT 1
	`, templateName, successful))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest history entry: %w", err)
	}

	return entry, nil
}

func (r *HistoryRepo) Delete(id string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM feed_history WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete history entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete history entry: %w", err)
	}

	return n > 0, nil
}

func scanHistory(row rowScanner) (*HistoryEntry, error) {
	var entry HistoryEntry
	var status string
	var report []byte
	var generatedAt int64

	err := row.Scan(
		&entry.ID, &entry.TemplateName, &entry.TemplateID, &entry.FeedType, &status,
		&entry.Accepted, &entry.Skipped, &entry.Warnings,
		&entry.Error, &entry.Document, &report, &generatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Status = HistoryStatus(status)
	entry.GeneratedAt = time.UnixMilli(generatedAt).UTC()

	if len(report) > 0 {
		var reports []feed.RecordReport
		if err := msgpack.Unmarshal(report, &reports); err != nil {
			return nil, fmt.Errorf("failed to decode history report: %w", err)
		}
		entry.Reports = reports
	}

	return &entry, nil
}
