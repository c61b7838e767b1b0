package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"weatherclassifier/internal/model"
	"weatherclassifier/internal/timeparts"
)

// storedLayout is how instants are written to the timestamp column: UTC, second precision.
// Lexical order of this layout matches chronological order, which ORDER BY and the purge cutoff rely on.
const storedLayout = "2006-01-02 15:04:05"

// DefaultListLimit is used by ListAll when the caller passes a non-positive limit.
const DefaultListLimit = 100

const selectColumns = `
	SELECT id, timestamp, year, month, day, hour, minute, second,
		image_name, prediction, confidence, duration, notes
	FROM analysis_history`

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db  *DB
	loc *time.Location
	now func() time.Time
}

// Option configures an AnalysisRepository.
type Option func(*AnalysisRepository)

// WithLocation sets the zone calendar fields are derived in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *AnalysisRepository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock replaces time.Now as the source of insert and purge instants.
func WithClock(now func() time.Time) Option {
	return func(r *AnalysisRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// NewAnalysisRepository creates a new SQLite analysis history repository.
func NewAnalysisRepository(db *DB, opts ...Option) *AnalysisRepository {
	r := &AnalysisRepository{
		db:  db,
		loc: time.Local,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the zone calendar fields are derived in.
func (r *AnalysisRepository) Location() *time.Location {
	return r.loc
}

// Initialize ensures the history table exists. Existing rows are kept.
func (r *AnalysisRepository) Initialize() error {
	return r.db.Migrate()
}

// Insert captures the current instant, decomposes it and writes a new row in one transaction.
func (r *AnalysisRepository) Insert(entry model.AnalysisEntry) (*model.AnalysisRecord, error) {
	ts := r.now().Truncate(time.Second).In(r.loc)
	parts := timeparts.Decompose(ts)

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", model.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO analysis_history
			(timestamp, year, month, day, hour, minute, second, image_name, prediction, confidence, duration, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ts.UTC().Format(storedLayout), parts.Year, parts.Month, parts.Day, parts.Hour, parts.Minute, parts.Second,
		entry.ImageName, entry.Prediction, nullFloat(entry.Confidence), nullFloat(entry.Duration), nullString(entry.Notes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert record: %w", model.ErrStoreUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read record id: %w", model.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit record: %w", model.ErrStoreUnavailable, err)
	}

	return &model.AnalysisRecord{
		ID:         id,
		Timestamp:  ts,
		Year:       parts.Year,
		Month:      parts.Month,
		Day:        parts.Day,
		Hour:       parts.Hour,
		Minute:     parts.Minute,
		Second:     parts.Second,
		ImageName:  entry.ImageName,
		Prediction: entry.Prediction,
		Confidence: entry.Confidence,
		Duration:   entry.Duration,
		Notes:      entry.Notes,
	}, nil
}

// GetByDate returns records matching the supplied calendar fields, most recent first.
// Year is mandatory; a zero Month or Day is a wildcard.
func (r *AnalysisRepository) GetByDate(filter model.DateFilter) ([]model.AnalysisRecord, error) {
	if filter.Year <= 0 {
		return nil, fmt.Errorf("%w: year is required", model.ErrInvalidArgument)
	}

	query, args := applyDateFilter(selectColumns+" WHERE 1=1", nil, filter)
	query += " ORDER BY timestamp DESC, id DESC"

	return r.query(query, args...)
}

// GetByHourRange returns records whose hour lies in [startHour, endHour], most recent first.
// The bounds are not reordered, so startHour > endHour matches nothing.
func (r *AnalysisRepository) GetByHourRange(startHour, endHour int, filter model.DateFilter) ([]model.AnalysisRecord, error) {
	if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
		return nil, fmt.Errorf("%w: hours must be within 0-23, got %d-%d", model.ErrInvalidArgument, startHour, endHour)
	}

	query := selectColumns + " WHERE hour >= ? AND hour <= ?"
	args := []interface{}{startHour, endHour}
	query, args = applyDateFilter(query, args, filter)
	query += " ORDER BY timestamp DESC, id DESC"

	return r.query(query, args...)
}

// ListAll returns the most recent limit records.
func (r *AnalysisRepository) ListAll(limit int) ([]model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return r.query(selectColumns+" ORDER BY timestamp DESC, id DESC LIMIT ?", limit)
}

// ExportToFile writes the filtered records, or every record when filter.Year is zero,
// to path as an indented JSON array. The file is replaced atomically.
func (r *AnalysisRepository) ExportToFile(path string, filter model.DateFilter) (string, error) {
	var (
		records []model.AnalysisRecord
		err     error
	)
	if filter.Year > 0 {
		records, err = r.GetByDate(filter)
	} else {
		records, err = r.query(selectColumns + " ORDER BY timestamp DESC, id DESC")
	}
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create export directory: %w", model.ErrStoreUnavailable, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create export file: %w", model.ErrStoreUnavailable, err)
	}
	tempPath := tmp.Name()
	defer os.Remove(tempPath)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: failed to write export: %w", model.ErrStoreUnavailable, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: failed to set export permissions: %w", model.ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close export: %w", model.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("%w: failed to rename export: %w", model.ErrStoreUnavailable, err)
	}

	return path, nil
}

// PurgeOlderThan deletes every record strictly older than now minus days and
// returns how many rows were removed.
func (r *AnalysisRepository) PurgeOlderThan(days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: days must not be negative, got %d", model.ErrInvalidArgument, days)
	}

	cutoff := r.now().Truncate(time.Second).AddDate(0, 0, -days).UTC().Format(storedLayout)

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM analysis_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to purge records: %w", model.ErrStoreUnavailable, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count purged records: %w", model.ErrStoreUnavailable, err)
	}
	return removed, nil
}

// Count returns the number of stored records.
func (r *AnalysisRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM analysis_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count records: %w", model.ErrStoreUnavailable, err)
	}
	return count, nil
}

func (r *AnalysisRepository) query(query string, args ...interface{}) ([]model.AnalysisRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query records: %w", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	records := []model.AnalysisRecord{}
	for rows.Next() {
		var (
			rec        model.AnalysisRecord
			ts         time.Time
			imageName  sql.NullString
			prediction sql.NullString
			confidence sql.NullFloat64
			duration   sql.NullFloat64
			notes      sql.NullString
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Year, &rec.Month, &rec.Day, &rec.Hour, &rec.Minute, &rec.Second,
			&imageName, &prediction, &confidence, &duration, &notes); err != nil {
			return nil, fmt.Errorf("%w: failed to scan record: %w", model.ErrStoreUnavailable, err)
		}

		rec.Timestamp = ts.In(r.loc)
		rec.ImageName = imageName.String
		rec.Prediction = prediction.String
		if confidence.Valid {
			rec.Confidence = model.Float(confidence.Float64)
		}
		if duration.Valid {
			rec.Duration = model.Float(duration.Float64)
		}
		if notes.Valid {
			rec.Notes = model.String(notes.String)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate records: %w", model.ErrStoreUnavailable, err)
	}

	return records, nil
}

func applyDateFilter(query string, args []interface{}, filter model.DateFilter) (string, []interface{}) {
	if filter.Year > 0 {
		query += " AND year = ?"
		args = append(args, filter.Year)
	}
	if filter.Month > 0 {
		query += " AND month = ?"
		args = append(args, filter.Month)
	}
	if filter.Day > 0 {
		query += " AND day = ?"
		args = append(args, filter.Day)
	}
	return query, args
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
