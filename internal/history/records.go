package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Append durably adds one record. Transient write failures are retried a
// bounded number of times before the error surfaces.
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := json.Marshal(rec.Fingerprint)
	if err != nil {
		return fmt.Errorf("encoding fingerprint: %w", err)
	}

	return withRetry(func() error {
		_, err := s.conn.Exec(
			`INSERT INTO history (fingerprint, title, source, url, published_at, slug)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(fp), rec.Title, rec.Source, rec.URL,
			rec.Published.UTC().Format(time.RFC3339), rec.Slug,
		)
		return err
	})
}

// QueryRecent returns all records whose published timestamp falls within the
// last windowDays. Ordering is not significant to callers.
func (s *Store) QueryRecent(windowDays int) ([]Record, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays).Format(time.RFC3339)

	var records []Record
	err := withRetry(func() error {
		rows, err := s.conn.Query(
			`SELECT id, fingerprint, title, source, url, published_at, slug, recorded_at
			FROM history WHERE published_at >= ?`, cutoff,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		records, err = scanRecords(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Prune removes records older than windowDays. Callers run it once per run,
// after all dedup comparisons for the run are done.
func (s *Store) Prune(windowDays int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays).Format(time.RFC3339)

	var removed int64
	err := withRetry(func() error {
		res, err := s.conn.Exec("DELETE FROM history WHERE published_at < ?", cutoff)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// Slugs returns the set of all slugs ever recorded, for collision checks.
func (s *Store) Slugs() (map[string]struct{}, error) {
	slugs := make(map[string]struct{})
	err := withRetry(func() error {
		rows, err := s.conn.Query("SELECT slug FROM history WHERE slug IS NOT NULL AND slug != ''")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var slug string
			if err := rows.Scan(&slug); err != nil {
				return err
			}
			slugs[slug] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

// Count returns the total number of history records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.conn.QueryRow("SELECT COUNT(*) FROM history").Scan(&n)
	return n, err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var r Record
		var fp, published, recorded string
		var source, url, slug sql.NullString
		if err := rows.Scan(&r.ID, &fp, &r.Title, &source, &url, &published, &slug, &recorded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(fp), &r.Fingerprint); err != nil {
			return nil, fmt.Errorf("decoding fingerprint for record %d: %w", r.ID, err)
		}
		r.Source = source.String
		r.URL = url.String
		r.Slug = slug.String
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			r.Published = t
		}
		if t, err := time.Parse("2006-01-02 15:04:05", recorded); err == nil {
			r.RecordedAt = t
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
