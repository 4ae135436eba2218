package history

import (
	"database/sql"
	"time"
)

// RunReport summarizes one pipeline run for the status command.
type RunReport struct {
	ID           int64
	Mode         string
	StartedAt    time.Time
	FinishedAt   time.Time
	Collected    int
	Deduplicated int
	Enriched     int
	Published    int
	Failed       int
	Aborted      bool
}

// InsertReport records the outcome of a run.
func (s *Store) InsertReport(r RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	aborted := 0
	if r.Aborted {
		aborted = 1
	}
	return withRetry(func() error {
		_, err := s.conn.Exec(
			`INSERT INTO run_reports (mode, started_at, finished_at, collected, deduplicated, enriched, published, failed, aborted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Mode, r.StartedAt.UTC().Format(time.RFC3339), r.FinishedAt.UTC().Format(time.RFC3339),
			r.Collected, r.Deduplicated, r.Enriched, r.Published, r.Failed, aborted,
		)
		return err
	})
}

// LastReport returns the most recent run report, or nil if none exist.
func (s *Store) LastReport() (*RunReport, error) {
	row := s.conn.QueryRow(
		`SELECT id, mode, started_at, finished_at, collected, deduplicated, enriched, published, failed, aborted
		FROM run_reports ORDER BY id DESC LIMIT 1`,
	)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Stats contains aggregate store statistics for the status command.
type Stats struct {
	HistoryRecords int
	OldestRecord   string
	NewestRecord   string
	Runs           int
	TotalPublished int
}

// GetStats returns aggregate statistics.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM history").Scan(&stats.HistoryRecords); err != nil {
		return nil, err
	}
	var oldest, newest sql.NullString
	if err := s.conn.QueryRow("SELECT MIN(published_at), MAX(published_at) FROM history").Scan(&oldest, &newest); err != nil {
		return nil, err
	}
	stats.OldestRecord = oldest.String
	stats.NewestRecord = newest.String
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM run_reports").Scan(&stats.Runs); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRow("SELECT COALESCE(SUM(published), 0) FROM run_reports").Scan(&stats.TotalPublished); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanReport(row *sql.Row) (*RunReport, error) {
	var r RunReport
	var started, finished string
	var aborted int
	if err := row.Scan(&r.ID, &r.Mode, &started, &finished, &r.Collected,
		&r.Deduplicated, &r.Enriched, &r.Published, &r.Failed, &aborted); err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		r.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finished); err == nil {
		r.FinishedAt = t
	}
	r.Aborted = aborted != 0
	return &r, nil
}
