package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clipwash/clipwash/internal/domain"
)

const jobColumns = "id, source_url, platform, params, status, error, artifact_path, method_used, provider_used, created_at, finished_at"

// SaveJob upserts the job row. Called on every state transition so a
// restart never loses more than the in-flight step.
func (s *PersistentStore) SaveJob(job *domain.Job) error {
	paramsJSON, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	query := s.rebind(`INSERT INTO jobs (` + jobColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT (id) DO UPDATE SET
                status = excluded.status,
                error = excluded.error,
                artifact_path = excluded.artifact_path,
                method_used = excluded.method_used,
                provider_used = excluded.provider_used,
                finished_at = excluded.finished_at`)

	var finishedAt sql.NullTime
	if !job.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: job.FinishedAt, Valid: true}
	}

	_, err = s.db.Exec(query,
		job.ID,
		job.URL,
		string(job.Platform),
		string(paramsJSON),
		string(job.Status),
		job.Error,
		job.ArtifactPath,
		string(job.MethodUsed),
		string(job.ProviderUsed),
		job.CreatedAt,
		finishedAt,
	)
	return err
}

// GetJob fetches one job by id. Returns (nil, nil) when not found.
func (s *PersistentStore) GetJob(id string) (*domain.Job, error) {
	query := s.rebind(`SELECT ` + jobColumns + ` FROM jobs WHERE id = ? LIMIT 1`)

	job, err := scanJob(s.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	return job, nil
}

// GetActiveJobs returns jobs that never reached a terminal state,
// oldest first (KSUIDs sort chronologically).
func (s *PersistentStore) GetActiveJobs() ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE status NOT IN ('completed', 'failed')
		ORDER BY id ASC`

	return s.queryJobs(query)
}

// GetAllJobs returns every job, oldest first.
func (s *PersistentStore) GetAllJobs() ([]*domain.Job, error) {
	return s.queryJobs(`SELECT ` + jobColumns + ` FROM jobs ORDER BY id ASC`)
}

func (s *PersistentStore) queryJobs(query string, args ...any) ([]*domain.Job, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	job := &domain.Job{}
	var platform, status, method, provider, paramsJSON string
	var finishedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.URL, &platform, &paramsJSON, &status,
		&job.Error, &job.ArtifactPath, &method, &provider,
		&job.CreatedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(paramsJSON), &job.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params for %s: %w", job.ID, err)
	}

	job.Platform = domain.Platform(platform)
	job.Status = domain.JobStatus(status)
	job.MethodUsed = domain.AcquisitionMethod(method)
	job.ProviderUsed = domain.SpeechProvider(provider)
	if finishedAt.Valid {
		job.FinishedAt = finishedAt.Time
	}

	return job, nil
}
