/*
Copyright 2025 Storelens Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"

	"github.com/storelens/storesync/internal/apierror"
	"github.com/storelens/storesync/model"
)

// ClaimSyncJob inserts a new pending job for a store, but only when the store
// has no pending or running job. The insert and the exclusivity check happen
// in one statement so two concurrent claims can never both succeed; the loser
// either affects zero rows or trips the partial unique index.
func (d Datasource) ClaimSyncJob(ctx context.Context, job *model.SyncJob) error {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Claiming sync job slot")
	defer span.End()

	job.Status = model.JobStatusPending
	job.StartedAt = time.Now()
	job.UpdatedAt = job.StartedAt

	result, err := d.Conn.ExecContext(ctx, `
		INSERT INTO sync_jobs (job_id, store_id, sync_type, status, started_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM sync_jobs
			WHERE store_id = $2 AND status IN ('pending', 'running')
		)
	`, job.JobID, job.StoreID, job.SyncType, job.Status, job.StartedAt)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return apierror.NewAPIError(apierror.ErrConflict, "A sync job is already running for this store", err)
			case "foreign_key_violation":
				return apierror.NewAPIError(apierror.ErrNotFound, "Store not found", err)
			default:
				return apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to claim sync job", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check claim result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "A sync job is already running for this store", nil)
	}

	return nil
}

// MarkSyncJobRunning moves a pending job to running and restamps started_at,
// so the timestamp reflects when work began rather than when the claim was
// queued. A job in any other state is left untouched.
func (d Datasource) MarkSyncJobRunning(ctx context.Context, jobID string) error {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Marking sync job running")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = 'running', started_at = NOW(), updated_at = NOW()
		WHERE job_id = $1 AND status = 'pending'
	`, jobID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to start sync job", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check start result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "Sync job is not pending", nil)
	}

	return nil
}

// UpdateSyncJobProgress records the cumulative counters after a page lands.
// Each call is its own committed statement, so progress written for earlier
// pages survives a later failure. Only running jobs accept progress.
func (d Datasource) UpdateSyncJobProgress(ctx context.Context, jobID string, progress model.SyncProgress) error {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Updating sync job progress")
	defer span.End()

	var totalItems sql.NullInt64
	if progress.TotalItems != nil {
		totalItems = sql.NullInt64{Int64: int64(*progress.TotalItems), Valid: true}
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE sync_jobs
		SET current_step = $2,
			processed_items = $3,
			failed_items = $4,
			total_items = COALESCE($5, total_items),
			updated_at = NOW()
		WHERE job_id = $1 AND status = 'running'
	`, jobID, progress.CurrentStep, progress.ProcessedItems, progress.FailedItems, totalItems)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update sync job progress", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check progress result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "Sync job is not running", nil)
	}

	return nil
}

// FinalizeSyncJob moves a job to completed or failed. The status guard keeps
// terminal states immutable: finalizing an already finalized job affects zero
// rows and reports a conflict instead of overwriting the first outcome.
func (d Datasource) FinalizeSyncJob(ctx context.Context, jobID string, status string, result *model.SyncResult, errMsg string) error {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Finalizing sync job")
	defer span.End()

	if status != model.JobStatusCompleted && status != model.JobStatusFailed {
		return apierror.NewAPIError(apierror.ErrBadRequest, "Finalize requires a terminal status", nil)
	}

	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal sync result", err)
		}
	}

	res, err := d.Conn.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = $2,
			error_message = NULLIF($3, ''),
			result = $4,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE job_id = $1 AND status NOT IN ('completed', 'failed')
	`, jobID, status, errMsg, resultJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to finalize sync job", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check finalize result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrConflict, "Sync job already finalized", nil)
	}

	return nil
}

func (d Datasource) GetSyncJob(ctx context.Context, jobID string) (*model.SyncJob, error) {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Fetching sync job from db")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT id, job_id, store_id, sync_type, status, current_step, total_items,
			processed_items, failed_items, error_message, result,
			started_at, updated_at, completed_at
		FROM sync_jobs
		WHERE job_id = $1
	`, jobID)

	job, err := scanSyncJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Sync job not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sync job", err)
	}

	return job, nil
}

func (d Datasource) GetLatestSyncJob(ctx context.Context, storeID string) (*model.SyncJob, error) {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Fetching latest sync job for store")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT id, job_id, store_id, sync_type, status, current_step, total_items,
			processed_items, failed_items, error_message, result,
			started_at, updated_at, completed_at
		FROM sync_jobs
		WHERE store_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, storeID)

	job, err := scanSyncJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "No sync jobs found for store", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sync job", err)
	}

	return job, nil
}

func (d Datasource) GetSyncJobs(ctx context.Context, storeID string, limit, offset int) ([]*model.SyncJob, error) {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Fetching sync job history for store")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, job_id, store_id, sync_type, status, current_step, total_items,
			processed_items, failed_items, error_message, result,
			started_at, updated_at, completed_at
		FROM sync_jobs
		WHERE store_id = $1
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`, storeID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sync jobs", err)
	}
	defer rows.Close()

	var jobs []*model.SyncJob

	for rows.Next() {
		job, err := scanSyncJob(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sync job data", err)
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sync jobs", err)
	}

	return jobs, nil
}

// GetPendingSyncJobs returns every pending job across all stores, oldest
// first. The worker process re-enqueues these at boot so claims made while
// the queue was down are not stranded.
func (d Datasource) GetPendingSyncJobs(ctx context.Context) ([]*model.SyncJob, error) {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Fetching pending sync jobs")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id, job_id, store_id, sync_type, status, current_step, total_items,
			processed_items, failed_items, error_message, result,
			started_at, updated_at, completed_at
		FROM sync_jobs
		WHERE status = 'pending'
		ORDER BY started_at ASC
	`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve pending sync jobs", err)
	}
	defer rows.Close()

	var jobs []*model.SyncJob

	for rows.Next() {
		job, err := scanSyncJob(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sync job data", err)
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sync jobs", err)
	}

	return jobs, nil
}

// FailStaleSyncJobs fails running jobs whose last heartbeat is older than
// staleAfter. Returns the number of jobs reaped.
func (d Datasource) FailStaleSyncJobs(ctx context.Context, staleAfter time.Duration) (int64, error) {
	ctx, span := otel.Tracer("SyncJob").Start(ctx, "Failing stale sync jobs")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = 'failed',
			error_message = 'sync worker heartbeat lost',
			completed_at = NOW(),
			updated_at = NOW()
		WHERE status = 'running' AND updated_at < $1
	`, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reap stale sync jobs", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check reap result", err)
	}

	return rows, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSyncJob(row rowScanner) (*model.SyncJob, error) {
	job := &model.SyncJob{}
	var currentStep sql.NullString
	var totalItems sql.NullInt64
	var errorMessage sql.NullString
	var resultJSON []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.JobID, &job.StoreID, &job.SyncType, &job.Status,
		&currentStep, &totalItems, &job.ProcessedItems, &job.FailedItems,
		&errorMessage, &resultJSON, &job.StartedAt, &job.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.CurrentStep = currentStep.String
	if totalItems.Valid {
		job.TotalItems = ptr.Int(int(totalItems.Int64))
	}
	job.ErrorMessage = errorMessage.String
	if completedAt.Valid {
		job.CompletedAt = ptr.Time(completedAt.Time)
	}
	if resultJSON != nil {
		job.Result = &model.SyncResult{}
		if err := json.Unmarshal(resultJSON, job.Result); err != nil {
			return nil, err
		}
	}

	return job, nil
}
