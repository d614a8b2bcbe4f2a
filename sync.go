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

package storesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/storelens/storesync/internal/notification"
	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

// StartSync claims a sync job slot for a store and enqueues it for the worker
// pool. The claim is a single conditional insert, so when a pending or
// running job already exists for the store the caller gets a conflict and no
// second job is created.
func (s *Storesync) StartSync(ctx context.Context, storeID string, syncType string) (*model.SyncJob, error) {
	ctx, span := tracer.Start(ctx, "Starting Sync Job")
	defer span.End()

	if syncType == "" {
		syncType = model.SyncTypeFull
	}

	store, err := s.datasource.GetStoreByID(ctx, storeID)
	if err != nil {
		return nil, err
	}

	job := &model.SyncJob{
		JobID:    model.GenerateUUIDWithSuffix("job"),
		StoreID:  store.StoreID,
		SyncType: syncType,
	}

	if err := s.datasource.ClaimSyncJob(ctx, job); err != nil {
		return nil, err
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// The claim stays pending; the recovery processor re-enqueues it.
			logrus.Errorf("failed to enqueue sync job %s: %v", job.JobID, err)
		}
	}

	return job, nil
}

// ProcessSyncJob is the asynq handler for sync tasks. Terminal job errors are
// swallowed after finalizing so asynq does not retry a job that already
// recorded its failure.
func (s *Storesync) ProcessSyncJob(ctx context.Context, task *asynq.Task) error {
	var payload SyncJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling sync task payload: %v", err)
		return err
	}
	return s.RunSyncJob(ctx, payload.JobID)
}

// RunSyncJob executes one claimed job end to end: flips it to running, pulls
// and reconciles the product catalog page by page, derives sales, and
// finalizes. Progress committed for earlier pages is never rolled back when a
// later page fails.
func (s *Storesync) RunSyncJob(ctx context.Context, jobID string) error {
	ctx, span := tracer.Start(ctx, "Running Sync Job")
	defer span.End()

	job, err := s.datasource.GetSyncJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		logrus.Infof("Sync job %s already finalized with status %s, skipping", jobID, job.Status)
		return nil
	}

	if err := s.datasource.MarkSyncJobRunning(ctx, jobID); err != nil {
		return err
	}

	store, err := s.datasource.GetStoreByID(ctx, job.StoreID)
	if err != nil {
		return s.failSyncJob(ctx, job, fmt.Sprintf("store lookup failed: %v", err))
	}

	client, err := s.platformFactory(store)
	if err != nil {
		return s.failSyncJob(ctx, job, fmt.Sprintf("platform client setup failed: %v", err))
	}

	products, rowFailures, err := s.syncProducts(ctx, job, client)
	if err != nil {
		return s.failSyncJob(ctx, job, syncErrorMessage(err))
	}

	orders, orderAccessDenied, err := s.fetchOrders(ctx, job, client)
	if err != nil {
		return s.failSyncJob(ctx, job, syncErrorMessage(err))
	}

	result, err := s.deriveSales(ctx, job, store, products, orders, orderAccessDenied)
	if err != nil {
		return s.failSyncJob(ctx, job, syncErrorMessage(err))
	}
	result.RowFailures = rowFailures

	if err := s.datasource.FinalizeSyncJob(ctx, jobID, model.JobStatusCompleted, result, ""); err != nil {
		return err
	}

	if err := SendWebhook(NewWebhook{
		Event: getEventFromStatus(model.JobStatusCompleted),
		Payload: map[string]interface{}{
			"job_id":   job.JobID,
			"store_id": job.StoreID,
			"result":   result,
		},
	}); err != nil {
		logrus.Errorf("failed to send sync.completed webhook for %s: %v", job.JobID, err)
	}

	logrus.WithFields(logrus.Fields{
		"job_id":    job.JobID,
		"store_id":  job.StoreID,
		"products":  result.ProductsSynced,
		"sales":     result.SalesGenerated,
		"synthetic": result.Synthetic,
	}).Info("sync job completed")

	return nil
}

// syncProducts walks the paginated catalog. Each page is reconciled and
// upserted, then the job's cumulative progress is committed before the next
// page is requested.
func (s *Storesync) syncProducts(ctx context.Context, job *model.SyncJob, client platform.Fetcher) ([]*model.Product, []model.RowFailure, error) {
	ctx, span := tracer.Start(ctx, "Syncing Product Catalog")
	defer span.End()

	if err := s.datasource.UpdateSyncJobProgress(ctx, job.JobID, model.SyncProgress{
		CurrentStep: model.StepFetchingProducts,
	}); err != nil {
		return nil, nil, err
	}

	var all []*model.Product
	var rowFailures []model.RowFailure
	processed := 0
	failed := 0
	cursor := ""

	for {
		page, err := client.FetchProducts(ctx, cursor)
		if err != nil {
			return nil, nil, err
		}

		reconciled, pageFailures := reconcileProductPage(job.StoreID, page.Items)
		rowFailures = append(rowFailures, pageFailures...)

		if _, err := s.datasource.UpsertProducts(ctx, job.StoreID, reconciled); err != nil {
			return nil, nil, err
		}
		all = append(all, reconciled...)

		// a malformed row counts as failed, never as processed
		processed += len(reconciled)
		failed += len(pageFailures)

		progress := model.SyncProgress{
			CurrentStep:    model.StepReconciling,
			ProcessedItems: processed,
			FailedItems:    failed,
		}
		if page.NextCursor == "" {
			// last page reveals the overall count
			total := processed + failed
			progress.TotalItems = &total
		}
		if err := s.datasource.UpdateSyncJobProgress(ctx, job.JobID, progress); err != nil {
			return nil, nil, err
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	job.ProcessedItems = processed
	job.FailedItems = failed
	return all, rowFailures, nil
}

// fetchOrders pulls the order history. Stores on plans without order access
// surface PermissionDenied here, which is not a failure: the returned flag
// tells the sales deriver to fall back to synthetic mode.
func (s *Storesync) fetchOrders(ctx context.Context, job *model.SyncJob, client platform.Fetcher) ([]platform.Order, bool, error) {
	ctx, span := tracer.Start(ctx, "Fetching Order History")
	defer span.End()

	if err := s.datasource.UpdateSyncJobProgress(ctx, job.JobID, model.SyncProgress{
		CurrentStep:    model.StepFetchingOrders,
		ProcessedItems: job.ProcessedItems,
		FailedItems:    job.FailedItems,
	}); err != nil {
		return nil, false, err
	}

	var orders []platform.Order
	cursor := ""
	for {
		page, err := client.FetchOrders(ctx, cursor)
		if err != nil {
			if platform.IsKind(err, platform.PermissionDenied) {
				logrus.WithField("job_id", job.JobID).Info("order scope not granted, falling back to synthetic sales")
				return nil, true, nil
			}
			return nil, false, err
		}
		orders = append(orders, page.Items...)
		if page.NextCursor == "" {
			return orders, false, nil
		}
		cursor = page.NextCursor
	}
}

// deriveSales produces the sales records for the run. The mode follows the
// order-read capability: granted access yields order-backed records even when
// the history is empty, denied access falls back to the deterministic
// synthetic generator, replacing any synthetic rows from earlier runs.
func (s *Storesync) deriveSales(ctx context.Context, job *model.SyncJob, store *model.Store, products []*model.Product, orders []platform.Order, orderAccessDenied bool) (*model.SyncResult, error) {
	ctx, span := tracer.Start(ctx, "Deriving Sales Records")
	defer span.End()

	if err := s.datasource.UpdateSyncJobProgress(ctx, job.JobID, model.SyncProgress{
		CurrentStep:    model.StepDerivingSales,
		ProcessedItems: job.ProcessedItems,
		FailedItems:    job.FailedItems,
	}); err != nil {
		return nil, err
	}

	var records []*model.SalesRecord
	var summary salesSummary

	if orderAccessDenied {
		if err := s.datasource.DeleteSyntheticSales(ctx, store.StoreID); err != nil {
			return nil, err
		}
		records, summary = syntheticSales(store.StoreID, products)
	} else {
		records, summary = orderBackedSales(store.StoreID, products, orders)
	}

	if err := s.datasource.RecordSales(ctx, records); err != nil {
		return nil, err
	}

	return &model.SyncResult{
		ProductsSynced: len(products),
		SalesGenerated: len(records),
		Revenue:        summary.revenue,
		UniqueOrders:   summary.uniqueOrders,
		Synthetic:      summary.synthetic,
	}, nil
}

// failSyncJob finalizes a job as failed and notifies. The original error
// message is preserved on the job for polling clients.
func (s *Storesync) failSyncJob(ctx context.Context, job *model.SyncJob, message string) error {
	logrus.WithFields(logrus.Fields{
		"job_id":   job.JobID,
		"store_id": job.StoreID,
	}).Errorf("sync job failed: %s", message)

	if err := s.datasource.FinalizeSyncJob(ctx, job.JobID, model.JobStatusFailed, nil, message); err != nil {
		logrus.Errorf("failed to finalize sync job %s: %v", job.JobID, err)
		return err
	}

	if err := SendWebhook(NewWebhook{
		Event: getEventFromStatus(model.JobStatusFailed),
		Payload: map[string]interface{}{
			"job_id":   job.JobID,
			"store_id": job.StoreID,
			"error":    message,
		},
	}); err != nil {
		logrus.Errorf("failed to send sync.failed webhook for %s: %v", job.JobID, err)
	}

	notification.NotifyError(fmt.Errorf("sync job %s failed: %s", job.JobID, message))
	return nil
}

// syncErrorMessage maps a pipeline error to the message stored on the job.
// Platform failures keep their class visible so operators can tell a revoked
// scope from an exhausted rate limit without reading logs.
func syncErrorMessage(err error) string {
	switch {
	case platform.IsKind(err, platform.RateLimited):
		return fmt.Sprintf("platform rate limit exhausted: %v", err)
	case platform.IsKind(err, platform.PermissionDenied):
		return fmt.Sprintf("platform access token missing required scope: %v", err)
	case platform.IsKind(err, platform.Unauthorized):
		return fmt.Sprintf("platform access token rejected: %v", err)
	case platform.IsKind(err, platform.Transient):
		return fmt.Sprintf("platform temporarily unavailable: %v", err)
	default:
		return err.Error()
	}
}
