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
	"time"

	"github.com/storelens/storesync/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	store   // Interface for store-related operations
	product // Interface for product catalog operations
	sales   // Interface for sales record operations
	syncJob // Interface for sync job lifecycle operations
}

// store defines methods for handling connected stores.
type store interface {
	CreateStore(ctx context.Context, store model.Store) (model.Store, error) // Registers a new store
	GetStoreByID(ctx context.Context, id string) (*model.Store, error)       // Retrieves a store by ID
	GetAllStores(ctx context.Context, limit, offset int) ([]model.Store, error)
	UpdateStoreSettings(ctx context.Context, id string, settings model.StoreSettings) error // Updates a store's platform settings
}

// product defines methods for handling the synced product catalog.
type product interface {
	UpsertProducts(ctx context.Context, storeID string, products []*model.Product) (int, error)    // Upserts a page of products, returns rows written
	GetProductByExternalID(ctx context.Context, storeID, externalID string) (*model.Product, error) // Retrieves a product by its platform ID
	GetProducts(ctx context.Context, storeID string, limit, offset int) ([]*model.Product, error)   // Retrieves products for a store
	CountProducts(ctx context.Context, storeID string) (int64, error)                               // Counts products for a store
}

// sales defines methods for handling derived sales records.
type sales interface {
	RecordSales(ctx context.Context, records []*model.SalesRecord) error                           // Inserts a batch of sales records
	GetSales(ctx context.Context, storeID string, limit, offset int) ([]*model.SalesRecord, error) // Retrieves sales records for a store
	DeleteSyntheticSales(ctx context.Context, storeID string) error                                // Removes previously generated synthetic sales
}

// syncJob defines methods for handling the sync job state machine.
type syncJob interface {
	ClaimSyncJob(ctx context.Context, job *model.SyncJob) error                                              // Inserts a pending job iff the store has no active job
	MarkSyncJobRunning(ctx context.Context, jobID string) error                                              // Transitions a pending job to running
	UpdateSyncJobProgress(ctx context.Context, jobID string, progress model.SyncProgress) error              // Records per-page progress
	FinalizeSyncJob(ctx context.Context, jobID string, status string, result *model.SyncResult, errMsg string) error // Moves a job to a terminal state
	GetSyncJob(ctx context.Context, jobID string) (*model.SyncJob, error)                                    // Retrieves a job by ID
	GetLatestSyncJob(ctx context.Context, storeID string) (*model.SyncJob, error)                            // Retrieves the most recent job for a store
	GetSyncJobs(ctx context.Context, storeID string, limit, offset int) ([]*model.SyncJob, error)            // Retrieves job history for a store
	GetPendingSyncJobs(ctx context.Context) ([]*model.SyncJob, error)                                        // Retrieves all pending jobs for queue recovery
	FailStaleSyncJobs(ctx context.Context, staleAfter time.Duration) (int64, error)                          // Fails running jobs with no recent heartbeat
}
