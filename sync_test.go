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
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/database/mocks"
	"github.com/storelens/storesync/internal/apierror"
	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

func init() {
	config.MockConfig(&config.Configuration{})
}

func testStore(storeID string) *model.Store {
	return &model.Store{
		StoreID:  storeID,
		Name:     "Test Store",
		Platform: "shopify",
		Settings: model.StoreSettings{Domain: "test.myshopify.com", AccessToken: "shpat_test"},
	}
}

func pendingJob(jobID, storeID string) *model.SyncJob {
	return &model.SyncJob{JobID: jobID, StoreID: storeID, SyncType: model.SyncTypeFull, Status: model.JobStatusPending}
}

// Three catalog pages of 50, 50 and 22 items, no order access: the job must
// complete with 122 processed items and a synthetic sales summary.
func TestRunSyncJob_SyntheticScenario(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	fetcher := &fakePlatform{
		products: func(cursor string) (*platform.Page[platform.Product], error) {
			switch cursor {
			case "":
				return &platform.Page[platform.Product]{Items: productBatch(1000, 50), NextCursor: "p2"}, nil
			case "p2":
				return &platform.Page[platform.Product]{Items: productBatch(1050, 50), NextCursor: "p3"}, nil
			case "p3":
				return &platform.Page[platform.Product]{Items: productBatch(1100, 22)}, nil
			default:
				t.Fatalf("unexpected cursor %q", cursor)
				return nil, nil
			}
		},
		orders: ordersDenied,
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_1").Return(pendingJob("job_1", "store_4"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_1").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_4").Return(testStore("store_4"), nil)
	mockDS.On("UpsertProducts", mock.Anything, "store_4", mock.Anything).Return(0, nil)

	var progressUpdates []model.SyncProgress
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_1", mock.Anything).
		Run(func(args mock.Arguments) {
			progressUpdates = append(progressUpdates, args.Get(2).(model.SyncProgress))
		}).Return(nil)

	mockDS.On("DeleteSyntheticSales", mock.Anything, "store_4").Return(nil)

	var recorded []*model.SalesRecord
	mockDS.On("RecordSales", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).([]*model.SalesRecord)
		}).Return(nil)

	var finalResult *model.SyncResult
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_1", model.JobStatusCompleted, mock.Anything, "").
		Run(func(args mock.Arguments) {
			finalResult = args.Get(3).(*model.SyncResult)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_1")
	require.NoError(t, err)

	require.NotNil(t, finalResult)
	assert.Equal(t, 122, finalResult.ProductsSynced)
	assert.Equal(t, 122, finalResult.SalesGenerated)
	assert.True(t, finalResult.Synthetic)
	assert.Equal(t, 0, finalResult.UniqueOrders)
	assert.True(t, finalResult.Revenue.GreaterThan(decimal.Zero))
	assert.Len(t, recorded, 122)

	// progress walks through every step with cumulative counters
	require.GreaterOrEqual(t, len(progressUpdates), 6)
	assert.Equal(t, model.StepFetchingProducts, progressUpdates[0].CurrentStep)
	assert.Equal(t, 50, progressUpdates[1].ProcessedItems)
	assert.Equal(t, 100, progressUpdates[2].ProcessedItems)
	assert.Equal(t, 122, progressUpdates[3].ProcessedItems)
	require.NotNil(t, progressUpdates[3].TotalItems)
	assert.Equal(t, 122, *progressUpdates[3].TotalItems)
	assert.Equal(t, model.StepFetchingOrders, progressUpdates[4].CurrentStep)
	assert.Equal(t, model.StepDerivingSales, progressUpdates[5].CurrentStep)

	mockDS.AssertExpectations(t)
}

// A rate-limited second page fails the job, but the progress committed for
// page one stays in place and nothing is rolled back.
func TestRunSyncJob_RateLimitedMidway(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	fetcher := &fakePlatform{
		products: func(cursor string) (*platform.Page[platform.Product], error) {
			if cursor == "" {
				return &platform.Page[platform.Product]{Items: productBatch(2000, 50), NextCursor: "p2"}, nil
			}
			return nil, &platform.Error{Kind: platform.RateLimited, Resource: "products", StatusCode: http.StatusTooManyRequests}
		},
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_2").Return(pendingJob("job_2", "store_4"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_2").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_4").Return(testStore("store_4"), nil)
	mockDS.On("UpsertProducts", mock.Anything, "store_4", mock.Anything).Return(0, nil)

	var progressUpdates []model.SyncProgress
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_2", mock.Anything).
		Run(func(args mock.Arguments) {
			progressUpdates = append(progressUpdates, args.Get(2).(model.SyncProgress))
		}).Return(nil)

	var failureMessage string
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_2", model.JobStatusFailed, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			failureMessage = args.Get(4).(string)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_2")
	require.NoError(t, err)

	assert.Contains(t, failureMessage, "rate limit")

	// page one's progress was committed before the failure
	require.Len(t, progressUpdates, 2)
	assert.Equal(t, 50, progressUpdates[1].ProcessedItems)

	mockDS.AssertNotCalled(t, "RecordSales", mock.Anything, mock.Anything)
	mockDS.AssertNotCalled(t, "DeleteSyntheticSales", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

// With real order history the deriver maps line items onto synced products
// and the result is not flagged synthetic.
func TestRunSyncJob_OrderBacked(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	orders := []platform.Order{
		{ID: 501, LineItems: []platform.LineItem{
			{ProductID: 3000, Quantity: 2, Price: decimal.NewFromInt(10)},
			{ProductID: 3001, Quantity: 1, Price: decimal.NewFromInt(25)},
		}},
		{ID: 502, LineItems: []platform.LineItem{
			{ProductID: 3000, Quantity: 1, Price: decimal.NewFromInt(10)},
			{ProductID: 9999, Quantity: 4, Price: decimal.NewFromInt(99)}, // unknown product
		}},
	}

	fetcher := &fakePlatform{
		products: func(string) (*platform.Page[platform.Product], error) {
			return &platform.Page[platform.Product]{Items: productBatch(3000, 2)}, nil
		},
		orders: func(string) (*platform.Page[platform.Order], error) {
			return &platform.Page[platform.Order]{Items: orders}, nil
		},
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_3").Return(pendingJob("job_3", "store_7"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_3").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_7").Return(testStore("store_7"), nil)
	mockDS.On("UpsertProducts", mock.Anything, "store_7", mock.Anything).Return(0, nil)
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_3", mock.Anything).Return(nil)

	var recorded []*model.SalesRecord
	mockDS.On("RecordSales", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			recorded = args.Get(1).([]*model.SalesRecord)
		}).Return(nil)

	var finalResult *model.SyncResult
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_3", model.JobStatusCompleted, mock.Anything, "").
		Run(func(args mock.Arguments) {
			finalResult = args.Get(3).(*model.SyncResult)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_3")
	require.NoError(t, err)

	require.NotNil(t, finalResult)
	assert.False(t, finalResult.Synthetic)
	assert.Equal(t, 3, finalResult.SalesGenerated)
	assert.Equal(t, 2, finalResult.UniqueOrders)
	assert.True(t, finalResult.Revenue.Equal(decimal.NewFromInt(55))) // 2*10 + 1*25 + 1*10

	for _, record := range recorded {
		assert.False(t, record.Synthetic)
		assert.NotEmpty(t, record.OrderID)
	}

	mockDS.AssertNotCalled(t, "DeleteSyntheticSales", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

// A store whose token can read orders but whose history is empty stays in
// order-backed mode: no sales are fabricated and no synthetic rows are touched.
func TestRunSyncJob_EmptyOrderHistoryNotSynthetic(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	fetcher := &fakePlatform{
		products: func(string) (*platform.Page[platform.Product], error) {
			return &platform.Page[platform.Product]{Items: productBatch(5000, 3)}, nil
		},
		orders: func(string) (*platform.Page[platform.Order], error) {
			return &platform.Page[platform.Order]{}, nil
		},
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_6").Return(pendingJob("job_6", "store_11"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_6").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_11").Return(testStore("store_11"), nil)
	mockDS.On("UpsertProducts", mock.Anything, "store_11", mock.Anything).Return(0, nil)
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_6", mock.Anything).Return(nil)
	mockDS.On("RecordSales", mock.Anything, mock.Anything).Return(nil)

	var finalResult *model.SyncResult
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_6", model.JobStatusCompleted, mock.Anything, "").
		Run(func(args mock.Arguments) {
			finalResult = args.Get(3).(*model.SyncResult)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_6")
	require.NoError(t, err)

	require.NotNil(t, finalResult)
	assert.False(t, finalResult.Synthetic)
	assert.Equal(t, 0, finalResult.SalesGenerated)
	assert.True(t, finalResult.Revenue.IsZero())

	mockDS.AssertNotCalled(t, "DeleteSyntheticSales", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

// A malformed row fails alone: the rest of its page reconciles and the job
// still completes, with the failure reported in the result.
func TestRunSyncJob_RowFailureContained(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	items := productBatch(4000, 2)
	items = append(items, platform.Product{ID: 4002, Title: "   ", Price: decimal.NewFromInt(5)})

	fetcher := &fakePlatform{
		products: func(string) (*platform.Page[platform.Product], error) {
			return &platform.Page[platform.Product]{Items: items}, nil
		},
		orders: ordersDenied,
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_4").Return(pendingJob("job_4", "store_9"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_4").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_9").Return(testStore("store_9"), nil)

	var upserted []*model.Product
	mockDS.On("UpsertProducts", mock.Anything, "store_9", mock.Anything).
		Run(func(args mock.Arguments) {
			upserted = args.Get(2).([]*model.Product)
		}).Return(0, nil)

	var reconcileProgress model.SyncProgress
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_4", mock.Anything).
		Run(func(args mock.Arguments) {
			progress := args.Get(2).(model.SyncProgress)
			if progress.CurrentStep == model.StepReconciling {
				reconcileProgress = progress
			}
		}).Return(nil)
	mockDS.On("DeleteSyntheticSales", mock.Anything, "store_9").Return(nil)
	mockDS.On("RecordSales", mock.Anything, mock.Anything).Return(nil)

	var finalResult *model.SyncResult
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_4", model.JobStatusCompleted, mock.Anything, "").
		Run(func(args mock.Arguments) {
			finalResult = args.Get(3).(*model.SyncResult)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_4")
	require.NoError(t, err)

	assert.Len(t, upserted, 2)
	assert.Equal(t, 2, reconcileProgress.ProcessedItems)
	assert.Equal(t, 1, reconcileProgress.FailedItems)
	require.NotNil(t, reconcileProgress.TotalItems)
	assert.Equal(t, 3, *reconcileProgress.TotalItems)
	assert.LessOrEqual(t, reconcileProgress.ProcessedItems+reconcileProgress.FailedItems, *reconcileProgress.TotalItems)

	require.NotNil(t, finalResult)
	assert.Equal(t, 2, finalResult.ProductsSynced)
	require.Len(t, finalResult.RowFailures, 1)
	assert.Equal(t, "4002", finalResult.RowFailures[0].ExternalID)
	assert.Equal(t, "missing product title", finalResult.RowFailures[0].Reason)

	mockDS.AssertExpectations(t)
}

func TestRunSyncJob_UnauthorizedFailsJob(t *testing.T) {
	mockDS := new(mocks.MockDataSource)

	fetcher := &fakePlatform{
		products: func(string) (*platform.Page[platform.Product], error) {
			return nil, &platform.Error{Kind: platform.Unauthorized, Resource: "products", StatusCode: http.StatusUnauthorized}
		},
	}
	service := newTestStoresync(mockDS, fetcher)

	mockDS.On("GetSyncJob", mock.Anything, "job_5").Return(pendingJob("job_5", "store_4"), nil)
	mockDS.On("MarkSyncJobRunning", mock.Anything, "job_5").Return(nil)
	mockDS.On("GetStoreByID", mock.Anything, "store_4").Return(testStore("store_4"), nil)
	mockDS.On("UpdateSyncJobProgress", mock.Anything, "job_5", mock.Anything).Return(nil)

	var failureMessage string
	mockDS.On("FinalizeSyncJob", mock.Anything, "job_5", model.JobStatusFailed, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			failureMessage = args.Get(4).(string)
		}).Return(nil)

	err := service.RunSyncJob(context.Background(), "job_5")
	require.NoError(t, err)
	assert.Contains(t, failureMessage, "token rejected")

	mockDS.AssertExpectations(t)
}

func TestRunSyncJob_TerminalJobSkipped(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := newTestStoresync(mockDS, &fakePlatform{})

	done := pendingJob("job_6", "store_4")
	done.Status = model.JobStatusCompleted
	mockDS.On("GetSyncJob", mock.Anything, "job_6").Return(done, nil)

	err := service.RunSyncJob(context.Background(), "job_6")
	require.NoError(t, err)

	mockDS.AssertNotCalled(t, "MarkSyncJobRunning", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}

func TestStartSync_Success(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := newTestStoresync(mockDS, &fakePlatform{})

	mockDS.On("GetStoreByID", mock.Anything, "store_4").Return(testStore("store_4"), nil)
	mockDS.On("ClaimSyncJob", mock.Anything, mock.Anything).Return(nil)

	job, err := service.StartSync(context.Background(), "store_4", "")
	require.NoError(t, err)
	assert.Contains(t, job.JobID, "job_")
	assert.Equal(t, model.SyncTypeFull, job.SyncType)
	assert.Equal(t, "store_4", job.StoreID)

	mockDS.AssertExpectations(t)
}

// A second StartSync while a job is active surfaces the claim conflict
// untouched, so API callers can map it to 409.
func TestStartSync_AlreadyRunning(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := newTestStoresync(mockDS, &fakePlatform{})

	mockDS.On("GetStoreByID", mock.Anything, "store_4").Return(testStore("store_4"), nil)
	mockDS.On("ClaimSyncJob", mock.Anything, mock.Anything).
		Return(apierror.NewAPIError(apierror.ErrConflict, "A sync job is already running for this store", nil))

	_, err := service.StartSync(context.Background(), "store_4", model.SyncTypeFull)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrConflict))

	mockDS.AssertExpectations(t)
}

func TestStartSync_StoreNotFound(t *testing.T) {
	mockDS := new(mocks.MockDataSource)
	service := newTestStoresync(mockDS, &fakePlatform{})

	mockDS.On("GetStoreByID", mock.Anything, "store_missing").
		Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Store not found", nil))

	_, err := service.StartSync(context.Background(), "store_missing", model.SyncTypeFull)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))

	mockDS.AssertNotCalled(t, "ClaimSyncJob", mock.Anything, mock.Anything)
	mockDS.AssertExpectations(t)
}
