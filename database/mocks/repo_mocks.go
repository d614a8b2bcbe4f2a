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
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/storelens/storesync/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Store methods

func (m *MockDataSource) CreateStore(ctx context.Context, store model.Store) (model.Store, error) {
	args := m.Called(ctx, store)
	return args.Get(0).(model.Store), args.Error(1)
}

func (m *MockDataSource) GetStoreByID(ctx context.Context, id string) (*model.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Store), args.Error(1)
}

func (m *MockDataSource) GetAllStores(ctx context.Context, limit, offset int) ([]model.Store, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Store), args.Error(1)
}

func (m *MockDataSource) UpdateStoreSettings(ctx context.Context, id string, settings model.StoreSettings) error {
	args := m.Called(ctx, id, settings)
	return args.Error(0)
}

// Product methods

func (m *MockDataSource) UpsertProducts(ctx context.Context, storeID string, products []*model.Product) (int, error) {
	args := m.Called(ctx, storeID, products)
	return args.Int(0), args.Error(1)
}

func (m *MockDataSource) GetProductByExternalID(ctx context.Context, storeID, externalID string) (*model.Product, error) {
	args := m.Called(ctx, storeID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockDataSource) GetProducts(ctx context.Context, storeID string, limit, offset int) ([]*model.Product, error) {
	args := m.Called(ctx, storeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

func (m *MockDataSource) CountProducts(ctx context.Context, storeID string) (int64, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(int64), args.Error(1)
}

// Sales methods

func (m *MockDataSource) RecordSales(ctx context.Context, records []*model.SalesRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockDataSource) GetSales(ctx context.Context, storeID string, limit, offset int) ([]*model.SalesRecord, error) {
	args := m.Called(ctx, storeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SalesRecord), args.Error(1)
}

func (m *MockDataSource) DeleteSyntheticSales(ctx context.Context, storeID string) error {
	args := m.Called(ctx, storeID)
	return args.Error(0)
}

// Sync job methods

func (m *MockDataSource) ClaimSyncJob(ctx context.Context, job *model.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockDataSource) MarkSyncJobRunning(ctx context.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockDataSource) UpdateSyncJobProgress(ctx context.Context, jobID string, progress model.SyncProgress) error {
	args := m.Called(ctx, jobID, progress)
	return args.Error(0)
}

func (m *MockDataSource) FinalizeSyncJob(ctx context.Context, jobID string, status string, result *model.SyncResult, errMsg string) error {
	args := m.Called(ctx, jobID, status, result, errMsg)
	return args.Error(0)
}

func (m *MockDataSource) GetSyncJob(ctx context.Context, jobID string) (*model.SyncJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncJob), args.Error(1)
}

func (m *MockDataSource) GetLatestSyncJob(ctx context.Context, storeID string) (*model.SyncJob, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncJob), args.Error(1)
}

func (m *MockDataSource) GetSyncJobs(ctx context.Context, storeID string, limit, offset int) ([]*model.SyncJob, error) {
	args := m.Called(ctx, storeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SyncJob), args.Error(1)
}

func (m *MockDataSource) GetPendingSyncJobs(ctx context.Context) ([]*model.SyncJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SyncJob), args.Error(1)
}

func (m *MockDataSource) FailStaleSyncJobs(ctx context.Context, staleAfter time.Duration) (int64, error) {
	args := m.Called(ctx, staleAfter)
	return args.Get(0).(int64), args.Error(1)
}
