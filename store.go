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

	"github.com/storelens/storesync/model"
)

// CreateStore registers a store and its platform credentials. The settings
// are validated before they touch the database so a store can never be
// created in a state the sync worker cannot use.
func (s *Storesync) CreateStore(ctx context.Context, store model.Store) (model.Store, error) {
	ctx, span := tracer.Start(ctx, "Creating Store")
	defer span.End()

	if err := store.Validate(); err != nil {
		return model.Store{}, err
	}

	return s.datasource.CreateStore(ctx, store)
}

// GetStoreByID retrieves a single store.
func (s *Storesync) GetStoreByID(ctx context.Context, id string) (*model.Store, error) {
	ctx, span := tracer.Start(ctx, "Fetching Store")
	defer span.End()

	return s.datasource.GetStoreByID(ctx, id)
}

// GetAllStores returns a page of registered stores.
func (s *Storesync) GetAllStores(ctx context.Context, limit, offset int) ([]model.Store, error) {
	ctx, span := tracer.Start(ctx, "Fetching All Stores")
	defer span.End()

	return s.datasource.GetAllStores(ctx, limit, offset)
}

// UpdateStoreSettings replaces a store's platform settings. Jobs claimed
// after the update pick up the new credentials; a job already running keeps
// the client it was built with.
func (s *Storesync) UpdateStoreSettings(ctx context.Context, id string, settings model.StoreSettings) error {
	ctx, span := tracer.Start(ctx, "Updating Store Settings")
	defer span.End()

	if err := settings.Validate(); err != nil {
		return err
	}

	return s.datasource.UpdateStoreSettings(ctx, id, settings)
}

// GetProducts returns a page of a store's reconciled catalog.
func (s *Storesync) GetProducts(ctx context.Context, storeID string, limit, offset int) ([]*model.Product, error) {
	ctx, span := tracer.Start(ctx, "Fetching Products")
	defer span.End()

	return s.datasource.GetProducts(ctx, storeID, limit, offset)
}

// CountProducts returns the size of a store's reconciled catalog.
func (s *Storesync) CountProducts(ctx context.Context, storeID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Counting Products")
	defer span.End()

	return s.datasource.CountProducts(ctx, storeID)
}

// GetSales returns a page of a store's derived sales records, synthetic rows
// included.
func (s *Storesync) GetSales(ctx context.Context, storeID string, limit, offset int) ([]*model.SalesRecord, error) {
	ctx, span := tracer.Start(ctx, "Fetching Sales")
	defer span.End()

	return s.datasource.GetSales(ctx, storeID, limit, offset)
}
