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
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"

	"github.com/storelens/storesync/internal/apierror"
	"github.com/storelens/storesync/model"
)

func (d Datasource) CreateStore(ctx context.Context, store model.Store) (model.Store, error) {
	ctx, span := otel.Tracer("Store").Start(ctx, "Saving store to db")
	defer span.End()

	settingsJSON, err := json.Marshal(store.Settings)
	if err != nil {
		return model.Store{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal settings", err)
	}
	metaDataJSON, err := json.Marshal(store.MetaData)
	if err != nil {
		return model.Store{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	store.StoreID = model.GenerateUUIDWithSuffix("store")
	store.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO stores (store_id, name, platform, settings, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, store.StoreID, store.Name, store.Platform, settingsJSON, store.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.Store{}, apierror.NewAPIError(apierror.ErrConflict, "Store with this ID already exists", err)
			default:
				return model.Store{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Store{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create store", err)
	}

	return store, nil
}

func (d Datasource) GetStoreByID(ctx context.Context, id string) (*model.Store, error) {
	ctx, span := otel.Tracer("Store").Start(ctx, "Fetching store from db")
	defer span.End()

	cacheKey := fmt.Sprintf("stores:%s", id)

	store := model.Store{}
	if d.Cache != nil {
		err := d.Cache.Get(ctx, cacheKey, &store)
		if err == nil && store.StoreID != "" {
			return &store, nil
		}
	}

	var settingsJSON []byte
	var metaDataJSON []byte

	err := d.Conn.QueryRowContext(ctx, `
		SELECT store_id, name, platform, settings, created_at, meta_data
		FROM stores
		WHERE store_id = $1
	`, id).Scan(&store.StoreID, &store.Name, &store.Platform, &settingsJSON, &store.CreatedAt, &metaDataJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Store not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve store", err)
	}

	err = json.Unmarshal(settingsJSON, &store.Settings)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal settings", err)
	}
	if metaDataJSON != nil {
		err = json.Unmarshal(metaDataJSON, &store.MetaData)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
		}
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, cacheKey, store, 5*time.Minute); err != nil {
			// Log the error, but don't return it as the main operation succeeded
			log.Printf("Failed to cache store: %v", err)
		}
	}

	return &store, nil
}

func (d Datasource) GetAllStores(ctx context.Context, limit, offset int) ([]model.Store, error) {
	ctx, span := otel.Tracer("Store").Start(ctx, "Fetching all stores")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT store_id, name, platform, settings, created_at, meta_data
		FROM stores
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve stores", err)
	}
	defer rows.Close()

	stores := []model.Store{}

	for rows.Next() {
		store := model.Store{}
		var settingsJSON []byte
		var metaDataJSON []byte
		err = rows.Scan(&store.StoreID, &store.Name, &store.Platform, &settingsJSON, &store.CreatedAt, &metaDataJSON)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan store data", err)
		}

		err = json.Unmarshal(settingsJSON, &store.Settings)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal settings", err)
		}
		if metaDataJSON != nil {
			err = json.Unmarshal(metaDataJSON, &store.MetaData)
			if err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal metadata", err)
			}
		}

		stores = append(stores, store)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over stores", err)
	}

	return stores, nil
}

func (d Datasource) UpdateStoreSettings(ctx context.Context, id string, settings model.StoreSettings) error {
	ctx, span := otel.Tracer("Store").Start(ctx, "Updating store settings")
	defer span.End()

	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal settings", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE stores
		SET settings = $2
		WHERE store_id = $1
	`, id, settingsJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update store settings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to check update result", err)
	}
	if rows == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, "Store not found", nil)
	}

	if d.Cache != nil {
		if err := d.Cache.Delete(ctx, fmt.Sprintf("stores:%s", id)); err != nil {
			log.Printf("Failed to invalidate store cache: %v", err)
		}
	}

	return nil
}
