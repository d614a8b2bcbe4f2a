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
	"time"

	"go.opentelemetry.io/otel"

	"github.com/storelens/storesync/internal/apierror"
	"github.com/storelens/storesync/model"
)

// UpsertProducts writes one page of reconciled products in a single
// transaction. Conflicts on (store_id, external_id) update the existing row
// in place, so replaying a page is idempotent. product_id is assigned on
// first insert and never overwritten.
func (d Datasource) UpsertProducts(ctx context.Context, storeID string, products []*model.Product) (int, error) {
	ctx, span := otel.Tracer("Product").Start(ctx, "Upserting products batch")
	defer span.End()

	if len(products) == 0 {
		return 0, nil
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (
			product_id, store_id, external_id, sku, title, price, inventory,
			status, vendor, product_type, tags, external_created_at,
			external_updated_at, synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (store_id, external_id) DO UPDATE SET
			sku = EXCLUDED.sku,
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			inventory = EXCLUDED.inventory,
			status = EXCLUDED.status,
			vendor = EXCLUDED.vendor,
			product_type = EXCLUDED.product_type,
			tags = EXCLUDED.tags,
			external_updated_at = EXCLUDED.external_updated_at,
			synced_at = EXCLUDED.synced_at
	`)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to prepare product upsert", err)
	}
	defer stmt.Close()

	written := 0
	now := time.Now()
	for _, product := range products {
		if product.ProductID == "" {
			product.ProductID = model.GenerateUUIDWithSuffix("prod")
		}
		product.SyncedAt = now

		_, err = stmt.ExecContext(ctx,
			product.ProductID, storeID, product.ExternalID, product.SKU,
			product.Title, product.Price, product.Inventory, product.Status,
			product.Vendor, product.Type, product.Tags,
			product.ExternalCreatedAt, product.ExternalUpdatedAt, product.SyncedAt,
		)
		if err != nil {
			return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to upsert product", err)
		}
		written++
	}

	if err = tx.Commit(); err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit product batch", err)
	}

	return written, nil
}

func (d Datasource) GetProductByExternalID(ctx context.Context, storeID, externalID string) (*model.Product, error) {
	ctx, span := otel.Tracer("Product").Start(ctx, "Fetching product by external ID")
	defer span.End()

	product := model.Product{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT product_id, store_id, external_id, sku, title, price, inventory,
			status, vendor, product_type, tags, external_created_at,
			external_updated_at, synced_at
		FROM products
		WHERE store_id = $1 AND external_id = $2
	`, storeID, externalID).Scan(
		&product.ProductID, &product.StoreID, &product.ExternalID, &product.SKU,
		&product.Title, &product.Price, &product.Inventory, &product.Status,
		&product.Vendor, &product.Type, &product.Tags,
		&product.ExternalCreatedAt, &product.ExternalUpdatedAt, &product.SyncedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, "Product not found", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve product", err)
	}

	return &product, nil
}

func (d Datasource) GetProducts(ctx context.Context, storeID string, limit, offset int) ([]*model.Product, error) {
	ctx, span := otel.Tracer("Product").Start(ctx, "Fetching products for store")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT product_id, store_id, external_id, sku, title, price, inventory,
			status, vendor, product_type, tags, external_created_at,
			external_updated_at, synced_at
		FROM products
		WHERE store_id = $1
		ORDER BY synced_at DESC
		LIMIT $2 OFFSET $3
	`, storeID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve products", err)
	}
	defer rows.Close()

	var products []*model.Product

	for rows.Next() {
		product := &model.Product{}
		err = rows.Scan(
			&product.ProductID, &product.StoreID, &product.ExternalID, &product.SKU,
			&product.Title, &product.Price, &product.Inventory, &product.Status,
			&product.Vendor, &product.Type, &product.Tags,
			&product.ExternalCreatedAt, &product.ExternalUpdatedAt, &product.SyncedAt,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan product data", err)
		}

		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over products", err)
	}

	return products, nil
}

func (d Datasource) CountProducts(ctx context.Context, storeID string) (int64, error) {
	ctx, span := otel.Tracer("Product").Start(ctx, "Counting products for store")
	defer span.End()

	var count int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE store_id = $1
	`, storeID).Scan(&count)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count products", err)
	}

	return count, nil
}
