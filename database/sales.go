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

	"go.opentelemetry.io/otel"

	"github.com/storelens/storesync/internal/apierror"
	"github.com/storelens/storesync/model"
)

// RecordSales inserts a batch of derived sales records in one transaction.
func (d Datasource) RecordSales(ctx context.Context, records []*model.SalesRecord) error {
	ctx, span := otel.Tracer("Sales").Start(ctx, "Saving sales batch to db")
	defer span.End()

	if len(records) == 0 {
		return nil
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales (
			sale_id, store_id, product_id, quantity, sold_price,
			occurred_at, order_id, synthetic
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to prepare sales insert", err)
	}
	defer stmt.Close()

	for _, record := range records {
		if record.SaleID == "" {
			record.SaleID = model.GenerateUUIDWithSuffix("sale")
		}
		_, err = stmt.ExecContext(ctx,
			record.SaleID, record.StoreID, record.ProductID, record.Quantity,
			record.SoldPrice, record.OccurredAt, record.OrderID, record.Synthetic,
		)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to insert sales record", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit sales batch", err)
	}

	return nil
}

func (d Datasource) GetSales(ctx context.Context, storeID string, limit, offset int) ([]*model.SalesRecord, error) {
	ctx, span := otel.Tracer("Sales").Start(ctx, "Fetching sales for store")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT sale_id, store_id, product_id, quantity, sold_price,
			occurred_at, order_id, synthetic
		FROM sales
		WHERE store_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`, storeID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve sales", err)
	}
	defer rows.Close()

	var records []*model.SalesRecord

	for rows.Next() {
		record := &model.SalesRecord{}
		err = rows.Scan(
			&record.SaleID, &record.StoreID, &record.ProductID, &record.Quantity,
			&record.SoldPrice, &record.OccurredAt, &record.OrderID, &record.Synthetic,
		)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan sales data", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over sales", err)
	}

	return records, nil
}

// DeleteSyntheticSales removes generated sales for a store so a later run
// backed by real orders can replace them without double counting.
func (d Datasource) DeleteSyntheticSales(ctx context.Context, storeID string) error {
	ctx, span := otel.Tracer("Sales").Start(ctx, "Deleting synthetic sales for store")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		DELETE FROM sales
		WHERE store_id = $1 AND synthetic = TRUE
	`, storeID)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete synthetic sales", err)
	}

	return nil
}
