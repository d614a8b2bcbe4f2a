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
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product statuses mirror the platform catalog states.
const (
	ProductStatusActive   = "active"
	ProductStatusArchived = "archived"
	ProductStatusDraft    = "draft"
)

// Product is the local projection of an external catalog item. A product is
// uniquely identified by (store_id, external_id); price and inventory always
// reflect the most recently synced snapshot.
type Product struct {
	ID                int64           `json:"-"`
	ProductID         string          `json:"product_id"`
	StoreID           string          `json:"store_id"`
	ExternalID        string          `json:"external_id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	Price             decimal.Decimal `json:"price"`
	Inventory         int             `json:"inventory"`
	Status            string          `json:"status"`
	Vendor            string          `json:"vendor"`
	Type              string          `json:"type"`
	Tags              string          `json:"tags"`
	ExternalCreatedAt time.Time       `json:"external_created_at"`
	ExternalUpdatedAt time.Time       `json:"external_updated_at"`
	SyncedAt          time.Time       `json:"synced_at"`
}
