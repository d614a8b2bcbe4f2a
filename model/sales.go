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

// SalesRecord is a derived, append-only sales row. OrderID is empty for
// synthetically generated records; Synthetic distinguishes the two so
// downstream consumers never mistake demo data for real revenue.
type SalesRecord struct {
	ID         int64           `json:"-"`
	SaleID     string          `json:"sale_id"`
	StoreID    string          `json:"store_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	SoldPrice  decimal.Decimal `json:"sold_price"`
	OccurredAt time.Time       `json:"occurred_at"`
	OrderID    string          `json:"order_id,omitempty"`
	Synthetic  bool            `json:"synthetic"`
}

// Revenue returns the revenue contribution of this record.
func (s SalesRecord) Revenue() decimal.Decimal {
	return s.SoldPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
