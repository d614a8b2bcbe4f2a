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
	"hash/fnv"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

type salesSummary struct {
	revenue      decimal.Decimal
	uniqueOrders int
	synthetic    bool
}

// orderBackedSales builds one sales record per order line item that maps onto
// a synced product. Line items referencing unknown products are skipped; an
// order counts as unique when at least one of its lines produced a record.
func orderBackedSales(storeID string, products []*model.Product, orders []platform.Order) ([]*model.SalesRecord, salesSummary) {
	byExternalID := make(map[string]*model.Product, len(products))
	for _, product := range products {
		byExternalID[product.ExternalID] = product
	}

	var records []*model.SalesRecord
	revenue := decimal.Zero
	uniqueOrders := 0

	for _, order := range orders {
		contributed := false
		for _, line := range order.LineItems {
			product, ok := byExternalID[strconv.FormatInt(line.ProductID, 10)]
			if !ok {
				continue
			}
			quantity := int(line.Quantity)
			if quantity <= 0 {
				continue
			}
			record := &model.SalesRecord{
				StoreID:    storeID,
				ProductID:  product.ProductID,
				Quantity:   quantity,
				SoldPrice:  line.Price,
				OccurredAt: order.CreatedAt,
				OrderID:    strconv.FormatInt(order.ID, 10),
				Synthetic:  false,
			}
			records = append(records, record)
			revenue = revenue.Add(record.Revenue())
			contributed = true
		}
		if contributed {
			uniqueOrders++
		}
	}

	return records, salesSummary{revenue: revenue, uniqueOrders: uniqueOrders, synthetic: false}
}

// syntheticSales generates one plausible sales record per product when no
// order history is available. Each record is seeded by the store and product
// identity, so re-running a sync reproduces the same quantities and prices
// instead of inventing new revenue every time.
func syntheticSales(storeID string, products []*model.Product) ([]*model.SalesRecord, salesSummary) {
	var records []*model.SalesRecord
	revenue := decimal.Zero

	for _, product := range products {
		faker := gofakeit.New(syntheticSeed(storeID, product.ExternalID))

		quantity := faker.Number(1, 5)
		soldPrice := product.Price
		if soldPrice.IsZero() {
			soldPrice = decimal.NewFromFloat(faker.Price(5, 200))
		}

		now := time.Now()
		record := &model.SalesRecord{
			StoreID:    storeID,
			ProductID:  product.ProductID,
			Quantity:   quantity,
			SoldPrice:  soldPrice,
			OccurredAt: faker.DateRange(now.AddDate(0, 0, -30), now),
			Synthetic:  true,
		}
		records = append(records, record)
		revenue = revenue.Add(record.Revenue())
	}

	return records, salesSummary{revenue: revenue, synthetic: true}
}

// syntheticSeed derives a stable seed from the store and product identity.
func syntheticSeed(storeID, externalID string) int64 {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(storeID + "|" + externalID))
	return int64(hasher.Sum32())
}
