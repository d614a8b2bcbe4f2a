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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

func TestReconcileProduct(t *testing.T) {
	tests := []struct {
		name   string
		item   platform.Product
		reason string
	}{
		{
			name: "valid product",
			item: platform.Product{ID: 1, Title: "Widget", Price: decimal.NewFromInt(10), Status: "active"},
		},
		{
			name:   "missing external ID",
			item:   platform.Product{Title: "Widget", Price: decimal.NewFromInt(10)},
			reason: "missing external product ID",
		},
		{
			name:   "blank title",
			item:   platform.Product{ID: 2, Title: "   ", Price: decimal.NewFromInt(10)},
			reason: "missing product title",
		},
		{
			name:   "negative price",
			item:   platform.Product{ID: 3, Title: "Widget", Price: decimal.NewFromInt(-1)},
			reason: "negative price",
		},
		{
			name:   "unknown status",
			item:   platform.Product{ID: 4, Title: "Widget", Price: decimal.NewFromInt(10), Status: "banana"},
			reason: "unknown product status: banana",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, reason := reconcileProduct("store_1", tt.item)
			assert.Equal(t, tt.reason, reason)
			if tt.reason == "" {
				require.NotNil(t, product)
				assert.Equal(t, "store_1", product.StoreID)
				assert.Equal(t, "1", product.ExternalID)
			} else {
				assert.Nil(t, product)
			}
		})
	}
}

func TestReconcileProduct_Normalization(t *testing.T) {
	product, reason := reconcileProduct("store_1", platform.Product{
		ID:        5,
		Title:     "  Widget  ",
		Price:     decimal.NewFromInt(10),
		Inventory: -3,
	})
	require.Empty(t, reason)
	assert.Equal(t, "Widget", product.Title)
	assert.Equal(t, 0, product.Inventory)
	assert.Equal(t, model.ProductStatusActive, product.Status)
}

func TestReconcileProductPage_BadRowsIsolated(t *testing.T) {
	items := []platform.Product{
		{ID: 1, Title: "Good One", Price: decimal.NewFromInt(5)},
		{ID: 2, Title: "", Price: decimal.NewFromInt(5)},
		{ID: 3, Title: "Good Two", Price: decimal.NewFromInt(5)},
	}

	products, failures := reconcileProductPage("store_1", items)

	require.Len(t, products, 2)
	assert.Equal(t, "1", products[0].ExternalID)
	assert.Equal(t, "3", products[1].ExternalID)

	require.Len(t, failures, 1)
	assert.Equal(t, "2", failures[0].ExternalID)
	assert.Equal(t, "missing product title", failures[0].Reason)
}
