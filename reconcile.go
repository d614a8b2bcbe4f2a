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
	"strconv"
	"strings"

	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

// reconcileProductPage maps one page of raw platform products onto the local
// model. Bad rows are recorded as row failures and skipped; they never fail
// the page around them.
func reconcileProductPage(storeID string, items []platform.Product) ([]*model.Product, []model.RowFailure) {
	var products []*model.Product
	var failures []model.RowFailure

	for _, item := range items {
		product, reason := reconcileProduct(storeID, item)
		if reason != "" {
			failures = append(failures, model.RowFailure{
				ExternalID: strconv.FormatInt(item.ID, 10),
				Reason:     reason,
			})
			continue
		}
		products = append(products, product)
	}

	return products, failures
}

// reconcileProduct validates and converts a single platform product. The
// returned reason is empty on success.
func reconcileProduct(storeID string, item platform.Product) (*model.Product, string) {
	if item.ID == 0 {
		return nil, "missing external product ID"
	}
	if strings.TrimSpace(item.Title) == "" {
		return nil, "missing product title"
	}
	if item.Price.IsNegative() {
		return nil, "negative price"
	}

	status := item.Status
	switch status {
	case model.ProductStatusActive, model.ProductStatusArchived, model.ProductStatusDraft:
	case "":
		status = model.ProductStatusActive
	default:
		return nil, "unknown product status: " + status
	}

	inventory := item.Inventory
	if inventory < 0 {
		// platforms report negative inventory for oversold items
		inventory = 0
	}

	return &model.Product{
		StoreID:           storeID,
		ExternalID:        strconv.FormatInt(item.ID, 10),
		SKU:               item.SKU,
		Title:             strings.TrimSpace(item.Title),
		Price:             item.Price,
		Inventory:         int(inventory),
		Status:            status,
		Vendor:            item.Vendor,
		Type:              item.Type,
		Tags:              item.Tags,
		ExternalCreatedAt: item.CreatedAt,
		ExternalUpdatedAt: item.UpdatedAt,
	}, ""
}
