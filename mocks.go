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
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/storelens/storesync/database"
	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

// fakePlatform is a scriptable platform.Fetcher for tests. Unset fields
// return an empty final page.
type fakePlatform struct {
	products func(cursor string) (*platform.Page[platform.Product], error)
	orders   func(cursor string) (*platform.Page[platform.Order], error)
}

func (f *fakePlatform) FetchProducts(_ context.Context, cursor string) (*platform.Page[platform.Product], error) {
	if f.products == nil {
		return &platform.Page[platform.Product]{}, nil
	}
	return f.products(cursor)
}

func (f *fakePlatform) FetchOrders(_ context.Context, cursor string) (*platform.Page[platform.Order], error) {
	if f.orders == nil {
		return &platform.Page[platform.Order]{}, nil
	}
	return f.orders(cursor)
}

// newTestStoresync wires a service around a mock datasource and a scripted
// platform, with no queue attached.
func newTestStoresync(ds database.IDataSource, fetcher platform.Fetcher) *Storesync {
	return &Storesync{
		datasource: ds,
		platformFactory: func(_ *model.Store) (platform.Fetcher, error) {
			return fetcher, nil
		},
	}
}

// productBatch generates n sequential catalog items starting at external ID
// start.
func productBatch(start, n int) []platform.Product {
	items := make([]platform.Product, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, platform.Product{
			ID:        int64(start + i),
			Title:     fmt.Sprintf("Product %d", start+i),
			Price:     decimal.NewFromInt(int64(10 + i%50)),
			Inventory: int64(i % 20),
			Status:    "active",
		})
	}
	return items
}

// ordersDenied scripts the order listing of a store whose token lacks the
// order scope.
func ordersDenied(_ string) (*platform.Page[platform.Order], error) {
	return nil, &platform.Error{Kind: platform.PermissionDenied, Resource: "orders", StatusCode: http.StatusForbidden}
}
