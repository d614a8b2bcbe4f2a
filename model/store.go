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

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// StoreSettings is the typed per-store platform configuration. It replaces
// ad-hoc JSON metadata columns: every field is declared here and validated
// when the store is created, not probed at query time.
type StoreSettings struct {
	Domain      string `json:"domain"`       // platform shop domain, e.g. "acme.myshopify.com"
	AccessToken string `json:"access_token"` // platform admin API access token
	PageSize    int    `json:"page_size"`    // optional per-store page size override
}

// Store represents a connected merchant store.
type Store struct {
	ID        int64                  `json:"-"`
	StoreID   string                 `json:"store_id"`
	Name      string                 `json:"name"`
	Platform  string                 `json:"platform"`
	Settings  StoreSettings          `json:"settings"`
	CreatedAt time.Time              `json:"created_at"`
	MetaData  map[string]interface{} `json:"meta_data,omitempty"`
}

// Validate checks the typed store settings at load/create time.
func (s StoreSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Domain, validation.Required),
		validation.Field(&s.AccessToken, validation.Required),
		validation.Field(&s.PageSize, validation.Min(0), validation.Max(250)),
	)
}

// Validate checks the store record before it is persisted.
func (s *Store) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.Platform, validation.Required, validation.In("shopify", "woocommerce")),
		validation.Field(&s.Settings),
	)
}
