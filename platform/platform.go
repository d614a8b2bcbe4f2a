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

// Package platform talks to the e-commerce platform's admin REST API. It
// exposes typed page fetchers for products and orders with cursor-based
// pagination, and classifies every failure into an ErrorKind so callers can
// branch on the failure class instead of matching message strings.
package platform

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorKind classifies a platform API failure.
type ErrorKind string

const (
	// RateLimited means the platform rejected the request with 429 and the
	// retry budget was exhausted.
	RateLimited ErrorKind = "RATE_LIMITED"
	// PermissionDenied means the access token lacks the required scope (403).
	PermissionDenied ErrorKind = "PERMISSION_DENIED"
	// Unauthorized means the access token itself was rejected (401).
	Unauthorized ErrorKind = "UNAUTHORIZED"
	// Transient covers network failures and 5xx responses that kept failing
	// after retries.
	Transient ErrorKind = "TRANSIENT"
	// Invalid covers malformed responses and unexpected client errors.
	Invalid ErrorKind = "INVALID"
)

// Error is the typed failure the client returns. Callers discriminate with
// errors.As and inspect Kind.
type Error struct {
	Kind       ErrorKind
	Resource   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("platform %s fetch failed (%s): %v", e.Resource, e.Kind, e.Err)
	}
	return fmt.Sprintf("platform %s fetch failed (%s): status %d", e.Resource, e.Kind, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a platform Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Kind == kind
}

// Product is a catalog item as the platform returns it.
type Product struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Vendor    string          `json:"vendor"`
	Type      string          `json:"product_type"`
	Status    string          `json:"status"`
	Tags      string          `json:"tags"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Inventory int64           `json:"inventory_quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LineItem is a single product line inside an order.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order is a placed order as the platform returns it.
type Order struct {
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	LineItems []LineItem `json:"line_items"`
}

// Page carries one page of results plus the opaque cursor for the next page.
// An empty NextCursor means the listing is exhausted.
type Page[T any] struct {
	Items      []T
	NextCursor string
}
