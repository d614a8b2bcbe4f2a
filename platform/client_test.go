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

package platform

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(maxRetries int) *Client {
	c := &Client{
		domain:      "test-store.myshopify.com",
		accessToken: "shpat_test",
		apiVersion:  "2024-10",
		pageSize:    50,
		maxRetries:  maxRetries,
		http:        &http.Client{},
	}
	httpmock.ActivateNonDefault(c.http)
	return c
}

func TestFetchProductsFollowsCursor(t *testing.T) {
	c := newTestClient(2)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~^https://test-store\.myshopify\.com/admin/api/2024-10/products\.json`,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page_info") == "" {
				resp := httpmock.NewStringResponse(http.StatusOK, `{"products":[{"id":1,"title":"Widget"},{"id":2,"title":"Gadget"}]}`)
				resp.Header.Set("Link", `<https://test-store.myshopify.com/admin/api/2024-10/products.json?limit=50&page_info=abc123>; rel="next"`)
				return resp, nil
			}
			assert.Equal(t, "abc123", req.URL.Query().Get("page_info"))
			return httpmock.NewStringResponse(http.StatusOK, `{"products":[{"id":3,"title":"Doohickey"}]}`), nil
		})

	page, err := c.FetchProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "abc123", page.NextCursor)

	page, err = c.FetchProducts(context.Background(), page.NextCursor)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Empty(t, page.NextCursor)
}

func TestFetchProductsSendsAccessToken(t *testing.T) {
	c := newTestClient(2)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~products\.json`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "shpat_test", req.Header.Get("X-Platform-Access-Token"))
			assert.Equal(t, "50", req.URL.Query().Get("limit"))
			return httpmock.NewStringResponse(http.StatusOK, `{"products":[]}`), nil
		})

	_, err := c.FetchProducts(context.Background(), "")
	require.NoError(t, err)
}

func TestFetchRetriesRateLimitOnSamePage(t *testing.T) {
	c := newTestClient(3)
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder("GET", `=~orders\.json`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				resp := httpmock.NewStringResponse(http.StatusTooManyRequests, "")
				resp.Header.Set("Retry-After", "0.01")
				return resp, nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"orders":[{"id":9}]}`), nil
		})

	page, err := c.FetchOrders(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, page.Items, 1)
}

func TestFetchRateLimitExhaustsRetries(t *testing.T) {
	c := newTestClient(2)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~orders\.json`,
		httpmock.NewStringResponder(http.StatusTooManyRequests, ""))

	_, err := c.FetchOrders(context.Background(), "")
	require.Error(t, err)
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, RateLimited, pe.Kind)
	assert.True(t, IsKind(err, RateLimited))
}

func TestFetchPermissionDeniedIsPermanent(t *testing.T) {
	c := newTestClient(5)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~products\.json`,
		httpmock.NewStringResponder(http.StatusForbidden, `{"errors":"read_products scope required"}`))

	_, err := c.FetchProducts(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsKind(err, PermissionDenied))
	// permanent failures must not burn the retry budget
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetchUnauthorized(t *testing.T) {
	c := newTestClient(2)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~products\.json`,
		httpmock.NewStringResponder(http.StatusUnauthorized, ""))

	_, err := c.FetchProducts(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsKind(err, Unauthorized))
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	c := newTestClient(1)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", `=~products\.json`,
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	_, err := c.FetchProducts(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsKind(err, Transient))
}

func TestNextCursor(t *testing.T) {
	link := `<https://x.myshopify.com/admin/api/2024-10/products.json?page_info=prev1>; rel="previous", <https://x.myshopify.com/admin/api/2024-10/products.json?page_info=next1>; rel="next"`
	assert.Equal(t, "next1", nextCursor(link))
	assert.Empty(t, nextCursor(`<https://x.myshopify.com/admin/api/2024-10/products.json?page_info=prev1>; rel="previous"`))
	assert.Empty(t, nextCursor(""))
}
