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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/model"
)

// linkNextRe extracts the page_info cursor from the rel="next" entry of the
// Link response header.
var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Fetcher is the slice of the platform API the sync pipeline needs. The
// orchestrator depends on this interface so tests can substitute a scripted
// page source.
type Fetcher interface {
	FetchProducts(ctx context.Context, cursor string) (*Page[Product], error)
	FetchOrders(ctx context.Context, cursor string) (*Page[Order], error)
}

// Client fetches paginated resources from a single store's admin API.
type Client struct {
	domain      string
	accessToken string
	apiVersion  string
	pageSize    int
	maxRetries  int
	http        *http.Client
}

// NewClient builds a Client for the given store. Page size comes from the
// store settings when set, otherwise from the global platform config, and is
// clamped to the platform maximum either way.
func NewClient(store *model.Store) (*Client, error) {
	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	pageSize := cnf.Platform.PageSize
	if store.Settings.PageSize > 0 {
		pageSize = store.Settings.PageSize
	}
	if pageSize > config.PlatformMaxPageSize {
		pageSize = config.PlatformMaxPageSize
	}

	return &Client{
		domain:      store.Settings.Domain,
		accessToken: store.Settings.AccessToken,
		apiVersion:  cnf.Platform.APIVersion,
		pageSize:    pageSize,
		maxRetries:  cnf.Platform.MaxRetries,
		http:        &http.Client{Timeout: time.Duration(cnf.Platform.TimeoutSec) * time.Second},
	}, nil
}

func (c *Client) FetchProducts(ctx context.Context, cursor string) (*Page[Product], error) {
	var body struct {
		Products []Product `json:"products"`
	}
	next, err := c.fetchPage(ctx, "products", cursor, &body)
	if err != nil {
		return nil, err
	}
	return &Page[Product]{Items: body.Products, NextCursor: next}, nil
}

func (c *Client) FetchOrders(ctx context.Context, cursor string) (*Page[Order], error) {
	var body struct {
		Orders []Order `json:"orders"`
	}
	next, err := c.fetchPage(ctx, "orders", cursor, &body)
	if err != nil {
		return nil, err
	}
	return &Page[Order]{Items: body.Orders, NextCursor: next}, nil
}

// fetchPage performs one paginated GET with retries. Rate-limited (429) and
// transient (network, 5xx) failures are retried with capped exponential
// backoff, honouring Retry-After when the platform sends one. 401 and 403 are
// permanent and fail immediately.
func (c *Client) fetchPage(ctx context.Context, resource, cursor string, out interface{}) (string, error) {
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/%s.json", c.domain, c.apiVersion, resource)

	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	if cursor != "" {
		q.Set("page_info", cursor)
	}
	endpoint = endpoint + "?" + q.Encode()

	var next string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(&Error{Kind: Invalid, Resource: resource, Err: err})
		}
		req.Header.Set("X-Platform-Access-Token", c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return &Error{Kind: Transient, Resource: resource, Err: err}
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(&Error{Kind: Invalid, Resource: resource, StatusCode: resp.StatusCode, Err: err})
			}
			next = nextCursor(resp.Header.Get("Link"))
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			if d := retryAfter(resp.Header.Get("Retry-After")); d > 0 {
				logrus.WithField("resource", resource).Infof("platform rate limited, waiting %s before retry", d)
				if err := sleepCtx(ctx, d); err != nil {
					return backoff.Permanent(&Error{Kind: RateLimited, Resource: resource, StatusCode: resp.StatusCode, Err: err})
				}
			}
			return &Error{Kind: RateLimited, Resource: resource, StatusCode: resp.StatusCode}
		case resp.StatusCode == http.StatusUnauthorized:
			return backoff.Permanent(&Error{Kind: Unauthorized, Resource: resource, StatusCode: resp.StatusCode})
		case resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(&Error{Kind: PermissionDenied, Resource: resource, StatusCode: resp.StatusCode})
		case resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			return &Error{Kind: Transient, Resource: resource, StatusCode: resp.StatusCode}
		default:
			return backoff.Permanent(&Error{Kind: Invalid, Resource: resource, StatusCode: resp.StatusCode})
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMaxInterval(30*time.Second),
	), uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(operation, bo); err != nil {
		return "", classifyRetryError(err, resource)
	}
	return next, nil
}

// classifyRetryError normalizes whatever backoff hands back into a *Error.
// A rate-limited page that never recovered keeps its RateLimited kind here.
func classifyRetryError(err error, resource string) error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: Transient, Resource: resource, Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func nextCursor(link string) string {
	m := linkNextRe.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	u, err := url.Parse(m[1])
	if err != nil {
		return ""
	}
	return u.Query().Get("page_info")
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return 0
}
