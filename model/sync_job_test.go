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
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSyncJob_ProgressPercent(t *testing.T) {
	job := &SyncJob{ProcessedItems: 61}
	assert.Nil(t, job.ProgressPercent(), "unknown total yields nil percentage")

	total := 122
	job.TotalItems = &total
	pct := job.ProgressPercent()
	assert.NotNil(t, pct)
	assert.InDelta(t, 50.0, *pct, 0.01)

	job.ProcessedItems = 200
	pct = job.ProgressPercent()
	assert.Equal(t, 100.0, *pct, "percentage is capped at 100")

	zero := 0
	job.TotalItems = &zero
	assert.Nil(t, job.ProgressPercent())
}

func TestSyncJob_MarshalJSON_ProgressPercent(t *testing.T) {
	total := 122
	job := &SyncJob{
		JobID:          "job_abc",
		Status:         JobStatusRunning,
		TotalItems:     &total,
		ProcessedItems: 61,
	}

	raw, err := json.Marshal(job)
	assert.NoError(t, err)

	var payload map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &payload))
	assert.InDelta(t, 50.0, payload["progress_percent"], 0.01)

	job.TotalItems = nil
	raw, err = json.Marshal(job)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(raw, &payload))
	value, present := payload["progress_percent"]
	assert.True(t, present, "field is present even while the total is unknown")
	assert.Nil(t, value)
}

func TestSyncJob_IsTerminal(t *testing.T) {
	for status, terminal := range map[string]bool{
		JobStatusPending:   false,
		JobStatusRunning:   false,
		JobStatusCompleted: true,
		JobStatusFailed:    true,
	} {
		job := &SyncJob{Status: status}
		assert.Equal(t, terminal, job.IsTerminal(), status)
	}
}

func TestSalesRecord_Revenue(t *testing.T) {
	rec := SalesRecord{
		Quantity:  3,
		SoldPrice: decimal.RequireFromString("19.99"),
	}
	assert.True(t, rec.Revenue().Equal(decimal.RequireFromString("59.97")))
}

func TestStoreSettings_Validate(t *testing.T) {
	valid := StoreSettings{Domain: "acme.myshopify.com", AccessToken: "shpat_test"}
	assert.NoError(t, valid.Validate())

	missingToken := StoreSettings{Domain: "acme.myshopify.com"}
	assert.Error(t, missingToken.Validate())

	oversizedPage := StoreSettings{Domain: "acme.myshopify.com", AccessToken: "shpat_test", PageSize: 500}
	assert.Error(t, oversizedPage.Validate())
}

func TestStore_Validate(t *testing.T) {
	store := &Store{
		Name:     "Acme",
		Platform: "shopify",
		Settings: StoreSettings{Domain: "acme.myshopify.com", AccessToken: "shpat_test"},
	}
	assert.NoError(t, store.Validate())

	store.Platform = "etsy"
	assert.Error(t, store.Validate(), "unsupported platform is rejected")
}

func TestGenerateUUIDWithSuffix(t *testing.T) {
	id := GenerateUUIDWithSuffix("job")
	assert.Regexp(t, `^job_[0-9a-f-]{36}$`, id)
	assert.NotEqual(t, id, GenerateUUIDWithSuffix("job"))
}
