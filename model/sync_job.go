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
	"time"

	"github.com/shopspring/decimal"
)

// Sync job statuses. Transitions are monotonic: pending → running →
// {completed, failed}, and a terminal status never regresses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Sync types.
const (
	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
)

// Machine-readable step labels, updated after every page so polling clients can
// show where a running job currently is.
const (
	StepFetchingProducts = "fetching_products"
	StepReconciling      = "reconciling"
	StepFetchingOrders   = "fetching_orders"
	StepDerivingSales    = "deriving_sales"
)

// SyncResult is the structured summary persisted when a job reaches a terminal
// state. Synthetic is true when the sales figures were generated rather than
// read from real orders.
type SyncResult struct {
	ProductsSynced int             `json:"products_synced"`
	SalesGenerated int             `json:"sales_generated"`
	Revenue        decimal.Decimal `json:"revenue"`
	UniqueOrders   int             `json:"unique_orders"`
	Synthetic      bool            `json:"synthetic"`
	RowFailures    []RowFailure    `json:"row_failures,omitempty"`
}

// RowFailure records a single item that failed to reconcile, scoped to one
// record so it never fails the batch around it.
type RowFailure struct {
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// SyncProgress is one heartbeat of a running job: the cumulative counters and
// the step label after a page lands. TotalItems stays nil until the platform
// reveals the overall count.
type SyncProgress struct {
	CurrentStep    string
	ProcessedItems int
	FailedItems    int
	TotalItems     *int
}

// SyncJob is the persisted record of one store synchronization run.
type SyncJob struct {
	ID             int64       `json:"-"`
	JobID          string      `json:"job_id"`
	StoreID        string      `json:"store_id"`
	SyncType       string      `json:"sync_type"`
	Status         string      `json:"status"`
	CurrentStep    string      `json:"current_step,omitempty"`
	TotalItems     *int        `json:"total_items,omitempty"`
	ProcessedItems int         `json:"processed_items"`
	FailedItems    int         `json:"failed_items"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	Result         *SyncResult `json:"result,omitempty"`
	StartedAt      time.Time   `json:"started_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has reached a final state.
func (j *SyncJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// MarshalJSON includes the computed progress percentage alongside the stored
// fields. The value is null until the total item count is known.
func (j *SyncJob) MarshalJSON() ([]byte, error) {
	type alias SyncJob
	return json.Marshal(&struct {
		*alias
		ProgressPercent *float64 `json:"progress_percent"`
	}{
		alias:           (*alias)(j),
		ProgressPercent: j.ProgressPercent(),
	})
}

// ProgressPercent returns the completion percentage when the total item count
// is known, or nil while it is not.
func (j *SyncJob) ProgressPercent() *float64 {
	if j.TotalItems == nil || *j.TotalItems == 0 {
		return nil
	}
	pct := float64(j.ProcessedItems) / float64(*j.TotalItems) * 100
	if pct > 100 {
		pct = 100
	}
	return &pct
}
