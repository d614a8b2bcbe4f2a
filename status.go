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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/model"
)

// GetSyncStatus returns the most recent sync job for a store. Before reading,
// running jobs whose worker stopped heartbeating are reaped to failed, so a
// crashed worker never leaves a store reporting "running" forever.
func (s *Storesync) GetSyncStatus(ctx context.Context, storeID string) (*model.SyncJob, error) {
	ctx, span := tracer.Start(ctx, "Fetching Sync Status")
	defer span.End()

	if reaped, err := s.datasource.FailStaleSyncJobs(ctx, s.staleThreshold()); err != nil {
		logrus.Errorf("failed to reap stale sync jobs: %v", err)
	} else if reaped > 0 {
		logrus.Warnf("reaped %d stale sync jobs", reaped)
	}

	return s.datasource.GetLatestSyncJob(ctx, storeID)
}

// GetSyncJob returns a single sync job by ID.
func (s *Storesync) GetSyncJob(ctx context.Context, jobID string) (*model.SyncJob, error) {
	ctx, span := tracer.Start(ctx, "Fetching Sync Job")
	defer span.End()

	return s.datasource.GetSyncJob(ctx, jobID)
}

// ListSyncJobs returns the job history for a store, newest first.
func (s *Storesync) ListSyncJobs(ctx context.Context, storeID string, limit, offset int) ([]*model.SyncJob, error) {
	ctx, span := tracer.Start(ctx, "Fetching Sync Job History")
	defer span.End()

	return s.datasource.GetSyncJobs(ctx, storeID, limit, offset)
}

func (s *Storesync) staleThreshold() time.Duration {
	cnf, err := config.Fetch()
	if err != nil || cnf.Sync.StaleAfterSec <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(cnf.Sync.StaleAfterSec) * time.Second
}
