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
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PendingJobRecoveryProcessor periodically re-enqueues pending jobs whose
// queue task was lost (for example when Redis restarted between the claim and
// the worker pickup) and reaps running jobs with a dead worker.
type PendingJobRecoveryProcessor struct {
	storesync    *Storesync
	pollInterval time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

func NewPendingJobRecoveryProcessor(storesync *Storesync) *PendingJobRecoveryProcessor {
	return &PendingJobRecoveryProcessor{
		storesync:    storesync,
		pollInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

func (p *PendingJobRecoveryProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()

	logrus.Info("Pending sync job recovery processor started")
}

func (p *PendingJobRecoveryProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	logrus.Info("Pending sync job recovery processor stopped")
}

func (p *PendingJobRecoveryProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PendingJobRecoveryProcessor) run(ctx context.Context) {
	// recover immediately at boot, then on every tick
	p.processBatch(ctx)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Pending sync job recovery processor context cancelled")
			return
		case <-p.stopCh:
			logrus.Info("Pending sync job recovery processor stop signal received")
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *PendingJobRecoveryProcessor) processBatch(ctx context.Context) {
	if reaped, err := p.storesync.datasource.FailStaleSyncJobs(ctx, p.storesync.staleThreshold()); err != nil {
		logrus.Errorf("failed to reap stale sync jobs: %v", err)
	} else if reaped > 0 {
		logrus.Warnf("reaped %d stale sync jobs", reaped)
	}

	p.storesync.RecoverPendingJobs(ctx)
}

// RecoverPendingJobs re-enqueues every pending job. Task IDs make this safe:
// a job whose task still sits in the queue is skipped by the ID conflict
// instead of being enqueued twice.
func (s *Storesync) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.datasource.GetPendingSyncJobs(ctx)
	if err != nil {
		logrus.Errorf("failed to get pending sync jobs: %v", err)
		return 0
	}

	if len(pending) == 0 {
		return 0
	}

	recovered := 0
	for _, job := range pending {
		if s.queue == nil {
			break
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			logrus.Errorf("failed to re-enqueue pending sync job %s: %v", job.JobID, err)
			continue
		}
		recovered++
	}

	if recovered > 0 {
		logrus.Infof("re-enqueued %d pending sync jobs", recovered)
	}
	return recovered
}
