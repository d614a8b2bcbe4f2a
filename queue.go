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
	"encoding/json"
	"errors"
	"log"

	"github.com/hibiken/asynq"

	"github.com/storelens/storesync/config"
	redis_db "github.com/storelens/storesync/internal/redis-db"
	"github.com/storelens/storesync/model"
)

// Queue represents a queue for handling sync and webhook tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// SyncJobPayload is the task body enqueued for a claimed sync job.
type SyncJobPayload struct {
	JobID    string `json:"job_id"`
	StoreID  string `json:"store_id"`
	SyncType string `json:"sync_type"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// Enqueue adds a claimed sync job to the Redis queue. The task ID is the job
// ID, so re-enqueueing the same pending job during recovery is a no-op
// instead of a duplicate run.
func (q *Queue) Enqueue(ctx context.Context, job *model.SyncJob) error {
	ctx, span := tracer.Start(ctx, "Adding Sync Job To Redis Queue")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(SyncJobPayload{
		JobID:    job.JobID,
		StoreID:  job.StoreID,
		SyncType: job.SyncType,
	})
	if err != nil {
		return err
	}

	taskOptions := []asynq.Option{
		asynq.TaskID(job.JobID),
		asynq.Queue(cfg.Queue.SyncQueue),
		asynq.MaxRetry(cfg.Queue.MaxRetryAttempts),
	}
	task := asynq.NewTask(cfg.Queue.SyncQueue, payload, taskOptions...)
	info, err := q.Client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			log.Printf(" [*] Sync job already enqueued: %+v", job.JobID)
			return nil
		}
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued sync job: %+v", job.JobID)

	return nil
}

// GetSyncJobFromQueue retrieves a queued sync job payload by its job ID.
func (q *Queue) GetSyncJobFromQueue(jobID string) (*SyncJobPayload, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	task, err := q.Inspector.GetTaskInfo(cfg.Queue.SyncQueue, jobID)
	if err == nil && task != nil {
		var payload SyncJobPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	}
	return nil, nil // Return nil if the job is not found in the queue
}
