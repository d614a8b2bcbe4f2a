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
	"embed"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/database"
	"github.com/storelens/storesync/internal/notification"
	redis_db "github.com/storelens/storesync/internal/redis-db"
	"github.com/storelens/storesync/model"
	"github.com/storelens/storesync/platform"
)

var tracer = otel.Tracer("storesync.sync")

// PlatformFactory builds a platform API client for a store. The orchestrator
// resolves clients through this indirection so tests can script page
// responses without a live platform.
type PlatformFactory func(store *model.Store) (platform.Fetcher, error)

// Storesync represents the main struct for the Storesync application.
type Storesync struct {
	queue           *Queue
	redis           redis.UniversalClient
	datasource      database.IDataSource
	platformFactory PlatformFactory
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewStoresync initializes a new instance of Storesync with the provided
// database datasource. It fetches the configuration and initializes the Redis
// client, the task queue, and the default platform client factory.
func NewStoresync(db database.IDataSource) (*Storesync, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newStoresync := &Storesync{
		datasource:      db,
		queue:           newQueue,
		redis:           redisClient.Client(),
		platformFactory: defaultPlatformFactory,
	}
	notification.RegisterWebhookSender(func(event string, payload interface{}) error {
		return SendWebhook(NewWebhook{Event: event, Payload: payload})
	})
	return newStoresync, nil
}

func defaultPlatformFactory(store *model.Store) (platform.Fetcher, error) {
	return platform.NewClient(store)
}
