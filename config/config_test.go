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

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigFromFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "storesync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{
		"project_name": "storesync-test",
		"data_source": {"dns": "postgres://postgres:@localhost:5432/storesync?sslmode=disable"},
		"redis": {"dns": "localhost:6379"},
		"platform": {"page_size": 100}
	}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = InitConfig(f.Name())
	require.NoError(t, err)

	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "storesync-test", cnf.ProjectName)
	assert.Equal(t, DEFAULT_PORT, cnf.Server.Port)
	assert.Equal(t, 100, cnf.Platform.PageSize)
	assert.Equal(t, "2024-10", cnf.Platform.APIVersion)
	assert.Equal(t, "new:sync", cnf.Queue.SyncQueue)
	assert.Equal(t, 1800, cnf.Sync.StaleAfterSec)
}

func TestInitConfigMissingDataSource(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "storesync*.json")
	require.NoError(t, err)
	_, err = f.WriteString(`{"redis": {"dns": "localhost:6379"}}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	err = InitConfig(f.Name())
	assert.Error(t, err)
}

func TestPageSizeClampedToPlatformMax(t *testing.T) {
	cnf := &Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost:5432/storesync"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		Platform:   PlatformConfig{PageSize: 1000},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	assert.Equal(t, PlatformMaxPageSize, cnf.Platform.PageSize)
}

func TestRateLimitDefaults(t *testing.T) {
	rps := 10.0
	cnf := &Configuration{
		DataSource: DataSourceConfig{Dns: "postgres://localhost:5432/storesync"},
		Redis:      RedisConfig{Dns: "localhost:6379"},
		RateLimit:  RateLimitConfig{RequestsPerSecond: &rps},
	}
	require.NoError(t, cnf.validateAndAddDefaults())
	require.NotNil(t, cnf.RateLimit.Burst)
	assert.Equal(t, 20, *cnf.RateLimit.Burst)
	require.NotNil(t, cnf.RateLimit.CleanupIntervalSec)
	assert.Equal(t, 10800, *cnf.RateLimit.CleanupIntervalSec)
}

func TestMockConfig(t *testing.T) {
	MockConfig(&Configuration{Redis: RedisConfig{Dns: "localhost:6379"}})
	cnf, err := Fetch()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cnf.Redis.Dns)
	assert.Equal(t, PlatformMaxPageSize, cnf.Platform.PageSize)
}
