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
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"

	// PlatformMaxPageSize is the documented page-size ceiling of the
	// e-commerce platform's admin API.
	PlatformMaxPageSize = 250
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"STORESYNC_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"STORESYNC_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"STORESYNC_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"STORESYNC_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"STORESYNC_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"STORESYNC_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"STORESYNC_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"STORESYNC_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"STORESYNC_REDIS_SKIP_TLS_VERIFY"`
}

// PlatformConfig holds the defaults for talking to the e-commerce platform's
// admin API. Per-store values (domain, token, page-size override) live in the
// typed store settings.
type PlatformConfig struct {
	APIVersion string `json:"api_version" envconfig:"STORESYNC_PLATFORM_API_VERSION"`
	PageSize   int    `json:"page_size" envconfig:"STORESYNC_PLATFORM_PAGE_SIZE"`
	MaxRetries int    `json:"max_retries" envconfig:"STORESYNC_PLATFORM_MAX_RETRIES"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"STORESYNC_PLATFORM_TIMEOUT_SEC"`
}

type QueueConfig struct {
	SyncQueue        string `json:"sync_queue" envconfig:"STORESYNC_QUEUE_SYNC"`
	WebhookQueue     string `json:"webhook_queue" envconfig:"STORESYNC_QUEUE_WEBHOOK"`
	MaxRetryAttempts int    `json:"max_retry_attempts" envconfig:"STORESYNC_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort   string `json:"monitoring_port" envconfig:"STORESYNC_QUEUE_MONITORING_PORT"`
}

// SyncConfig tunes the job pipeline itself.
type SyncConfig struct {
	StaleAfterSec int `json:"stale_after_sec" envconfig:"STORESYNC_SYNC_STALE_AFTER_SEC"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"STORESYNC_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"STORESYNC_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"STORESYNC_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"STORESYNC_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Platform     PlatformConfig   `json:"platform"`
	Queue        QueueConfig      `json:"queue"`
	Sync         SyncConfig       `json:"sync"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("storesync", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called storesync.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Storesync Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Platform.APIVersion == "" {
		cnf.Platform.APIVersion = "2024-10"
	}
	if cnf.Platform.PageSize <= 0 || cnf.Platform.PageSize > PlatformMaxPageSize {
		cnf.Platform.PageSize = PlatformMaxPageSize
	}
	if cnf.Platform.MaxRetries <= 0 {
		cnf.Platform.MaxRetries = 5
	}
	if cnf.Platform.TimeoutSec <= 0 {
		cnf.Platform.TimeoutSec = 30
	}

	if cnf.Queue.SyncQueue == "" {
		cnf.Queue.SyncQueue = "new:sync"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 3
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5003"
	}

	// A running job with no heartbeat for this long is reported failed.
	if cnf.Sync.StaleAfterSec <= 0 {
		cnf.Sync.StaleAfterSec = 1800
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyTestDefaults()
	ConfigStore.Store(mockConfig)
}

// applyTestDefaults fills the platform/queue/sync defaults without requiring
// data source or redis settings, so unit tests can run on a zero value.
func (cnf *Configuration) applyTestDefaults() {
	if cnf.Platform.APIVersion == "" {
		cnf.Platform.APIVersion = "2024-10"
	}
	if cnf.Platform.PageSize <= 0 || cnf.Platform.PageSize > PlatformMaxPageSize {
		cnf.Platform.PageSize = PlatformMaxPageSize
	}
	if cnf.Platform.MaxRetries <= 0 {
		cnf.Platform.MaxRetries = 5
	}
	if cnf.Platform.TimeoutSec <= 0 {
		cnf.Platform.TimeoutSec = 30
	}
	if cnf.Queue.SyncQueue == "" {
		cnf.Queue.SyncQueue = "new:sync"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 3
	}
	if cnf.Sync.StaleAfterSec <= 0 {
		cnf.Sync.StaleAfterSec = 1800
	}
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
