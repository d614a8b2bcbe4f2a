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

package database

import (
	"database/sql"
	"log"
	"sync"

	_ "github.com/lib/pq"

	"github.com/storelens/storesync/config"
	"github.com/storelens/storesync/internal/cache"
)

// Declare a package-level variable to hold the singleton instance.
// Ensure the instance is not accessible outside the package.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		newCache, errCache := cache.NewCache()
		if errCache != nil {
			log.Printf("cache setup error ❌: %v", errCache)
		}
		instance = &Datasource{Conn: con, Cache: newCache}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error ❌: %v", err)
		return nil, err
	}
	err = createStoreTable(db)
	if err != nil {
		return nil, err
	}
	err = createProductTable(db)
	if err != nil {
		return nil, err
	}
	err = createSalesTable(db)
	if err != nil {
		return nil, err
	}
	err = createSyncJobTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createStoreTable creates a PostgreSQL table for the Store struct
func createStoreTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stores (
			id SERIAL PRIMARY KEY,
			store_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			platform TEXT NOT NULL,
			settings JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			meta_data JSONB
		)
	`)
	if err != nil {
		log.Printf("Error creating stores table: %v", err)
	}
	return err
}

// createProductTable creates a PostgreSQL table for the Product struct
func createProductTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			product_id TEXT NOT NULL UNIQUE,
			store_id TEXT NOT NULL REFERENCES stores(store_id),
			external_id TEXT NOT NULL,
			sku TEXT,
			title TEXT NOT NULL,
			price NUMERIC(20, 4) NOT NULL DEFAULT 0,
			inventory BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'active',
			vendor TEXT,
			product_type TEXT,
			tags TEXT,
			external_created_at TIMESTAMP,
			external_updated_at TIMESTAMP,
			synced_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (store_id, external_id)
		)
	`)
	if err != nil {
		log.Printf("Error creating products table: %v", err)
	}
	return err
}

// createSalesTable creates a PostgreSQL table for the SalesRecord struct
func createSalesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sales (
			id SERIAL PRIMARY KEY,
			sale_id TEXT NOT NULL UNIQUE,
			store_id TEXT NOT NULL REFERENCES stores(store_id),
			product_id TEXT NOT NULL REFERENCES products(product_id),
			quantity BIGINT NOT NULL,
			sold_price NUMERIC(20, 4) NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			order_id TEXT,
			synthetic BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Printf("Error creating sales table: %v", err)
	}
	return err
}

// createSyncJobTable creates a PostgreSQL table for the SyncJob struct. The
// partial unique index is what enforces one active job per store: a second
// insert for the same store while a pending or running row exists violates it.
func createSyncJobTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sync_jobs (
			id SERIAL PRIMARY KEY,
			job_id TEXT NOT NULL UNIQUE,
			store_id TEXT NOT NULL REFERENCES stores(store_id),
			sync_type TEXT NOT NULL DEFAULT 'full',
			status TEXT NOT NULL DEFAULT 'pending',
			current_step TEXT,
			total_items BIGINT,
			processed_items BIGINT NOT NULL DEFAULT 0,
			failed_items BIGINT NOT NULL DEFAULT 0,
			error_message TEXT,
			result JSONB,
			started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMP
		)
	`)
	if err != nil {
		log.Printf("Error creating sync_jobs table: %v", err)
		return err
	}
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS sync_jobs_one_active_per_store
		ON sync_jobs (store_id)
		WHERE status IN ('pending', 'running')
	`)
	if err != nil {
		log.Printf("Error creating sync_jobs active index: %v", err)
	}
	return err
}
