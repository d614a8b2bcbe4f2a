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
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/storelens/storesync"
	"github.com/storelens/storesync/api/middleware"
	"github.com/storelens/storesync/config"
)

type Api struct {
	storesync *storesync.Storesync
	router    *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/stores", a.CreateStore)
	router.GET("/stores", a.GetAllStores)
	router.GET("/stores/:id", a.GetStore)
	router.PUT("/stores/:id/settings", a.UpdateStoreSettings)

	router.POST("/stores/:id/sync", a.StartSync)
	router.GET("/stores/:id/sync/status", a.GetSyncStatus)
	router.GET("/stores/:id/sync/jobs", a.ListSyncJobs)
	router.GET("/sync-jobs/:id", a.GetSyncJob)

	router.GET("/stores/:id/products", a.GetProducts)
	router.GET("/stores/:id/sales", a.GetSales)

	router.GET("/mocked-store", a.generateMockStore)

	return a.router
}

func NewAPI(s *storesync.Storesync) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{storesync: s, router: r}
}
