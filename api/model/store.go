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

import "github.com/storelens/storesync/model"

type CreateStore struct {
	Name     string                 `json:"name"`
	Platform string                 `json:"platform"`
	Settings StoreSettings          `json:"settings"`
	MetaData map[string]interface{} `json:"meta_data"`
}

type StoreSettings struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"access_token"`
	PageSize    int    `json:"page_size"`
}

type UpdateStoreSettings struct {
	Settings StoreSettings `json:"settings"`
}

func (c *CreateStore) ToStore() model.Store {
	return model.Store{
		Name:     c.Name,
		Platform: c.Platform,
		Settings: c.Settings.toModel(),
		MetaData: c.MetaData,
	}
}

func (u *UpdateStoreSettings) ToSettings() model.StoreSettings {
	return u.Settings.toModel()
}

func (s StoreSettings) toModel() model.StoreSettings {
	return model.StoreSettings{
		Domain:      s.Domain,
		AccessToken: s.AccessToken,
		PageSize:    s.PageSize,
	}
}
