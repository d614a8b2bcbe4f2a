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
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/storelens/storesync/model"
)

func (c *CreateStore) ValidateCreateStore() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Platform, validation.Required),
		validation.Field(&c.Settings),
	)
}

func (s StoreSettings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Domain, validation.Required),
		validation.Field(&s.AccessToken, validation.Required),
		validation.Field(&s.PageSize, validation.Min(0), validation.Max(250)),
	)
}

func (u *UpdateStoreSettings) ValidateUpdateStoreSettings() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Settings, validation.Required),
	)
}

func (s *StartSync) ValidateStartSync() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.SyncType, validation.In(model.SyncTypeFull, model.SyncTypeIncremental, "")),
	)
}
