// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rental

import (
	"context"

	"github.com/opentrusty/rentals/internal/audit"
)

// MutationRecorder counts store mutations.
type MutationRecorder interface {
	RecordMutation(ctx context.Context, entity, action string, persistFailed bool)
}

// MetricsSubscriber reports every event to rec.
func MetricsSubscriber(rec MutationRecorder) func(Event) {
	return func(ev Event) {
		entity := string(ev.Kind)
		if ev.Action == ActionReset {
			entity = "all"
		}
		rec.RecordMutation(ev.Context(), entity, string(ev.Action), ev.PersistErr != nil)
	}
}

var auditTypes = map[Action]string{
	ActionCreated: audit.TypeRecordCreated,
	ActionUpdated: audit.TypeRecordUpdated,
	ActionDeleted: audit.TypeRecordDeleted,
	ActionReset:   audit.TypeDataReset,
}

// AuditSubscriber writes one audit event per mutation, attributed to the
// event's actor or to the system when there is none.
func AuditSubscriber(l audit.Logger) func(Event) {
	return func(ev Event) {
		meta := map[string]any{}
		if ev.Kind != "" {
			meta[audit.AttrEntity] = string(ev.Kind)
		}
		if ev.PersistErr != nil {
			meta[audit.AttrPersist] = ev.PersistErr.Error()
		}
		resource := ev.ID
		if ev.Action == ActionReset {
			resource = DataKey
		}
		actor := ev.Actor
		if actor == "" {
			actor = audit.ActorSystem
		}
		l.Log(ev.Context(), audit.Event{
			Type:     auditTypes[ev.Action],
			ActorID:  actor,
			Resource: resource,
			Metadata: meta,
		})
	}
}
