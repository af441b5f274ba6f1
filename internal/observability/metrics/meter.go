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

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps the OpenTelemetry meter and the domain instruments recorded
// by the store and auth layers.
type Meter struct {
	meter metric.Meter

	mutations       metric.Int64Counter
	persistFailures metric.Int64Counter
	remoteFallbacks metric.Int64Counter
	logins          metric.Int64Counter
}

// New creates a new meter instance
func New(ctx context.Context, cfg Config, serviceName string) (*Meter, error) {
	if !cfg.Enabled {
		return NewWithMeter(noop.NewMeterProvider().Meter(serviceName))
	}
	return NewWithMeter(otel.Meter(serviceName))
}

// NewWithMeter registers the domain instruments on m.
func NewWithMeter(m metric.Meter) (*Meter, error) {
	out := &Meter{meter: m}
	var err error
	if out.mutations, err = out.CreateCounter("rentals.store.mutations", "Applied record mutations"); err != nil {
		return nil, err
	}
	if out.persistFailures, err = out.CreateCounter("rentals.store.persist_failures", "Snapshot writes that failed"); err != nil {
		return nil, err
	}
	if out.remoteFallbacks, err = out.CreateCounter("rentals.store.remote_fallbacks", "Startups that fell back to seed data"); err != nil {
		return nil, err
	}
	if out.logins, err = out.CreateCounter("rentals.auth.logins", "Login attempts by result"); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// RecordMutation counts one store mutation and, when persistFailed, one
// persistence failure.
func (m *Meter) RecordMutation(ctx context.Context, entity, action string, persistFailed bool) {
	attrs := metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	)
	m.mutations.Add(ctx, 1, attrs)
	if persistFailed {
		m.persistFailures.Add(ctx, 1, attrs)
	}
}

func (m *Meter) RecordRemoteFallback(ctx context.Context) {
	m.remoteFallbacks.Add(ctx, 1)
}

// RecordLogin counts a login attempt; result is success, failure or locked.
func (m *Meter) RecordLogin(ctx context.Context, result string) {
	m.logins.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}
