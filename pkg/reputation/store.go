/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package reputation tracks per-source attack counts and turns
// classification tags plus history into a score and final threat level.
package reputation

import (
	"context"
	"errors"
	"time"

	"github.com/carverauto/decoytrace/pkg/models"
)

// ErrUnknownSource indicates no reputation state exists for an address.
var ErrUnknownSource = errors.New("source address has no reputation state")

// Store persists per-source reputation state. IncrementAttackCount is
// the single shared-mutable point of the pipeline: it must be atomic
// with respect to concurrent events from the same address.
type Store interface {
	// IncrementAttackCount atomically increments the address's attack
	// count by one and returns the new count, creating the state on
	// first sight.
	IncrementAttackCount(ctx context.Context, sourceIP string, seen time.Time) (int64, error)
	// Get returns the current state for an address, or
	// ErrUnknownSource.
	Get(ctx context.Context, sourceIP string) (*models.ReputationState, error)
	// Close releases store resources.
	Close()
}
