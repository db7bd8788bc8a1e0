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

package reputation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/decoytrace/pkg/models"
)

// MemoryStore is an in-process Store for tests and local development.
// The mutex gives the same atomicity guarantee the Postgres upsert
// provides in production.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*models.ReputationState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*models.ReputationState)}
}

// IncrementAttackCount implements Store.
func (s *MemoryStore) IncrementAttackCount(_ context.Context, sourceIP string, seen time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sourceIP]
	if !ok {
		state = &models.ReputationState{SourceIP: sourceIP, FirstSeen: seen}
		s.states[sourceIP] = state
	}

	state.AttackCount++
	state.LastSeen = seen

	return state.AttackCount, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, sourceIP string) (*models.ReputationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sourceIP]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceIP)
	}

	copied := *state

	return &copied, nil
}

// Close implements Store.
func (*MemoryStore) Close() {}
