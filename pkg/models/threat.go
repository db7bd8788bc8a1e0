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

package models

import (
	"errors"
	"fmt"
)

// ThreatLevel is the ordered severity assigned to an event. The zero
// value means no rule has set a level yet.
type ThreatLevel string

const (
	ThreatUnset    ThreatLevel = ""
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

var errUnknownThreatLevel = errors.New("unknown threat level")

// Severity returns the rank used for ordering comparisons. Higher is
// more severe.
func (l ThreatLevel) Severity() int {
	switch l {
	case ThreatLow:
		return 1
	case ThreatMedium:
		return 2
	case ThreatHigh:
		return 3
	case ThreatCritical:
		return 4
	case ThreatUnset:
		return 0
	default:
		return 0
	}
}

// MaxLevel returns the more severe of two threat levels.
func MaxLevel(a, b ThreatLevel) ThreatLevel {
	if b.Severity() > a.Severity() {
		return b
	}

	return a
}

// ParseThreatLevel validates a level from configuration or rule files.
func ParseThreatLevel(s string) (ThreatLevel, error) {
	switch l := ThreatLevel(s); l {
	case ThreatUnset, ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical:
		return l, nil
	default:
		return ThreatUnset, fmt.Errorf("%w: %q", errUnknownThreatLevel, s)
	}
}
