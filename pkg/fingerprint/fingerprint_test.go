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

package fingerprint

import (
	"testing"

	"github.com/carverauto/decoytrace/pkg/models"
)

func TestSessionIDDeterministic(t *testing.T) {
	a := SessionID("203.0.113.7", models.ServiceSSH)
	b := SessionID("203.0.113.7", models.ServiceSSH)

	if a != b {
		t.Fatalf("same input produced different ids: %s vs %s", a, b)
	}
}

func TestSessionIDFixedLength(t *testing.T) {
	for _, ip := range []string{"1.2.3.4", "203.0.113.77", "2001:db8::1"} {
		id := SessionID(ip, models.ServiceHTTP)

		if len(id) != 32 {
			t.Fatalf("expected 32 hex chars, got %d for %s", len(id), ip)
		}
	}
}

func TestSessionIDVariesByService(t *testing.T) {
	ssh := SessionID("203.0.113.7", models.ServiceSSH)
	telnet := SessionID("203.0.113.7", models.ServiceTelnet)

	if ssh == telnet {
		t.Fatalf("expected distinct ids per service, got %s", ssh)
	}
}

func TestSessionIDVariesBySource(t *testing.T) {
	a := SessionID("203.0.113.7", models.ServiceSSH)
	b := SessionID("203.0.113.8", models.ServiceSSH)

	if a == b {
		t.Fatalf("expected distinct ids per source, got %s", a)
	}
}
