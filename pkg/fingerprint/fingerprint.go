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

// Package fingerprint derives stable session identifiers for grouping
// events from the same source against the same decoy service.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/carverauto/decoytrace/pkg/models"
)

// digestBytes truncates the SHA-256 digest; the identifier is a
// correlation key for analytics, not a security token.
const digestBytes = 16

// SessionID returns a deterministic fixed-length identifier for a
// (source address, service) pair.
func SessionID(sourceIP string, service models.ServiceType) string {
	sum := sha256.Sum256([]byte(sourceIP + "|" + string(service)))

	return hex.EncodeToString(sum[:digestBytes])
}
