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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEvent(t *testing.T) {
	payload := []byte(`{
		"timestamp": "2026-08-30T14:05:00Z",
		"service": "ssh",
		"event_type": "auth_attempt",
		"source_ip": "203.0.113.7",
		"username": "root",
		"password": "123456"
	}`)

	ev, err := ParseRawEvent(payload)
	require.NoError(t, err)

	assert.Equal(t, ServiceSSH, ev.Service)
	assert.Equal(t, "auth_attempt", ev.EventType)
	assert.Equal(t, "203.0.113.7", ev.SourceIP)
	assert.Equal(t, "root", ev.Username)
	assert.Equal(t, "2026-08-30T14:05:00Z", ev.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
}

func TestParseRawEventMissingIdentity(t *testing.T) {
	payload := []byte(`{"timestamp": "2026-08-30T14:05:00Z", "event_type": "connection"}`)

	_, err := ParseRawEvent(payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralInput)
}

func TestParseRawEventMalformedTimestamp(t *testing.T) {
	payload := []byte(`{"timestamp": "yesterday", "service": "http", "source_ip": "203.0.113.7"}`)

	_, err := ParseRawEvent(payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralInput)
}

func TestParseRawEventInvalidJSON(t *testing.T) {
	_, err := ParseRawEvent([]byte(`{not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralInput)
}

func TestParseRawEventDefaultsTimestamp(t *testing.T) {
	ev, err := ParseRawEvent([]byte(`{"service": "ftp", "source_ip": "198.51.100.4"}`))
	require.NoError(t, err)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestParseRawEventOneIdentityFieldSuffices(t *testing.T) {
	ev, err := ParseRawEvent([]byte(`{"service": "telnet"}`))
	require.NoError(t, err)
	assert.Equal(t, ServiceTelnet, ev.Service)
	assert.Empty(t, ev.SourceIP)
}

func TestThreatLevelOrdering(t *testing.T) {
	levels := []ThreatLevel{ThreatUnset, ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical}

	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i].Severity(), levels[i-1].Severity(),
			"%s should outrank %s", levels[i], levels[i-1])
	}
}

func TestMaxLevel(t *testing.T) {
	assert.Equal(t, ThreatHigh, MaxLevel(ThreatHigh, ThreatMedium))
	assert.Equal(t, ThreatHigh, MaxLevel(ThreatMedium, ThreatHigh))
	assert.Equal(t, ThreatCritical, MaxLevel(ThreatUnset, ThreatCritical))
	assert.Equal(t, ThreatLow, MaxLevel(ThreatLow, ThreatUnset))
}

func TestParseThreatLevel(t *testing.T) {
	level, err := ParseThreatLevel("high")
	require.NoError(t, err)
	assert.Equal(t, ThreatHigh, level)

	_, err = ParseThreatLevel("severe")
	assert.Error(t, err)
}
