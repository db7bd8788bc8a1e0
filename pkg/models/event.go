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

// Package models defines the event records exchanged between the decoy
// services, the enrichment pipeline, and its sinks.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ServiceType identifies which decoy service emitted an event.
type ServiceType string

const (
	ServiceSSH    ServiceType = "ssh"
	ServiceHTTP   ServiceType = "http"
	ServiceFTP    ServiceType = "ftp"
	ServiceTelnet ServiceType = "telnet"
)

// ErrStructuralInput marks an event that cannot be processed at all:
// both identity fields absent or an unparseable timestamp. Everything
// else degrades instead of failing.
var ErrStructuralInput = errors.New("structurally invalid event")

var (
	errMissingIdentity    = errors.New("source_ip and service both absent")
	errMalformedTimestamp = errors.New("malformed timestamp")
)

// RawEvent is the record a decoy service emits for a single interaction.
// Service-specific fields are optional; presence depends on the service
// and event type.
type RawEvent struct {
	Timestamp  time.Time   `json:"timestamp"`
	Service    ServiceType `json:"service"`
	EventType  string      `json:"event_type"`
	SourceIP   string      `json:"source_ip"`
	SourcePort int         `json:"source_port,omitempty"`
	Username   string      `json:"username,omitempty"`
	Password   string      `json:"password,omitempty"`
	Method     string      `json:"method,omitempty"`
	RequestURI string      `json:"request_uri,omitempty"`
	UserAgent  string      `json:"user_agent,omitempty"`
	Command    string      `json:"command,omitempty"`
	Path       string      `json:"path,omitempty"`
}

// rawEventWire mirrors RawEvent with a string timestamp so that a
// malformed value can be reported as a structural error instead of a
// generic JSON failure.
type rawEventWire struct {
	Timestamp  string      `json:"timestamp"`
	Service    ServiceType `json:"service"`
	EventType  string      `json:"event_type"`
	SourceIP   string      `json:"source_ip"`
	SourcePort int         `json:"source_port"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	Method     string      `json:"method"`
	RequestURI string      `json:"request_uri"`
	UserAgent  string      `json:"user_agent"`
	Command    string      `json:"command"`
	Path       string      `json:"path"`
}

// ParseRawEvent decodes and structurally validates a raw decoy event.
// Errors returned here satisfy errors.Is(err, ErrStructuralInput); the
// caller routes such events to the dead-letter sink.
func ParseRawEvent(data []byte) (*RawEvent, error) {
	var wire rawEventWire

	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralInput, err)
	}

	if wire.SourceIP == "" && wire.Service == "" {
		return nil, fmt.Errorf("%w: %w", ErrStructuralInput, errMissingIdentity)
	}

	ts := time.Now().UTC()

	if wire.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, wire.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: %w: %q", ErrStructuralInput, errMalformedTimestamp, wire.Timestamp)
		}

		ts = parsed
	}

	return &RawEvent{
		Timestamp:  ts,
		Service:    wire.Service,
		EventType:  wire.EventType,
		SourceIP:   wire.SourceIP,
		SourcePort: wire.SourcePort,
		Username:   wire.Username,
		Password:   wire.Password,
		Method:     wire.Method,
		RequestURI: wire.RequestURI,
		UserAgent:  wire.UserAgent,
		Command:    wire.Command,
		Path:       wire.Path,
	}, nil
}
