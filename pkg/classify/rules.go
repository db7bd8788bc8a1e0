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

// Package classify tags decoy events with an attack taxonomy by running
// ordered, service-specific rule tables over each raw event.
package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/decoytrace/pkg/models"
)

// MatchKind selects how a condition compares a field value.
type MatchKind string

const (
	// MatchEquals requires the field to equal the single value exactly.
	MatchEquals MatchKind = "equals"
	// MatchInSet requires the field to be a member of the value set.
	MatchInSet MatchKind = "in_set"
	// MatchContainsAny requires the field to contain any value as a
	// case-sensitive substring.
	MatchContainsAny MatchKind = "contains_any"
	// MatchContainsAnyFold is MatchContainsAny but case-insensitive.
	// Only the SQL and XSS rules use it; the asymmetry with the other
	// rules is intentional and preserved from the original rule set.
	MatchContainsAnyFold MatchKind = "contains_any_fold"
)

// Field names the RawEvent attribute a condition inspects.
type Field string

const (
	FieldEventType  Field = "event_type"
	FieldUsername   Field = "username"
	FieldPassword   Field = "password"
	FieldRequestURI Field = "request_uri"
	FieldUserAgent  Field = "user_agent"
)

var (
	errUnknownField     = errors.New("unknown condition field")
	errUnknownMatchKind = errors.New("unknown condition match kind")
	errNoConditions     = errors.New("rule has no conditions")
	errNoValues         = errors.New("condition has no values")
)

// Condition is one predicate over a raw event field. All conditions of
// a rule must hold for the rule to fire.
type Condition struct {
	Field  Field     `yaml:"field"`
	Kind   MatchKind `yaml:"kind"`
	Values []string  `yaml:"values"`
}

// Matches evaluates the condition against the event.
func (c *Condition) Matches(ev *models.RawEvent) bool {
	val, ok := fieldValue(ev, c.Field)
	if !ok {
		return false
	}

	switch c.Kind {
	case MatchEquals:
		return len(c.Values) > 0 && val == c.Values[0]
	case MatchInSet:
		for _, v := range c.Values {
			if val == v {
				return true
			}
		}

		return false
	case MatchContainsAny:
		for _, v := range c.Values {
			if strings.Contains(val, v) {
				return true
			}
		}

		return false
	case MatchContainsAnyFold:
		lowered := strings.ToLower(val)
		for _, v := range c.Values {
			if strings.Contains(lowered, strings.ToLower(v)) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

func (c *Condition) validate() error {
	switch c.Field {
	case FieldEventType, FieldUsername, FieldPassword, FieldRequestURI, FieldUserAgent:
	default:
		return fmt.Errorf("%w: %q", errUnknownField, c.Field)
	}

	switch c.Kind {
	case MatchEquals, MatchInSet, MatchContainsAny, MatchContainsAnyFold:
	default:
		return fmt.Errorf("%w: %q", errUnknownMatchKind, c.Kind)
	}

	if len(c.Values) == 0 {
		return fmt.Errorf("%w (field %q)", errNoValues, c.Field)
	}

	return nil
}

func fieldValue(ev *models.RawEvent, f Field) (string, bool) {
	switch f {
	case FieldEventType:
		return ev.EventType, ev.EventType != ""
	case FieldUsername:
		return ev.Username, ev.Username != ""
	case FieldPassword:
		return ev.Password, ev.Password != ""
	case FieldRequestURI:
		return ev.RequestURI, ev.RequestURI != ""
	case FieldUserAgent:
		return ev.UserAgent, ev.UserAgent != ""
	default:
		return "", false
	}
}

// Rule is one ordered predicate-to-taxonomy mapping. Rules within a
// service table are independent and additive on tags; for AttackType
// and ThreatLevel the last firing rule in declaration order wins.
type Rule struct {
	Name        string             `yaml:"name"`
	Conditions  []Condition        `yaml:"conditions"`
	Tag         string             `yaml:"tag,omitempty"`
	AttackType  string             `yaml:"attack_type,omitempty"`
	ThreatLevel models.ThreatLevel `yaml:"threat_level,omitempty"`
}

// Matches reports whether every condition of the rule holds.
func (r *Rule) Matches(ev *models.RawEvent) bool {
	if len(r.Conditions) == 0 {
		return false
	}

	for i := range r.Conditions {
		if !r.Conditions[i].Matches(ev) {
			return false
		}
	}

	return true
}

func (r *Rule) validate() error {
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: rule %q", errNoConditions, r.Name)
	}

	for i := range r.Conditions {
		if err := r.Conditions[i].validate(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}

	if _, err := models.ParseThreatLevel(string(r.ThreatLevel)); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}

	return nil
}

// RuleSet maps each decoy service to its ordered rule table.
type RuleSet map[models.ServiceType][]Rule

// Validate checks every rule in the set.
func (rs RuleSet) Validate() error {
	var errs []error

	for svc, rules := range rs {
		for i := range rules {
			if err := rules[i].validate(); err != nil {
				errs = append(errs, fmt.Errorf("service %q: %w", svc, err))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
