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

package classify

import (
	"github.com/carverauto/decoytrace/pkg/models"
)

// Classifier evaluates the rule tables. It holds no mutable state, so
// classification is deterministic and safe for concurrent use.
type Classifier struct {
	rules RuleSet
}

// NewClassifier builds a classifier over the given rule set.
func NewClassifier(rules RuleSet) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}

	return &Classifier{rules: rules}
}

// Classify runs the service's rule table over the event in declaration
// order. An event with no matching rule carries no tags; the scorer
// treats an unset base level as low.
func (c *Classifier) Classify(ev *models.RawEvent) models.ClassificationResult {
	result := models.ClassificationResult{ServiceCategory: ev.Service}

	rules, ok := c.rules[ev.Service]
	if !ok {
		return result
	}

	seen := make(map[string]struct{})

	for i := range rules {
		rule := &rules[i]

		if !rule.Matches(ev) {
			continue
		}

		if rule.Tag != "" {
			if _, dup := seen[rule.Tag]; !dup {
				seen[rule.Tag] = struct{}{}
				result.Tags = append(result.Tags, rule.Tag)
			}
		}

		if rule.AttackType != "" {
			result.AttackType = rule.AttackType
		}

		if rule.ThreatLevel != models.ThreatUnset {
			result.BaseThreatLevel = rule.ThreatLevel
		}
	}

	return result
}
