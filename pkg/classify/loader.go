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
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/decoytrace/pkg/models"
)

var errUnknownService = errors.New("unknown service in rules file")

// ruleFile is the YAML override format. A service listed here replaces
// its built-in table wholesale; services not listed keep the defaults.
type ruleFile struct {
	Services map[string][]Rule `yaml:"services"`
}

// LoadRules merges YAML rule overrides from path over the default
// tables. An empty path returns the defaults unchanged.
func LoadRules(path string) (RuleSet, error) {
	rules := DefaultRules()

	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file '%s': %w", path, err)
	}

	var file ruleFile

	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file '%s': %w", path, err)
	}

	for name, table := range file.Services {
		svc := models.ServiceType(name)

		switch svc {
		case models.ServiceSSH, models.ServiceHTTP, models.ServiceFTP, models.ServiceTelnet:
			rules[svc] = table
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownService, name)
		}
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules in '%s': %w", path, err)
	}

	return rules, nil
}
