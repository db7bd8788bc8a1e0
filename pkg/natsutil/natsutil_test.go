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

package natsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carverauto/decoytrace/pkg/models"
)

func TestNormalizeTLSPaths(t *testing.T) {
	tlsCfg := &models.TLSConfig{
		CertFile: "client.pem",
		KeyFile:  "client-key.pem",
		CAFile:   "/etc/decoytrace/certs/root.pem",
	}

	NormalizeTLSPaths(tlsCfg, "/etc/decoytrace/certs")

	assert.Equal(t, "/etc/decoytrace/certs/client.pem", tlsCfg.CertFile)
	assert.Equal(t, "/etc/decoytrace/certs/client-key.pem", tlsCfg.KeyFile)
	assert.Equal(t, "/etc/decoytrace/certs/root.pem", tlsCfg.CAFile, "absolute paths stay untouched")
}

func TestTLSConfigRequiresMTLSMode(t *testing.T) {
	_, err := TLSConfig(nil)
	assert.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{Mode: models.SecurityModeNone})
	assert.ErrorIs(t, err, ErrMTLSRequired)
}

func TestTLSConfigMissingCertificate(t *testing.T) {
	_, err := TLSConfig(&models.SecurityConfig{
		Mode:    models.SecurityModeMTLS,
		CertDir: t.TempDir(),
		TLS: models.TLSConfig{
			CertFile: "missing.pem",
			KeyFile:  "missing-key.pem",
			CAFile:   "root.pem",
		},
	})

	assert.Error(t, err)
}
