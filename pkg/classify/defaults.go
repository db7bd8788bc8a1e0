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

import "github.com/carverauto/decoytrace/pkg/models"

// Attack taxonomy tags.
const (
	TagBruteForce         = "brute_force"
	TagCommonUsername     = "common_username"
	TagCommonPassword     = "common_password"
	TagScriptInjection    = "script_injection"
	TagAdminAccessAttempt = "admin_access_attempt"
	TagAutomatedScan      = "automated_scan"
	TagSQLInjection       = "sql_injection"
	TagXSSAttempt         = "xss_attempt"
	TagIoTBotnet          = "iot_botnet"
	TagDirectoryTraversal = "directory_traversal"
	TagCommandInjection   = "command_injection"
)

// Attack types (best single label per event).
const (
	AttackBruteForce         = "brute_force"
	AttackWebExploit         = "web_exploit"
	AttackUnauthorizedAccess = "unauthorized_access"
	AttackReconnaissance     = "reconnaissance"
	AttackSQLInjection       = "sql_injection"
	AttackXSS                = "xss"
	AttackDataExfiltration   = "data_exfiltration"
	AttackIoTCompromise      = "iot_compromise"
	AttackDirectoryTraversal = "directory_traversal"
	AttackCommandInjection   = "command_injection"
)

var (
	commonUsernames = []string{
		"root", "admin", "user", "test", "oracle", "postgres",
		"ubuntu", "guest", "ftp", "pi",
	}

	commonPasswords = []string{
		"123456", "password", "admin", "root", "12345678", "qwerty",
		"123456789", "12345", "1234", "letmein", "welcome", "changeme",
	}

	iotUsernames = []string{"admin", "root", "user", "guest", "support"}

	iotPasswords = []string{
		"admin", "root", "password", "123456", "user", "guest",
		"support", "1234", "toor", "pass", "12345",
	}

	scriptExtensions = []string{".php", ".asp", ".aspx", ".jsp", ".cgi"}

	adminPaths = []string{"/admin", "wp-admin", "phpmyadmin", "administrator", "/manager"}

	scannerAgents = []string{
		"bot", "crawler", "scanner", "spider", "nikto", "sqlmap",
		"nmap", "masscan", "zgrab",
	}

	sqlKeywords = []string{
		"union", "select", "insert", "update", "delete", "drop",
		"create", "alter",
	}

	xssPatterns = []string{
		"<script", "javascript:", "onload=", "onerror=", "alert(",
		"document.cookie",
	}

	traversalPatterns = []string{"../", "..%2f", "..%5c"}

	shellMetaPatterns = []string{";", "|", "`", "$("}
)

// DefaultRules returns the built-in rule tables. Declaration order is
// load-bearing: tags accumulate across rules, while AttackType and
// ThreatLevel follow last-writer-wins within each table.
func DefaultRules() RuleSet {
	return RuleSet{
		models.ServiceSSH: {
			{
				Name: "ssh-auth-attempt",
				Conditions: []Condition{
					{Field: FieldEventType, Kind: MatchEquals, Values: []string{"auth_attempt"}},
				},
				Tag:        TagBruteForce,
				AttackType: AttackBruteForce,
			},
			{
				Name: "ssh-common-username",
				Conditions: []Condition{
					{Field: FieldUsername, Kind: MatchInSet, Values: commonUsernames},
				},
				Tag:         TagCommonUsername,
				ThreatLevel: models.ThreatMedium,
			},
			{
				Name: "ssh-common-password",
				Conditions: []Condition{
					{Field: FieldPassword, Kind: MatchInSet, Values: commonPasswords},
				},
				Tag:         TagCommonPassword,
				ThreatLevel: models.ThreatMedium,
			},
		},
		models.ServiceHTTP: {
			{
				Name: "http-script-extension",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAny, Values: scriptExtensions},
				},
				Tag:        TagScriptInjection,
				AttackType: AttackWebExploit,
			},
			{
				Name: "http-admin-path",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAny, Values: adminPaths},
				},
				Tag:        TagAdminAccessAttempt,
				AttackType: AttackUnauthorizedAccess,
			},
			{
				Name: "http-scanner-agent",
				Conditions: []Condition{
					{Field: FieldUserAgent, Kind: MatchContainsAny, Values: scannerAgents},
				},
				Tag:        TagAutomatedScan,
				AttackType: AttackReconnaissance,
			},
			{
				Name: "http-sql-keywords",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAnyFold, Values: sqlKeywords},
				},
				Tag:         TagSQLInjection,
				AttackType:  AttackSQLInjection,
				ThreatLevel: models.ThreatHigh,
			},
			{
				Name: "http-xss-patterns",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAnyFold, Values: xssPatterns},
				},
				Tag:         TagXSSAttempt,
				AttackType:  AttackXSS,
				ThreatLevel: models.ThreatHigh,
			},
			{
				Name: "http-directory-traversal",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAny, Values: traversalPatterns},
				},
				Tag:        TagDirectoryTraversal,
				AttackType: AttackDirectoryTraversal,
			},
			{
				Name: "http-command-injection",
				Conditions: []Condition{
					{Field: FieldRequestURI, Kind: MatchContainsAny, Values: shellMetaPatterns},
				},
				Tag:         TagCommandInjection,
				AttackType:  AttackCommandInjection,
				ThreatLevel: models.ThreatHigh,
			},
		},
		models.ServiceFTP: {
			{
				Name: "ftp-login-attempt",
				Conditions: []Condition{
					{Field: FieldEventType, Kind: MatchEquals, Values: []string{"login_attempt"}},
				},
				AttackType: AttackBruteForce,
			},
			{
				Name: "ftp-file-access",
				Conditions: []Condition{
					{Field: FieldEventType, Kind: MatchEquals, Values: []string{"file_access"}},
				},
				AttackType: AttackDataExfiltration,
			},
		},
		models.ServiceTelnet: {
			{
				Name: "telnet-login-attempt",
				Conditions: []Condition{
					{Field: FieldEventType, Kind: MatchEquals, Values: []string{"login_attempt"}},
				},
				AttackType: AttackBruteForce,
			},
			{
				Name: "telnet-iot-credentials",
				Conditions: []Condition{
					{Field: FieldUsername, Kind: MatchInSet, Values: iotUsernames},
					{Field: FieldPassword, Kind: MatchInSet, Values: iotPasswords},
				},
				Tag:         TagIoTBotnet,
				AttackType:  AttackIoTCompromise,
				ThreatLevel: models.ThreatHigh,
			},
		},
	}
}
