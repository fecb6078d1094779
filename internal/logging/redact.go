// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package logging

import (
	"net/url"
	"strings"
)

// sensitiveKeys are query or field names whose values never reach a log
// line unmasked.
var sensitiveKeys = map[string]bool{
	"api_key":       true,
	"apikey":        true,
	"password":      true,
	"password_hash": true,
	"token":         true,
	"authorization": true,
	"cookie":        true,
}

// SanitizeToken masks a credential, showing only first and last 4 characters.
// Example: "f3b1c0d2e4a5968778a9" -> "f3b1...78a9"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeUsername masks a username, keeping first 2 characters.
func SanitizeUsername(username string) string {
	if username == "" {
		return ""
	}
	if len(username) <= 2 {
		return "***"
	}
	return username[:2] + "***"
}

// SanitizeValue masks value when key names a credential.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return value
}

// SanitizeURL masks credential query parameters and userinfo in rawURL.
// Unparsable input is truncated rather than echoed.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return truncateString(rawURL, 32)
	}
	if u.User != nil {
		u.User = url.User(SanitizeUsername(u.User.Username()))
	}
	if u.RawQuery == "" {
		return u.String()
	}

	q := u.Query()
	changed := false
	for key, values := range q {
		if !sensitiveKeys[strings.ToLower(key)] {
			continue
		}
		for i, v := range values {
			values[i] = SanitizeToken(v)
		}
		changed = true
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
