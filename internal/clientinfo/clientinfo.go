// Package clientinfo derives audit-friendly descriptions of the client that
// originated a signup or login attempt from its User-Agent string.
package clientinfo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Describe extracts a human-readable device name from a User-Agent string,
// in the form "Browser on OS" (e.g. "Chrome on Mac OS X"). It is used only
// to enrich audit log entries; nothing gates on it.
func Describe(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	browser = strings.TrimSpace(browser)
	if browser == "" {
		browser = "Unknown Browser"
	}
	os = strings.TrimSpace(os)
	if os == "" {
		os = "Unknown OS"
	}

	return browser + " on " + os
}

// Fingerprint computes a stable hash over the coarse device characteristics
// (browser, major version, OS, platform). It deliberately excludes the IP
// address, which is too volatile to fingerprint on.
func Fingerprint(userAgentString string) string {
	if userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)
	browser, version := ua.Browser()

	majorVersion := "unknown"
	if version != "" {
		if before, _, _ := strings.Cut(version, "."); before != "" {
			majorVersion = before
		}
	}

	platform := "desktop"
	if ua.Mobile() {
		platform = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}

	data := fmt.Sprintf("%s|%s|%s|%s", browser, majorVersion, os, platform)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
