package utils

import (
	"strings"

	"github.com/mssola/user_agent"
)

// DeviceSummary condenses a User-Agent header into a short label stored as
// the scanning device on log rows, e.g. "Chrome 126 / Android".
func DeviceSummary(userAgent string) string {
	if userAgent == "" {
		return ""
	}

	ua := user_agent.New(userAgent)
	name, version := ua.Browser()

	parts := make([]string, 0, 2)
	if name != "" {
		if idx := strings.Index(version, "."); idx > 0 {
			version = version[:idx]
		}
		if version != "" {
			parts = append(parts, name+" "+version)
		} else {
			parts = append(parts, name)
		}
	}
	if osName := ua.OSInfo().Name; osName != "" {
		parts = append(parts, osName)
	}

	if len(parts) == 0 {
		return "Unknown device"
	}
	return strings.Join(parts, " / ")
}
