package handler

import (
	"strings"

	"github.com/mssola/useragent"
)

// platformFromUserAgent collapses the client User-Agent into the coarse
// platform tag stored with each decision. Compliance review only needs to
// know which surface the prompt was answered on, not the full UA string.
func platformFromUserAgent(ua string) string {
	if ua == "" {
		return "unknown"
	}

	parsed := useragent.New(ua)
	osInfo := parsed.OSInfo()
	switch {
	case strings.Contains(osInfo.Name, "iPhone OS"), strings.Contains(osInfo.Name, "iOS"):
		return "ios"
	case strings.Contains(osInfo.Name, "Android"):
		return "android"
	case parsed.Mobile():
		return "mobile_web"
	case parsed.Bot():
		return "bot"
	default:
		return "web"
	}
}
