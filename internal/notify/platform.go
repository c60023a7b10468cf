package notify

import "strings"

// Platform is the notification service family inferred from a webhook endpoint.
type Platform string

const (
	PlatformSlack    Platform = "slack"
	PlatformDiscord  Platform = "discord"
	PlatformPush     Platform = "push"
	PlatformFallback Platform = "fallback"
)

// Platforms returns every platform in resolution priority order.
func Platforms() []Platform {
	return []Platform{PlatformSlack, PlatformDiscord, PlatformPush, PlatformFallback}
}

var platformHosts = []struct {
	marker   string
	platform Platform
}{
	{"hooks.slack.com", PlatformSlack},
	{"discord.com/api/webhooks", PlatformDiscord},
	{"discordapp.com/api/webhooks", PlatformDiscord},
	{"api.pushover.net", PlatformPush},
}

// ResolvePlatform maps a webhook endpoint to its platform by substring match.
func ResolvePlatform(endpoint string) Platform {
	lowered := strings.ToLower(endpoint)
	for _, candidate := range platformHosts {
		if strings.Contains(lowered, candidate.marker) {
			return candidate.platform
		}
	}
	return PlatformFallback
}
