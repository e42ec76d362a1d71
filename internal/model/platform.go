package model

import (
	"fmt"
	"strings"
)

// Platform identifies one of the supported extraction targets.
type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformTwitch  Platform = "twitch"
	PlatformTikTok  Platform = "tiktok"
)

// Platforms lists every supported platform, in display order.
var Platforms = []Platform{PlatformYouTube, PlatformTwitch, PlatformTikTok}

// UnsupportedPlatformError is returned when a selector falls outside the
// closed platform set. It is always raised before any extraction begins.
type UnsupportedPlatformError struct {
	Selector string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q (expected one of: %s)", e.Selector, PlatformNames())
}

// ParsePlatform validates a CLI platform selector against the closed set.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformYouTube:
		return PlatformYouTube, nil
	case PlatformTwitch:
		return PlatformTwitch, nil
	case PlatformTikTok:
		return PlatformTikTok, nil
	default:
		return "", &UnsupportedPlatformError{Selector: s}
	}
}

// PlatformNames returns the supported selectors as a comma-separated string
// for usage messages.
func PlatformNames() string {
	names := make([]string, len(Platforms))
	for i, p := range Platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func (p Platform) String() string { return string(p) }
