package tracking

import "strings"

// DetectDevice derives coarse device, browser and OS names from a User-Agent.
func DetectDevice(userAgent string) Device {
	ua := strings.ToLower(userAgent)
	d := Device{UserAgent: userAgent, DeviceType: "desktop", Browser: "other", OS: "other"}

	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet") ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")):
		d.DeviceType = "tablet"
	case strings.Contains(ua, "mobi") || strings.Contains(ua, "iphone"):
		d.DeviceType = "mobile"
	}
	if strings.Contains(ua, "bot") || strings.Contains(ua, "spider") || strings.Contains(ua, "crawl") {
		d.DeviceType = "bot"
	}

	// order matters: Edge and Opera also claim Chrome, Chrome claims Safari
	switch {
	case strings.Contains(ua, "edg/"):
		d.Browser = "edge"
	case strings.Contains(ua, "opr/") || strings.Contains(ua, "opera"):
		d.Browser = "opera"
	case strings.Contains(ua, "firefox/"):
		d.Browser = "firefox"
	case strings.Contains(ua, "chrome/") || strings.Contains(ua, "crios/"):
		d.Browser = "chrome"
	case strings.Contains(ua, "safari/"):
		d.Browser = "safari"
	}

	switch {
	case strings.Contains(ua, "windows"):
		d.OS = "windows"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		d.OS = "ios"
	case strings.Contains(ua, "android"):
		d.OS = "android"
	case strings.Contains(ua, "mac os"):
		d.OS = "macos"
	case strings.Contains(ua, "linux"):
		d.OS = "linux"
	}
	return d
}
