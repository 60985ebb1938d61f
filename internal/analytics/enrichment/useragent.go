// Package enrichment derives device, traffic-source and country dimensions
// from the raw click context before a click is indexed.
package enrichment

import (
	ua "github.com/mileusna/useragent"
)

// DeviceDetector classifies User-Agent strings into coarse device types.
type DeviceDetector struct{}

func NewDeviceDetector() *DeviceDetector {
	return &DeviceDetector{}
}

// DetectDevice returns "Desktop", "Mobile", "Tablet", "Bot" or "Unknown".
func (d *DeviceDetector) DetectDevice(uaString string) string {
	if uaString == "" {
		return "Unknown"
	}

	parsed := ua.Parse(uaString)

	switch {
	case parsed.Bot:
		return "Bot"
	case parsed.Tablet:
		return "Tablet"
	case parsed.Mobile:
		return "Mobile"
	case parsed.Desktop:
		return "Desktop"
	default:
		return "Unknown"
	}
}
