package utils

import "github.com/mileusna/useragent"

// ClientAgent is the parsed form of a User-Agent header.
type ClientAgent struct {
	Browser string
	OS      string
	Device  string
}

// ParseUserAgent extracts browser, OS and device class from a User-Agent header.
func ParseUserAgent(raw string) ClientAgent {
	ua := useragent.Parse(raw)
	out := ClientAgent{Browser: ua.Name, OS: ua.OS}
	if out.Browser == "" {
		out.Browser = "Unknown"
	}
	if out.OS == "" {
		out.OS = "Unknown"
	}
	switch {
	case ua.Bot:
		out.Device = "bot"
	case ua.Tablet:
		out.Device = "tablet"
	case ua.Mobile:
		out.Device = "mobile"
	default:
		out.Device = "desktop"
	}
	return out
}
