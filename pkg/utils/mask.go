package utils

import "net/url"

// MaskURL hides the password portion of a URL's userinfo so it can be logged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
