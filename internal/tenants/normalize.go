package tenants

import "strings"

// NormalizeIdentifier canonicalizes a raw tenant identifier taken from a
// header or the Host line: lowercase, scheme/path/port stripped, leading
// "www." and trailing dots removed. Normalizing an already-normalized value
// is a no-op.
func NormalizeIdentifier(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}

	value = strings.TrimPrefix(value, "https://")
	value = strings.TrimPrefix(value, "http://")

	if idx := strings.IndexByte(value, '/'); idx >= 0 {
		value = value[:idx]
	}
	if idx := strings.IndexByte(value, ':'); idx >= 0 {
		value = value[:idx]
	}

	value = strings.TrimPrefix(value, "www.")
	value = strings.TrimRight(value, ".")

	return value
}
