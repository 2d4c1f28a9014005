package provisioning

import "strings"

// Per-field maximum lengths after decoding. Over-length input is truncated,
// not rejected; the radio and the credential store impose these limits
// anyway and a portal round-trip to report them is not worth it on a
// device UI.
const (
	// MaxSSIDLen matches the 802.11 SSID limit.
	MaxSSIDLen = 32

	// MaxPasswordLen matches the WPA2 passphrase limit.
	MaxPasswordLen = 64

	// MaxDeviceNameLen bounds the operator-assigned name.
	MaxDeviceNameLen = 32

	// MaxLocationLen bounds the free-text location field.
	MaxLocationLen = 64

	// maxFormBytes bounds the request body read for a form submission.
	maxFormBytes = 4096

	// maxKeyLen bounds decoded form keys.
	maxKeyLen = 64
)

// decodeFormValue URL-decodes raw into at most max bytes.
// '+' becomes a space and %XX becomes the encoded byte. Malformed escapes
// are kept literally rather than rejected. Bytes past max are dropped.
func decodeFormValue(raw string, max int) string {
	var b strings.Builder

	for i := 0; i < len(raw); {
		if b.Len() >= max {
			break
		}

		c := raw[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
			i++
		case c == '%' && i+2 < len(raw):
			hi, okHi := unhex(raw[i+1])
			lo, okLo := unhex(raw[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 3
			} else {
				b.WriteByte('%')
				i++
			}
		default:
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}

// unhex converts a hex digit to its value.
func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// parseForm splits a URL-encoded body into decoded key/value pairs.
// Values are decoded without a cap here; callers apply the per-field
// maxima so each field truncates at its own limit.
func parseForm(body string) map[string]string {
	fields := make(map[string]string)

	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}

		key := pair
		value := ""
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
			value = pair[idx+1:]
		}

		key = decodeFormValue(key, maxKeyLen)
		if key == "" {
			continue
		}
		fields[key] = value
	}

	return fields
}

// formField returns the decoded value of a form field, truncated to max.
func formField(fields map[string]string, name string, max int) string {
	raw, exists := fields[name]
	if !exists {
		return ""
	}
	return decodeFormValue(raw, max)
}
