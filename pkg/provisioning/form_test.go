package provisioning

import "testing"

func TestDecodeFormValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want string
	}{
		{"plain", "FarmNet", MaxSSIDLen, "FarmNet"},
		{"plus to space", "My+Home+Net", MaxSSIDLen, "My Home Net"},
		{"percent escape", "My+Home%20Net", MaxSSIDLen, "My Home Net"},
		{"lowercase hex", "a%2fb", MaxSSIDLen, "a/b"},
		{"uppercase hex", "a%2Fb", MaxSSIDLen, "a/b"},
		{"malformed escape kept literally", "50%", MaxSSIDLen, "50%"},
		{"malformed hex kept literally", "%zz", MaxSSIDLen, "%zz"},
		{"empty", "", MaxSSIDLen, ""},
		{"utf8 bytes", "r%C3%ADo", MaxSSIDLen, "río"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeFormValue(tt.raw, tt.max)
			if got != tt.want {
				t.Errorf("decodeFormValue(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeFormValueTruncates(t *testing.T) {
	raw := ""
	for i := 0; i < 40; i++ {
		raw += "a"
	}

	got := decodeFormValue(raw, MaxSSIDLen)
	if len(got) != MaxSSIDLen {
		t.Errorf("len = %d, want %d (truncated, not rejected)", len(got), MaxSSIDLen)
	}
}

func TestParseForm(t *testing.T) {
	fields := parseForm("ssid=My%20Net&password=secreta&device_name=bomba+norte")

	if got := formField(fields, "ssid", MaxSSIDLen); got != "My Net" {
		t.Errorf("ssid = %q, want %q", got, "My Net")
	}
	if got := formField(fields, "password", MaxPasswordLen); got != "secreta" {
		t.Errorf("password = %q, want %q", got, "secreta")
	}
	if got := formField(fields, "device_name", MaxDeviceNameLen); got != "bomba norte" {
		t.Errorf("device_name = %q, want %q", got, "bomba norte")
	}
}

func TestParseFormEdgeCases(t *testing.T) {
	fields := parseForm("&=noval&bare&k=v=extra")

	if _, exists := fields[""]; exists {
		t.Error("empty key must be dropped")
	}
	if fields["bare"] != "" {
		t.Errorf("bare key value = %q, want empty", fields["bare"])
	}
	// Only the first '=' splits.
	if got := formField(fields, "k", 64); got != "v=extra" {
		t.Errorf("k = %q, want %q", got, "v=extra")
	}
}

func TestFormFieldMissing(t *testing.T) {
	fields := parseForm("ssid=x")
	if got := formField(fields, "password", MaxPasswordLen); got != "" {
		t.Errorf("missing field = %q, want empty", got)
	}
}
