package discovery

import (
	"errors"
	"testing"
)

func TestSetupTXTRoundTrip(t *testing.T) {
	info := &SetupInfo{
		MAC:        "AA:BB:CC:DD:EE:FF",
		Model:      "AQ-100",
		Serial:     "AQ100-000341",
		DeviceName: "bomba-norte",
	}

	txt := EncodeSetupTXT(info)
	got, err := DecodeSetupTXT(txt)
	if err != nil {
		t.Fatalf("DecodeSetupTXT() error = %v", err)
	}

	if got.MAC != info.MAC {
		t.Errorf("MAC = %q, want %q", got.MAC, info.MAC)
	}
	if got.Model != info.Model {
		t.Errorf("Model = %q, want %q", got.Model, info.Model)
	}
	if got.Serial != info.Serial {
		t.Errorf("Serial = %q, want %q", got.Serial, info.Serial)
	}
	if got.DeviceName != info.DeviceName {
		t.Errorf("DeviceName = %q, want %q", got.DeviceName, info.DeviceName)
	}
}

func TestSetupTXTOptionalName(t *testing.T) {
	// Before first provisioning the device has no operator name.
	txt := EncodeSetupTXT(&SetupInfo{MAC: "AA:BB:CC:DD:EE:FF", Model: "AQ-100", Serial: "S1"})

	if _, exists := txt[TXTKeyDeviceName]; exists {
		t.Error("empty DeviceName must not be encoded")
	}

	got, err := DecodeSetupTXT(txt)
	if err != nil {
		t.Fatalf("DecodeSetupTXT() error = %v", err)
	}
	if got.DeviceName != "" {
		t.Errorf("DeviceName = %q, want empty", got.DeviceName)
	}
}

func TestSetupTXTMissingRequired(t *testing.T) {
	txt := TXTRecordMap{TXTKeyModel: "AQ-100", TXTKeySerial: "S1"}

	_, err := DecodeSetupTXT(txt)
	if !errors.Is(err, ErrMissingRequired) {
		t.Errorf("DecodeSetupTXT() error = %v, want ErrMissingRequired", err)
	}
}

func TestOperationalTXTRoundTrip(t *testing.T) {
	info := &OperationalInfo{
		MAC:        "AA:BB:CC:DD:EE:FF",
		Model:      "AQ-100",
		Serial:     "AQ100-000341",
		DeviceName: "bomba-norte",
		Firmware:   "2.4.1",
		SSID:       "FarmNet",
	}

	txt := EncodeOperationalTXT(info)
	got, err := DecodeOperationalTXT(txt)
	if err != nil {
		t.Fatalf("DecodeOperationalTXT() error = %v", err)
	}

	if got.Firmware != "2.4.1" {
		t.Errorf("Firmware = %q, want 2.4.1", got.Firmware)
	}
	if got.SSID != "FarmNet" {
		t.Errorf("SSID = %q, want FarmNet", got.SSID)
	}
}

func TestTXTRecordsToStringsRoundTrip(t *testing.T) {
	txt := TXTRecordMap{"MAC": "AA:BB:CC:DD:EE:FF", "model": "AQ-100"}

	strs := TXTRecordsToStrings(txt)
	if len(strs) != 2 {
		t.Fatalf("got %d strings, want 2", len(strs))
	}

	back := StringsToTXTRecords(strs)
	if back["MAC"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("MAC = %q after round-trip", back["MAC"])
	}
	if back["model"] != "AQ-100" {
		t.Errorf("model = %q after round-trip", back["model"])
	}
}

func TestStringsToTXTRecordsFlag(t *testing.T) {
	txt := StringsToTXTRecords([]string{"flag", "k=v"})

	if v, exists := txt["flag"]; !exists || v != "" {
		t.Errorf("flag entry = %q, %v; want empty value present", v, exists)
	}
	if txt["k"] != "v" {
		t.Errorf("k = %q, want v", txt["k"])
	}
}

func TestInstanceName(t *testing.T) {
	got := instanceName("aa:bb:cc:dd:ee:ff")
	want := "acequia-AABBCCDDEEFF"
	if got != want {
		t.Errorf("instanceName() = %q, want %q", got, want)
	}
}

func TestValidateInstanceName(t *testing.T) {
	if err := ValidateInstanceName("acequia-AABBCCDDEEFF"); err != nil {
		t.Errorf("ValidateInstanceName(valid) error = %v", err)
	}

	long := make([]byte, MaxInstanceNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := ValidateInstanceName(string(long)); err != ErrInstanceNameTooLong {
		t.Errorf("ValidateInstanceName(long) = %v, want ErrInstanceNameTooLong", err)
	}
}
