package discovery

import (
	"fmt"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeSetupTXT creates TXT records for setup (captive portal) discovery.
func EncodeSetupTXT(info *SetupInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeyMAC] = info.MAC
	txt[TXTKeyModel] = info.Model
	txt[TXTKeySerial] = info.Serial

	// Optional fields
	if info.DeviceName != "" {
		txt[TXTKeyDeviceName] = info.DeviceName
	}

	return txt
}

// DecodeSetupTXT parses TXT records from setup discovery.
func DecodeSetupTXT(txt TXTRecordMap) (*SetupInfo, error) {
	info := &SetupInfo{}

	var ok bool
	if info.MAC, ok = txt[TXTKeyMAC]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyMAC)
	}
	if info.Model, ok = txt[TXTKeyModel]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	if info.Serial, ok = txt[TXTKeySerial]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySerial)
	}

	// Optional fields
	info.DeviceName = txt[TXTKeyDeviceName]

	return info, nil
}

// EncodeOperationalTXT creates TXT records for operational discovery.
func EncodeOperationalTXT(info *OperationalInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeyMAC] = info.MAC
	txt[TXTKeyModel] = info.Model
	txt[TXTKeySerial] = info.Serial

	// Optional fields
	if info.DeviceName != "" {
		txt[TXTKeyDeviceName] = info.DeviceName
	}
	if info.Firmware != "" {
		txt[TXTKeyFirmware] = info.Firmware
	}
	if info.SSID != "" {
		txt[TXTKeySSID] = info.SSID
	}

	return txt
}

// DecodeOperationalTXT parses TXT records from operational discovery.
func DecodeOperationalTXT(txt TXTRecordMap) (*OperationalInfo, error) {
	info := &OperationalInfo{}

	var ok bool
	if info.MAC, ok = txt[TXTKeyMAC]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyMAC)
	}
	if info.Model, ok = txt[TXTKeyModel]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}
	if info.Serial, ok = txt[TXTKeySerial]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeySerial)
	}

	// Optional fields
	info.DeviceName = txt[TXTKeyDeviceName]
	info.Firmware = txt[TXTKeyFirmware]
	info.SSID = txt[TXTKeySSID]

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
