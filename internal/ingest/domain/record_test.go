package ingest

import (
	"strings"
	"testing"
)

func telemetryPayload(eventType string, value float64) map[string]any {
	return map[string]any{
		"device_id":  float64(1),
		"event_type": eventType,
		"value":      value,
		"timestamp":  1.0,
	}
}

func TestParseTelemetry_RangeBoundaries(t *testing.T) {
	cases := []struct {
		eventType string
		value     float64
		ok        bool
	}{
		{"platform_extension_ticks", 0, true},
		{"platform_extension_ticks", 3000, true},
		{"platform_extension_ticks", -1, false},
		{"platform_extension_ticks", 3001, false},
		{"platform_extension_mm", -150, true},
		{"platform_extension_mm", 150, true},
		{"platform_extension_mm", -151, false},
		{"platform_extension_mm", 151, false},
		{"battery_charge", 0, true},
		{"battery_charge", 100, true},
		{"battery_charge", -1, false},
		{"battery_charge", 101, false},
		{"battery_charge", 1234, false},
		{"platform_height_mm", 0, true},
		{"platform_height_mm", 200, true},
		{"platform_height_mm", -1, false},
		{"platform_height_mm", 201, false},
	}

	for _, tc := range cases {
		record, err := ParseTelemetry(telemetryPayload(tc.eventType, tc.value))
		if tc.ok {
			if err != nil {
				t.Fatalf("%s value %v: expected valid, got %v", tc.eventType, tc.value, err)
			}
			if record.Value != tc.value {
				t.Fatalf("%s: value mismatch: got %v want %v", tc.eventType, record.Value, tc.value)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%s value %v: expected rejection", tc.eventType, tc.value)
		}
		if !IsValidationError(err) {
			t.Fatalf("%s value %v: expected validation error, got %T", tc.eventType, tc.value, err)
		}
	}
}

func TestParseTelemetry_SchemaViolations(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing device_id", map[string]any{"event_type": "battery_charge", "value": 50.0, "timestamp": 1.0}},
		{"missing event_type", map[string]any{"device_id": 1.0, "value": 50.0, "timestamp": 1.0}},
		{"missing value", map[string]any{"device_id": 1.0, "event_type": "battery_charge", "timestamp": 1.0}},
		{"missing timestamp", map[string]any{"device_id": 1.0, "event_type": "battery_charge", "value": 50.0}},
		{"unknown event_type", telemetryPayload("wind_speed", 1)},
		{"startup is not telemetry", map[string]any{"device_id": 1.0, "event_type": "device_startup", "value": 0.0, "timestamp": 1.0}},
		{"string value", map[string]any{"device_id": 1.0, "event_type": "battery_charge", "value": "50", "timestamp": 1.0}},
		{"fractional device id", map[string]any{"device_id": 1.5, "event_type": "battery_charge", "value": 50.0, "timestamp": 1.0}},
		{"raw text fallback", map[string]any{"_raw": "not json at all"}},
	}

	for _, tc := range cases {
		if _, err := ParseTelemetry(tc.payload); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		} else if !IsValidationError(err) {
			t.Fatalf("%s: expected validation error, got %T", tc.name, err)
		}
	}
}

func TestParseTelemetry_IntegerValueAccepted(t *testing.T) {
	payload := map[string]any{
		"device_id":  1,
		"event_type": "platform_extension_ticks",
		"value":      1000,
		"timestamp":  1.0,
	}
	record, err := ParseTelemetry(payload)
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if record.DeviceID != 1 || record.Value != 1000 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestParseStartup(t *testing.T) {
	payload := map[string]any{
		"event_type":      "device_startup",
		"serial":          "SER-1",
		"provision_token": "abc",
		"timestamp":       1.0,
	}
	startup, err := ParseStartup(payload)
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if startup.Serial != "SER-1" || startup.ProvisionToken != "abc" {
		t.Fatalf("unexpected startup: %+v", startup)
	}
	if startup.Firmware != "" {
		t.Fatalf("expected empty firmware, got %q", startup.Firmware)
	}

	payload["firmware"] = "1.2.3"
	startup, err = ParseStartup(payload)
	if err != nil {
		t.Fatalf("expected valid with firmware, got %v", err)
	}
	if startup.Firmware != "1.2.3" {
		t.Fatalf("firmware mismatch: got %q", startup.Firmware)
	}
}

func TestParseStartup_Violations(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"missing serial", map[string]any{"event_type": "device_startup", "provision_token": "abc", "timestamp": 1.0}},
		{"missing token", map[string]any{"event_type": "device_startup", "serial": "SER", "timestamp": 1.0}},
		{"missing timestamp", map[string]any{"event_type": "device_startup", "serial": "SER", "provision_token": "abc"}},
		{"wrong event_type", map[string]any{"event_type": "battery_charge", "serial": "SER", "provision_token": "abc", "timestamp": 1.0}},
		{"numeric firmware", map[string]any{"event_type": "device_startup", "serial": "SER", "provision_token": "abc", "timestamp": 1.0, "firmware": 7.0}},
	}
	for _, tc := range cases {
		if _, err := ParseStartup(tc.payload); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
}

func TestValidationErrorReason(t *testing.T) {
	_, err := ParseTelemetry(telemetryPayload("battery_charge", 1234))
	if err == nil {
		t.Fatal("expected rejection")
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected readable reason, got %q", err.Error())
	}
}

func TestIsStartup(t *testing.T) {
	if !IsStartup(map[string]any{"event_type": "device_startup"}) {
		t.Fatal("expected startup routing")
	}
	if IsStartup(map[string]any{"event_type": "battery_charge"}) {
		t.Fatal("expected telemetry routing")
	}
	if IsStartup(map[string]any{"event_type": 42.0}) {
		t.Fatal("expected telemetry routing for non-string event_type")
	}
	if IsStartup(map[string]any{"_raw": "garbage"}) {
		t.Fatal("expected telemetry routing for raw fallback")
	}
}
