package ingest

import (
	"encoding/json"
	"fmt"
	"math"
)

// EventTypeStartup marks a provisioning handshake message.
const EventTypeStartup = "device_startup"

// valueRanges holds the closed interval accepted per measurement kind and is
// the fixed enumeration of telemetry kinds the validator accepts.
var valueRanges = map[string][2]float64{
	"platform_extension_ticks": {0, 3000},
	"platform_extension_mm":    {-150, 150},
	"battery_charge":           {0, 100},
	"platform_height_mm":       {0, 200},
}

// TelemetryRecord is a validated telemetry measurement. It exists only in
// memory: the orchestrator builds it after validation and uses it to write a
// processed record.
type TelemetryRecord struct {
	DeviceID  int64
	EventType string
	Value     float64
	Timestamp float64
}

// DeviceStartup is a validated provisioning handshake.
type DeviceStartup struct {
	Serial         string
	ProvisionToken string
	Firmware       string
	Timestamp      float64
}

// IsStartup reports whether a payload should take the provisioning path. The
// routing peek only looks at event_type; full validation happens afterwards.
func IsStartup(payload map[string]any) bool {
	value, ok := payload["event_type"]
	if !ok {
		return false
	}
	name, ok := value.(string)
	return ok && name == EventTypeStartup
}

// ParseTelemetry validates a generic field map against the telemetry schema
// and its per-kind value range. Failures return a *ValidationError.
func ParseTelemetry(payload map[string]any) (*TelemetryRecord, error) {
	deviceID, err := intField(payload, "device_id")
	if err != nil {
		return nil, err
	}
	eventType, err := stringField(payload, "event_type")
	if err != nil {
		return nil, err
	}
	bounds, ok := valueRanges[eventType]
	if !ok {
		return nil, newValidationError(fmt.Sprintf("event_type %q is not recognized", eventType))
	}
	value, err := numericField(payload, "value")
	if err != nil {
		return nil, err
	}
	if value < bounds[0] || value > bounds[1] {
		return nil, newValidationError(fmt.Sprintf("%s value %v out of range %v..%v", eventType, value, bounds[0], bounds[1]))
	}
	timestamp, err := numericField(payload, "timestamp")
	if err != nil {
		return nil, err
	}
	return &TelemetryRecord{
		DeviceID:  deviceID,
		EventType: eventType,
		Value:     value,
		Timestamp: timestamp,
	}, nil
}

// ParseStartup validates a generic field map against the provisioning schema.
func ParseStartup(payload map[string]any) (*DeviceStartup, error) {
	eventType, err := stringField(payload, "event_type")
	if err != nil {
		return nil, err
	}
	if eventType != EventTypeStartup {
		return nil, newValidationError(fmt.Sprintf("event_type must be %q", EventTypeStartup))
	}
	serial, err := stringField(payload, "serial")
	if err != nil {
		return nil, err
	}
	token, err := stringField(payload, "provision_token")
	if err != nil {
		return nil, err
	}
	timestamp, err := numericField(payload, "timestamp")
	if err != nil {
		return nil, err
	}
	firmware := ""
	if raw, ok := payload["firmware"]; ok && raw != nil {
		firmware, ok = raw.(string)
		if !ok {
			return nil, newValidationError("firmware must be a string")
		}
	}
	return &DeviceStartup{
		Serial:         serial,
		ProvisionToken: token,
		Firmware:       firmware,
		Timestamp:      timestamp,
	}, nil
}

func stringField(payload map[string]any, key string) (string, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return "", newValidationError(fmt.Sprintf("missing field %q", key))
	}
	value, ok := raw.(string)
	if !ok {
		return "", newValidationError(fmt.Sprintf("field %q must be a string", key))
	}
	return value, nil
}

func numericField(payload map[string]any, key string) (float64, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return 0, newValidationError(fmt.Sprintf("missing field %q", key))
	}
	switch value := raw.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, newValidationError(fmt.Sprintf("field %q must be numeric", key))
		}
		return parsed, nil
	default:
		return 0, newValidationError(fmt.Sprintf("field %q must be numeric", key))
	}
}

func intField(payload map[string]any, key string) (int64, error) {
	value, err := numericField(payload, key)
	if err != nil {
		return 0, err
	}
	if value != math.Trunc(value) {
		return 0, newValidationError(fmt.Sprintf("field %q must be an integer", key))
	}
	return int64(value), nil
}
