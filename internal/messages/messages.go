// Package messages defines the node's outbound message schemas and envelope.
package messages

import (
	"encoding/json"
	"maps"
	"strconv"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// Envelope sections.
const (
	SectionMeta = 1
	SectionData = 2
)

// Metadata keys.
const (
	MetaVersion = 10
	MetaType    = 11
	MetaSubtype = 12
	MetaID      = 13
)

// EnvelopeVersion is written to MetaVersion on every message.
const EnvelopeVersion = 1

var ErrMalformed = errors.ValidationError("malformed message envelope").Build()

// Schema describes one message type: routing and the data keys it carries.
type Schema struct {
	Name    string
	Type    int
	Subtype int
	Keys    []int
}

// Meta returns the routing metadata for the schema.
func (s Schema) Meta() map[int]any {
	return map[int]any{
		MetaType:    s.Type,
		MetaSubtype: s.Subtype,
	}
}

// Registration info data keys.
const (
	KeyHardwareID      = 101
	KeySoftwareVersion = 102
	KeyFirmwareVersion = 103
)

// FirmwareVersionPlaceholder is reported until the radio firmware version can be read.
const FirmwareVersionPlaceholder = 100

// RegistrationInfo announces the device to the backend.
var RegistrationInfo = Schema{
	Name:    "registration",
	Type:    1,
	Subtype: 0,
	Keys:    []int{KeyHardwareID, KeySoftwareVersion, KeyFirmwareVersion},
}

// KeyMeasurements holds a sensor report's value.
const KeyMeasurements = 100

const TypeReport = 0

// Sensor report subtypes.
const (
	SubtypeMoisture    = 1
	SubtypeBattery     = 2
	SubtypeTemperature = 3
)

var (
	MoistureReport    = Schema{Name: "moisture", Type: TypeReport, Subtype: SubtypeMoisture, Keys: []int{KeyMeasurements}}
	BatteryReport     = Schema{Name: "battery", Type: TypeReport, Subtype: SubtypeBattery, Keys: []int{KeyMeasurements}}
	TemperatureReport = Schema{Name: "temperature", Type: TypeReport, Subtype: SubtypeTemperature, Keys: []int{KeyMeasurements}}
)

// SensorReport returns the report schema for a sensor kind.
func SensorReport(kind string) (Schema, bool) {
	switch kind {
	case MoistureReport.Name:
		return MoistureReport, true
	case BatteryReport.Name:
		return BatteryReport, true
	case TemperatureReport.Name:
		return TemperatureReport, true
	}
	return Schema{}, false
}

// Message is a queued outbound message.
type Message struct {
	Type    int
	Subtype int
	Meta    map[int]any
	Data    map[int]any
}

// New builds a message, stamping the envelope version and routing metadata.
func New(data map[int]any, msgType, subtype int, meta map[int]any) Message {
	m := Message{
		Type:    msgType,
		Subtype: subtype,
		Meta:    make(map[int]any, len(meta)+3),
		Data:    make(map[int]any, len(data)),
	}
	maps.Copy(m.Meta, meta)
	m.Meta[MetaVersion] = EnvelopeVersion
	m.Meta[MetaType] = msgType
	m.Meta[MetaSubtype] = subtype
	maps.Copy(m.Data, data)
	return m
}

// Encode serialises the message as {"1": meta, "2": data} with numeric keys.
func (m Message) Encode() ([]byte, error) {
	env := map[string]map[string]any{
		strconv.Itoa(SectionMeta): stringKeys(m.Meta),
		strconv.Itoa(SectionData): stringKeys(m.Data),
	}
	return json.Marshal(env)
}

// Decode parses an envelope produced by Encode. Numbers decode as float64
// unless they are routing metadata.
func Decode(b []byte) (Message, error) {
	var env map[string]map[string]any
	if err := json.Unmarshal(b, &env); err != nil {
		return Message{}, ErrMalformed.Wrap(err)
	}
	meta, err := intKeys(env[strconv.Itoa(SectionMeta)])
	if err != nil {
		return Message{}, err
	}
	data, err := intKeys(env[strconv.Itoa(SectionData)])
	if err != nil {
		return Message{}, err
	}
	msgType, ok1 := asInt(meta[MetaType])
	subtype, ok2 := asInt(meta[MetaSubtype])
	if !ok1 || !ok2 {
		return Message{}, ErrMalformed.WithContext("reason", "missing type metadata")
	}
	return Message{Type: msgType, Subtype: subtype, Meta: meta, Data: data}, nil
}

func stringKeys(in map[int]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func intKeys(in map[string]any) (map[int]any, error) {
	out := make(map[int]any, len(in))
	for k, v := range in {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, ErrMalformed.WithContext("key", k)
		}
		out[n] = v
	}
	return out, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
