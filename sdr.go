package ipmisdr

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	sdrFirstID uint16 = 0x0000
	sdrLastID  uint16 = 0xffff

	sdrHeaderSize = 5

	sdrCommonSensorSize     = 18
	sdrFullSensorSize       = 25 + sdrCommonSensorSize
	sdrCompactSensorSize    = 9 + sdrCommonSensorSize
	sdrFRUDeviceLocatorSize = 11
	sdrMCDeviceLocatorSize  = 11
)

// Sensor Data Record Type
type SDRType uint8

const (
	SDRTypeFullSensor              SDRType = 0x01
	SDRTypeCompactSensor           SDRType = 0x02
	SDRTypeEventOnlySensor         SDRType = 0x03
	SDRTypeEntityAssociation       SDRType = 0x08
	SDRTypeDeviceEntityAssociation SDRType = 0x09
	SDRTypeGenericDeviceLocator    SDRType = 0x10
	SDRTypeFRUDeviceLocator        SDRType = 0x11
	SDRTypeMCDeviceLocator         SDRType = 0x12
	SDRTypeMCConfirmation          SDRType = 0x13
	SDRTypeBMCMessageChannelInfo   SDRType = 0x14
	SDRTypeOEM                     SDRType = 0xc0
)

func (t SDRType) String() string {
	switch t {
	case SDRTypeFullSensor:
		return "Full Sensor"
	case SDRTypeCompactSensor:
		return "Compact Sensor"
	case SDRTypeEventOnlySensor:
		return "Event-Only Sensor"
	case SDRTypeEntityAssociation:
		return "Entity Association"
	case SDRTypeDeviceEntityAssociation:
		return "Device-relative Entity Association"
	case SDRTypeGenericDeviceLocator:
		return "Generic Device Locator"
	case SDRTypeFRUDeviceLocator:
		return "FRU Device Locator"
	case SDRTypeMCDeviceLocator:
		return "Management Controller Device Locator"
	case SDRTypeMCConfirmation:
		return "Management Controller Confirmation"
	case SDRTypeBMCMessageChannelInfo:
		return "BMC Message Channel Info"
	case SDRTypeOEM:
		return "OEM"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", uint8(t))
	}
}

// Sensor Data Record Header (Section 43)
type SDRHeader struct {
	RecordID   uint16
	SDRVersion uint8
	RecordType SDRType
	BodyLength uint8 // Bytes following the header
}

// Total record length including the header
func (r *SDRHeader) RecordLength() int { return sdrHeaderSize + int(r.BodyLength) }

func (r *SDRHeader) Unmarshal(buf []byte) ([]byte, error) {
	if l := len(buf); l < sdrHeaderSize {
		return nil, &DecodingError{
			Message: fmt.Sprintf("Invalid SDRHeader size : %d/%d", l, sdrHeaderSize),
			Detail:  hex.EncodeToString(buf),
		}
	}

	r.RecordID = binary.LittleEndian.Uint16(buf[:2])
	r.SDRVersion = buf[2]
	r.RecordType = SDRType(buf[3])
	r.BodyLength = buf[4]
	return buf[sdrHeaderSize:], nil
}

// Sensor Data Record. The implementations in this package are the only ones.
type SDR interface {
	// Returns record type
	Type() SDRType
	// Returns record id
	ID() uint16
	// Returns SDR version of the record
	Version() uint8
	// Returns the id of the following record, 0xffff for the last one
	NextID() uint16
	// Returns bytes of the whole record
	Data() []byte

	isSDR()
}

// Fields shared by every record
type SDRBase struct {
	Header       SDRHeader
	Raw          []byte
	NextRecordID uint16
}

func (r *SDRBase) Type() SDRType  { return r.Header.RecordType }
func (r *SDRBase) ID() uint16     { return r.Header.RecordID }
func (r *SDRBase) Version() uint8 { return r.Header.SDRVersion }
func (r *SDRBase) NextID() uint16 { return r.NextRecordID }
func (r *SDRBase) Data() []byte   { return r.Raw }
func (r *SDRBase) isSDR()         {}

// Returns the record key and body bytes
func (r *SDRBase) Body() []byte {
	if len(r.Raw) < sdrHeaderSize {
		return nil
	}
	return r.Raw[sdrHeaderSize:]
}

func (r *SDRBase) String() string { return hex.EncodeToString(r.Raw) }

type sdrBodyUnmarshaler interface {
	SDR
	Unmarshal(body []byte) ([]byte, error)
}

// DecodeSDR decodes a whole record (header, key and body). nextID is the
// successor reported by the repository and is attached to the result.
func DecodeSDR(data []byte, nextID uint16) (SDR, error) {
	var header SDRHeader
	if _, err := header.Unmarshal(data); err != nil {
		return nil, err
	}
	if l, n := len(data), header.RecordLength(); l < n {
		return nil, &DecodingError{
			Message: fmt.Sprintf("Truncated SDR 0x%04x : %d/%d", header.RecordID, l, n),
			Detail:  hex.EncodeToString(data),
		}
	}

	raw := make([]byte, header.RecordLength())
	copy(raw, data)
	base := SDRBase{Header: header, Raw: raw, NextRecordID: nextID}

	var r sdrBodyUnmarshaler
	switch header.RecordType {
	case SDRTypeFullSensor:
		r = &SDRFullSensor{SDRCommonSensor: SDRCommonSensor{SDRBase: base}}
	case SDRTypeCompactSensor:
		r = &SDRCompactSensor{SDRCommonSensor: SDRCommonSensor{SDRBase: base}}
	case SDRTypeEventOnlySensor:
		r = &SDREventOnlySensor{SDRBase: base}
	case SDRTypeFRUDeviceLocator:
		r = &SDRFRUDeviceLocator{SDRBase: base}
	case SDRTypeMCDeviceLocator:
		r = &SDRMCDeviceLocator{SDRBase: base}
	default:
		return nil, &UnsupportedRecordTypeError{
			RecordType:   header.RecordType,
			RecordID:     header.RecordID,
			NextRecordID: nextID,
		}
	}

	if _, err := r.Unmarshal(raw[sdrHeaderSize:]); err != nil {
		return nil, err
	}
	return r, nil
}

// Device ID String Type/Length code (Section 43.15)
type idTypeLength uint8

func (t idTypeLength) Type() uint8   { return uint8(t) & 0xc0 >> 6 }
func (t idTypeLength) Length() uint8 { return uint8(t) & 0x1f }

// Bytes of the ID string, cut to the declared length
func (t idTypeLength) clip(b []byte) []byte {
	l := int(t.Length())
	if l == 0 {
		return nil
	}
	if l < len(b) {
		b = b[:l]
	}
	return b
}

func decodeSensorID(t uint8, b []byte) string {
	// Support only 8-bit ASCII (Section 43.15)
	switch t {
	case 0x03:
		return string(b)
	}
	return "0x" + hex.EncodeToString(b)
}

// Two's complement to signed int16
func tos16(n uint16, bits int) int16 {
	shift := uint(16 - bits)
	return int16(n<<shift) >> shift
}

func sdrValidateLength(name string, buf []byte, min int) error {
	if l := len(buf); l < min {
		return &DecodingError{
			Message: fmt.Sprintf("Invalid %s size : %d/%d", name, l, min),
			Detail:  hex.EncodeToString(buf),
		}
	}
	return nil
}
