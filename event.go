package ipmisdr

import (
	"fmt"
)

// Event/Reading Type (Table 42-1)
type EventType uint8

const (
	EventTypeUnspecified    EventType = 0x00
	EventTypeThreshold      EventType = 0x01
	EventTypeGenericMin     EventType = 0x02
	EventTypeGenericMax     EventType = 0x0c
	EventTypeSensorSpecific EventType = 0x6f
	EventTypeOEMMin         EventType = 0x70
	EventTypeOEMMax         EventType = 0x7f
)

func (e EventType) IsUnspecified() bool    { return e == EventTypeUnspecified }
func (e EventType) IsThreshold() bool      { return e == EventTypeThreshold }
func (e EventType) IsGeneric() bool        { return e >= EventTypeGenericMin && e <= EventTypeGenericMax }
func (e EventType) IsSensorSpecific() bool { return e == EventTypeSensorSpecific }
func (e EventType) IsOEM() bool            { return e >= EventTypeOEMMin && e <= EventTypeOEMMax }

func (e EventType) String() string {
	switch {
	case e.IsUnspecified():
		return "unspecified"
	case e.IsThreshold():
		return "threshold"
	case e.IsGeneric():
		return fmt.Sprintf("generic(0x%02x)", uint8(e))
	case e.IsSensorSpecific():
		return "sensor-specific"
	case e.IsOEM():
		return fmt.Sprintf("oem(0x%02x)", uint8(e))
	default:
		return fmt.Sprintf("reserved(0x%02x)", uint8(e))
	}
}
