package ipmisdr

import (
	"fmt"
)

// FRU Device Locator Record (Section 43.8)
type SDRFRUDeviceLocator struct {
	SDRBase

	SlaveAddress       uint8
	DeviceID           uint8
	BusID              uint8
	AccessLUN          uint8
	Logical            bool
	ChannelNumber      uint8
	DeviceType         uint8
	DeviceTypeModifier uint8

	Entity struct {
		ID       uint8
		Instance uint8
	}

	OEM      uint8
	IDType   uint8
	IDLength uint8
	IDString []byte
}

func (r *SDRFRUDeviceLocator) Unmarshal(buf []byte) ([]byte, error) {
	if err := sdrValidateLength("SDRFRUDeviceLocator", buf, sdrFRUDeviceLocatorSize); err != nil {
		return nil, err
	}

	c := newByteCursor(buf)
	r.SlaveAddress = c.next8() >> 1
	r.DeviceID = c.next8()
	access := c.next8()
	r.BusID = access & 0x07
	r.AccessLUN = access & 0x18 >> 3
	r.Logical = access&0x80 != 0
	r.ChannelNumber = c.next8() & 0xf0 >> 4
	c.skip(1) // reserved
	r.DeviceType = c.next8()
	r.DeviceTypeModifier = c.next8()
	r.Entity.ID = c.next8()
	r.Entity.Instance = c.next8()
	r.OEM = c.next8()
	tl := idTypeLength(c.next8())
	if err := c.Err(); err != nil {
		return nil, err
	}
	r.IDType = tl.Type()
	r.IDLength = tl.Length()
	r.IDString = tl.clip(c.Rest())

	return nil, nil
}

func (r *SDRFRUDeviceLocator) SensorID() string {
	return decodeSensorID(r.IDType, r.IDString)
}

func (r *SDRFRUDeviceLocator) String() string {
	return fmt.Sprintf(`["%-16s"] [%s]`, r.SensorID(), r.SDRBase.String())
}

// Management Controller Device Locator Record (Section 43.9)
type SDRMCDeviceLocator struct {
	SDRBase

	SlaveAddress           uint8
	ChannelNumber          uint8
	PowerStateNotification uint8
	DeviceCapabilities     uint8

	Entity struct {
		ID       uint8
		Instance uint8
	}

	OEM      uint8
	IDType   uint8
	IDLength uint8
	IDString []byte
}

func (r *SDRMCDeviceLocator) Unmarshal(buf []byte) ([]byte, error) {
	if err := sdrValidateLength("SDRMCDeviceLocator", buf, sdrMCDeviceLocatorSize); err != nil {
		return nil, err
	}

	c := newByteCursor(buf)
	r.SlaveAddress = c.next8() >> 1
	r.ChannelNumber = c.next8() & 0x0f
	r.PowerStateNotification = c.next8()
	r.DeviceCapabilities = c.next8()
	c.skip(3) // reserved
	r.Entity.ID = c.next8()
	r.Entity.Instance = c.next8()
	r.OEM = c.next8()
	tl := idTypeLength(c.next8())
	if err := c.Err(); err != nil {
		return nil, err
	}
	r.IDType = tl.Type()
	r.IDLength = tl.Length()
	r.IDString = tl.clip(c.Rest())

	return nil, nil
}

// Global initialization bits [3:0] of the power state notification byte
func (r *SDRMCDeviceLocator) GlobalInitialization() uint8 {
	return r.PowerStateNotification & 0x0f
}

func (r *SDRMCDeviceLocator) SensorID() string {
	return decodeSensorID(r.IDType, r.IDString)
}

func (r *SDRMCDeviceLocator) String() string {
	return fmt.Sprintf(`["%-16s"] [%s]`, r.SensorID(), r.SDRBase.String())
}
