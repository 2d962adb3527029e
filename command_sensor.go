package ipmisdr

// Get Sensor Reading Command (Section 35.14)
type GetSensorReadingCommand struct {
	// Request Data
	RsLUN        uint8
	SensorNumber uint8

	// Response Data
	SensorReading    uint8
	UpdateInProgress bool // Reading/state unavailable
	ScanningDisabled bool
	EventDisabled    bool
	States1          *uint8 // Threshold or discrete states [7:0], when present
	States2          *uint8 // Discrete states [14:8], when present
}

func (c *GetSensorReadingCommand) Name() string { return "Get Sensor Reading" }
func (c *GetSensorReadingCommand) Code() uint8  { return 0x2d }

func (c *GetSensorReadingCommand) NetFnRsLUN() NetFnRsLUN {
	return NewNetFnRsLUN(NetFnSensorReq, c.RsLUN)
}

func (c *GetSensorReadingCommand) String() string           { return cmdToJSON(c) }
func (c *GetSensorReadingCommand) Marshal() ([]byte, error) { return []byte{c.SensorNumber}, nil }

func (c *GetSensorReadingCommand) Unmarshal(buf []byte) ([]byte, error) {
	if err := cmdValidateLength(c, buf, 2); err != nil {
		return nil, err
	}
	c.SensorReading = buf[0]
	c.UpdateInProgress = buf[1]&0x20 != 0
	c.ScanningDisabled = buf[1]&0x40 == 0
	c.EventDisabled = buf[1]&0x80 == 0
	c.States1, c.States2 = nil, nil

	switch l := len(buf); {
	case l == 3:
		s1 := buf[2]
		c.States1 = &s1
	case l >= 4:
		s1, s2 := buf[2], buf[3]
		c.States1, c.States2 = &s1, &s2
		return buf[4:], nil
	}
	return nil, nil
}

// Returns `true` if `SensorReading` is valid.
func (c *GetSensorReadingCommand) IsValid() bool {
	return !(c.UpdateInProgress || c.ScanningDisabled)
}

// Returns the combined state mask, `States2` in the upper byte.
func (c *GetSensorReadingCommand) States() (uint16, bool) {
	switch {
	case c.States1 != nil && c.States2 != nil:
		return uint16(*c.States1) | uint16(*c.States2)<<8, true
	case c.States1 != nil:
		return uint16(*c.States1), true
	case c.States2 != nil:
		return uint16(*c.States2) << 8, true
	}
	return 0, false
}

// Set Sensor Thresholds mask bits (Section 35.8)
const (
	thresholdMaskLNC uint8 = 1 << iota
	thresholdMaskLCR
	thresholdMaskLNR
	thresholdMaskUNC
	thresholdMaskUCR
	thresholdMaskUNR
)

// Set Sensor Thresholds Command (Section 35.8)
type SetSensorThresholdsCommand struct {
	// Request Data
	RsLUN        uint8
	SensorNumber uint8
	SetMask      uint8
	LNC          uint8
	LCR          uint8
	LNR          uint8
	UNC          uint8
	UCR          uint8
	UNR          uint8
}

func (c *SetSensorThresholdsCommand) Name() string { return "Set Sensor Thresholds" }
func (c *SetSensorThresholdsCommand) Code() uint8  { return 0x26 }

func (c *SetSensorThresholdsCommand) NetFnRsLUN() NetFnRsLUN {
	return NewNetFnRsLUN(NetFnSensorReq, c.RsLUN)
}

func (c *SetSensorThresholdsCommand) String() string { return cmdToJSON(c) }

func (c *SetSensorThresholdsCommand) Marshal() ([]byte, error) {
	return []byte{c.SensorNumber, c.SetMask, c.LNC, c.LCR, c.LNR, c.UNC, c.UCR, c.UNR}, nil
}

func (c *SetSensorThresholdsCommand) Unmarshal(buf []byte) ([]byte, error) {
	return buf, nil
}

// Threshold values to write. Nil fields are left untouched on the BMC.
type Thresholds struct {
	UNR *uint8
	UCR *uint8
	UNC *uint8
	LNC *uint8
	LCR *uint8
	LNR *uint8
}

func newSetSensorThresholdsCommand(sensorNumber uint8, t Thresholds) *SetSensorThresholdsCommand {
	c := &SetSensorThresholdsCommand{SensorNumber: sensorNumber}
	set := func(v *uint8, bit uint8, dst *uint8) {
		if v != nil {
			c.SetMask |= bit
			*dst = *v
		}
	}
	set(t.UNR, thresholdMaskUNR, &c.UNR)
	set(t.UCR, thresholdMaskUCR, &c.UCR)
	set(t.UNC, thresholdMaskUNC, &c.UNC)
	set(t.LNC, thresholdMaskLNC, &c.LNC)
	set(t.LCR, thresholdMaskLCR, &c.LCR)
	set(t.LNR, thresholdMaskLNR, &c.LNR)
	return c
}
