package ipmisdr

import (
	"time"
)

const (
	timestampUnspecified = 0xffffffff
	timestampPostInitMax = 0x20000000
)

// Timestamp (Section 37). The SDR repository reports the last add/erase
// time in this format.
type Timestamp struct {
	Value uint32
}

func (t Timestamp) IsUnspecified() bool { return t.Value == timestampUnspecified }

// Values up to 0x20000000 count seconds since BMC initialization.
func (t Timestamp) IsPostInit() bool { return t.Value <= timestampPostInitMax }

func (t Timestamp) Time() time.Time { return time.Unix(int64(t.Value), 0) }

func (t Timestamp) Format(format string) string {
	switch {
	case t.IsUnspecified():
		return "Unspecified"
	case t.IsPostInit():
		return "Post-Init"
	}
	return t.Time().UTC().Format(format)
}

func (t Timestamp) String() string {
	return t.Format(time.RFC3339)
}
