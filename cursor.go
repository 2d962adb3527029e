package ipmisdr

import (
	"encoding/hex"
	"fmt"
)

// byteCursor reads little-endian fields from a fixed buffer.
type byteCursor struct {
	buf    []byte
	offset int
	err    error // First underflow seen by next8/next16
}

func newByteCursor(buf []byte) *byteCursor {
	return &byteCursor{buf: buf}
}

func (c *byteCursor) Len() int { return len(c.buf) - c.offset }

// PopUint consumes an n byte (1-4) unsigned little-endian integer.
func (c *byteCursor) PopUint(n int) (uint32, error) {
	if n < 1 || n > 4 {
		return 0, &ArgumentError{Value: n, Message: "Unsupported integer size"}
	}
	if c.Len() < n {
		return 0, &DecodingError{
			Message: fmt.Sprintf("Buffer underflow at offset %d : %d/%d", c.offset, c.Len(), n),
			Detail:  hex.EncodeToString(c.buf),
		}
	}

	var v uint32
	for i := 0; i < n; i++ {
		v |= uint32(c.buf[c.offset+i]) << (8 * uint(i))
	}
	c.offset += n
	return v, nil
}

func (c *byteCursor) PopUint8() (uint8, error) {
	v, err := c.PopUint(1)
	return uint8(v), err
}

func (c *byteCursor) PopUint16() (uint16, error) {
	v, err := c.PopUint(2)
	return uint16(v), err
}

func (c *byteCursor) PopUint24() (uint32, error) {
	return c.PopUint(3)
}

// Skip discards n bytes.
func (c *byteCursor) Skip(n int) error {
	_, err := c.PopBytes(n)
	return err
}

func (c *byteCursor) PopBytes(n int) ([]byte, error) {
	if c.Len() < n {
		return nil, &DecodingError{
			Message: fmt.Sprintf("Buffer underflow at offset %d : %d/%d", c.offset, c.Len(), n),
			Detail:  hex.EncodeToString(c.buf),
		}
	}
	b := c.buf[c.offset : c.offset+n]
	c.offset += n
	return b, nil
}

// Rest consumes and returns all remaining bytes.
func (c *byteCursor) Rest() []byte {
	b := c.buf[c.offset:]
	c.offset = len(c.buf)
	return b
}

// PopString consumes the remaining bytes as text.
func (c *byteCursor) PopString() string {
	return string(c.Rest())
}

// next8 and next16 keep the first underflow in Err and return zero afterwards.
func (c *byteCursor) next8() uint8 {
	if c.err != nil {
		return 0
	}
	v, err := c.PopUint8()
	c.err = err
	return v
}

func (c *byteCursor) next16() uint16 {
	if c.err != nil {
		return 0
	}
	v, err := c.PopUint16()
	c.err = err
	return v
}

func (c *byteCursor) Err() error { return c.err }

func (c *byteCursor) skip(n int) {
	if c.err == nil {
		c.err = c.Skip(n)
	}
}
