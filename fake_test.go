package ipmisdr

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CPU Temp full sensor record: unsigned, linear, M=1, thresholds 100/90/80/0/5/10
const cpuTempHex = `
01 00 51 01 33
20 00 01 03 01 7f 68 01 01 95 0a 95 0a 3f 3f 00 01 00
00 01 00 00 00 00 00 07 28 50 0a ff 00
64 5a 50 00 05 0a 02 02 00 00 00 c8
43 50 55 20 54 65 6d 70`

// PS1 compact sensor record, sensor-specific, not analog
const ps1Hex = `
02 00 51 02 1e
20 00 02 0a 01 63 40 08 6f 0f 00 0f 00 0f 00 c0 00 00
00 00 00 00 00 00 00 00 c3
50 53 31`

const fru0Hex = `
03 00 51 11 0f
20 00 80 00 00 10 00 07 01 00 c4
46 52 55 30`

const bmcHex = `
04 00 51 12 0e
20 00 00 bf 00 00 00 2e 01 00 c3
42 4d 43`

func mustHex(s string) []byte {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		panic(err)
	}
	return b
}

type fakeRecord struct {
	data []byte
	next uint16
}

// fakeBMC answers SDR and sensor commands from memory. Completion codes in
// faults are returned by successive Get SDR commands, and those in
// reserveFaults by successive reservations; CompletionOK lets the command
// through.
type fakeBMC struct {
	records       map[uint16]fakeRecord
	faults        []CompletionCode
	reserveFaults []CompletionCode
	maxRead       int
	empty         map[int]bool // Get SDR requests, by index, answered without record data
	bodyNext      *uint16      // next record id reported at non-zero offsets
	transport     error

	reservations uint16
	requests     []GetSDRCommand
	info         []byte
	deviceID     []byte
	sensors      map[uint8][]byte
	thresholds   []byte
}

func newFakeBMC() *fakeBMC {
	return &fakeBMC{
		records: map[uint16]fakeRecord{},
		sensors: map[uint8][]byte{},
	}
}

func (f *fakeBMC) Execute(ctx context.Context, cmd Command) error {
	if f.transport != nil {
		return f.transport
	}

	var res []byte
	code := CompletionOK
	switch c := cmd.(type) {
	case *ReserveSDRRepositoryCommand:
		if len(f.reserveFaults) > 0 {
			code, f.reserveFaults = f.reserveFaults[0], f.reserveFaults[1:]
			if code != CompletionOK {
				break
			}
		}
		f.reservations++
		res = []byte{byte(f.reservations), byte(f.reservations >> 8)}
	case *GetSDRCommand:
		f.requests = append(f.requests, *c)
		if len(f.faults) > 0 {
			code, f.faults = f.faults[0], f.faults[1:]
		}
		if code == CompletionOK && f.maxRead > 0 && int(c.ReadBytes) > f.maxRead {
			code = CompletionCantReturnDataBytes
		}
		if code == CompletionOK {
			r, ok := f.records[c.RecordID]
			if !ok {
				code = CompletionRequestDataNotPresent
				break
			}
			next := r.next
			if f.bodyNext != nil && c.RecordOffset > 0 {
				next = *f.bodyNext
			}
			if f.empty[len(f.requests)-1] {
				res = []byte{byte(next), byte(next >> 8)}
				break
			}
			end := int(c.RecordOffset) + int(c.ReadBytes)
			if end > len(r.data) {
				end = len(r.data)
			}
			res = append([]byte{byte(next), byte(next >> 8)}, r.data[c.RecordOffset:end]...)
		}
	case *GetSDRRepositoryInfoCommand:
		res = f.info
	case *GetDeviceIDCommand:
		res = f.deviceID
	case *GetSensorReadingCommand:
		r, ok := f.sensors[c.SensorNumber]
		if !ok {
			code = CompletionRequestDataNotPresent
		}
		res = r
	case *SetSensorThresholdsCommand:
		f.thresholds, _ = c.Marshal()
	default:
		code = CompletionInvalidCommand
	}

	if code != CompletionOK {
		return &CommandError{CompletionCode: code, Command: cmd}
	}
	_, err := cmd.Unmarshal(res)
	return err
}

// Read sizes of the Get SDR requests
func (f *fakeBMC) readBytes() []uint8 {
	var n []uint8
	for _, r := range f.requests {
		n = append(n, r.ReadBytes)
	}
	return n
}

// newTestClient returns a client whose backoff records the delays instead of sleeping.
func newTestClient(t *testing.T, port Port, args Arguments) (*Client, *[]time.Duration) {
	t.Helper()
	c, err := NewClient(port, args)
	require.NoError(t, err)

	sleeps := &[]time.Duration{}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return ctx.Err()
	}
	return c, sleeps
}

func repeat(code CompletionCode, n int) []CompletionCode {
	codes := make([]CompletionCode, n)
	for i := range codes {
		codes[i] = code
	}
	return codes
}
