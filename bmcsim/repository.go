// Package bmcsim simulates the SDR repository and sensors of a BMC. A
// Repository implements ipmisdr.Port and can inject the faults a real BMC
// produces during an SDR transfer.
package bmcsim

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/k-sone/ipmisdr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	sdrHeaderSize = 5
	lastRecordID  = 0xffff

	// Threshold bytes of a full sensor record, header included
	fullSensorNumberOffset    = 7
	fullSensorThresholdOffset = 36
)

// Counters of served commands
type Stats struct {
	Reserves  int
	GetSDR    int
	BodyReads int // Get SDR with a non-zero offset
}

type record struct {
	id   uint16
	data []byte
}

// Repository is a simulated BMC. It is safe for concurrent use.
type Repository struct {
	mu sync.Mutex

	log         *zap.Logger
	version     uint8
	available   bool
	lastAdd     uint32
	records     []*record
	index       map[uint16]int
	sensors     map[uint8]Sensor
	faults      Faults
	busy        int
	reservation uint16
	stats       Stats
}

// New creates a Repository from the fixture.
func New(f *Fixture, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Repository{
		log:       log,
		version:   f.SDRVersion,
		available: f.SDRRepository == nil || *f.SDRRepository,
		lastAdd:   f.LastAddTime,
		index:     make(map[uint16]int, len(f.Records)),
		sensors:   make(map[uint8]Sensor, len(f.Sensors)),
		faults:    f.Faults,
		busy:      f.Faults.Busy,
	}
	if r.version == 0 {
		r.version = 0x51
	}

	for i := range f.Records {
		b, err := f.Records[i].bytes()
		if err != nil {
			return nil, err
		}
		if len(b) < sdrHeaderSize {
			return nil, errors.Errorf("record %q is shorter than the header", f.Records[i].Name)
		}
		id := binary.LittleEndian.Uint16(b)
		if _, ok := r.index[id]; ok {
			return nil, errors.Errorf("duplicate record id 0x%04x", id)
		}
		r.index[id] = len(r.records)
		r.records = append(r.records, &record{id: id, data: b})
	}
	for _, s := range f.Sensors {
		if len(s.States) > 2 {
			return nil, errors.Errorf("sensor %d has %d state bytes", s.Number, len(s.States))
		}
		r.sensors[s.Number] = s
	}
	return r, nil
}

// Load creates a Repository from a YAML fixture file.
func Load(path string, log *zap.Logger) (*Repository, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return New(f, log)
}

// Stats returns the served command counters.
func (r *Repository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Thresholds returns the threshold bytes (unr, ucr, unc, lnr, lcr, lnc) of the
// full sensor record of sensor number num.
func (r *Repository) Thresholds(num uint8) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.fullSensor(num)
	if rec == nil {
		return nil, false
	}
	t := make([]byte, 6)
	copy(t, rec.data[fullSensorThresholdOffset:])
	return t, true
}

// CancelReservation invalidates the current reservation, as another
// requester or an SDR update would.
func (r *Repository) CancelReservation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelReservation()
}

func (r *Repository) cancelReservation() {
	r.reservation++
	if r.reservation == 0 {
		r.reservation++
	}
}

func (r *Repository) Execute(ctx context.Context, cmd ipmisdr.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res, code := r.handle(cmd)
	if code != ipmisdr.CompletionOK {
		r.log.Debug("command rejected",
			zap.String("command", cmd.Name()),
			zap.Stringer("completion_code", code),
		)
		return &ipmisdr.CommandError{CompletionCode: code, Command: cmd}
	}
	if _, err := cmd.Unmarshal(res); err != nil {
		return err
	}
	r.log.Debug("command served", zap.String("command", cmd.Name()), zap.Int("bytes", len(res)))
	return nil
}

func (r *Repository) handle(cmd ipmisdr.Command) ([]byte, ipmisdr.CompletionCode) {
	switch c := cmd.(type) {
	case *ipmisdr.GetDeviceIDCommand:
		return r.deviceID(), ipmisdr.CompletionOK
	case *ipmisdr.GetSDRRepositoryInfoCommand:
		return r.repositoryInfo(), ipmisdr.CompletionOK
	case *ipmisdr.ReserveSDRRepositoryCommand:
		r.stats.Reserves++
		r.cancelReservation()
		return binary.LittleEndian.AppendUint16(nil, r.reservation), ipmisdr.CompletionOK
	case *ipmisdr.GetSDRCommand:
		return r.getSDR(c)
	case *ipmisdr.GetSensorReadingCommand:
		return r.sensorReading(c.SensorNumber)
	case *ipmisdr.SetSensorThresholdsCommand:
		return r.setThresholds(c)
	default:
		return nil, ipmisdr.CompletionInvalidCommand
	}
}

func (r *Repository) deviceID() []byte {
	buf := make([]byte, 11)
	buf[0] = 0x20
	buf[1] = 0x01
	buf[2] = 0x01
	buf[4] = 0x02 // IPMI 2.0
	if r.available {
		buf[1] |= 0x80
		buf[5] |= 0x02
	}
	buf[5] |= 0x01 // sensor device
	return buf
}

func (r *Repository) repositoryInfo() []byte {
	buf := make([]byte, 0, 14)
	buf = append(buf, r.version)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(r.records)))
	buf = binary.LittleEndian.AppendUint16(buf, 0xffff)
	buf = binary.LittleEndian.AppendUint32(buf, r.lastAdd)
	buf = binary.LittleEndian.AppendUint32(buf, 0xffffffff)
	return append(buf, ipmisdr.SDRSupportReserve|ipmisdr.SDRSupportAllocInfo)
}

func (r *Repository) getSDR(c *ipmisdr.GetSDRCommand) ([]byte, ipmisdr.CompletionCode) {
	r.stats.GetSDR++
	if c.RecordOffset > 0 {
		r.stats.BodyReads++
	}

	if r.busy > 0 {
		r.busy--
		return nil, ipmisdr.CompletionCantBeProvided
	}
	if n := r.faults.CancelReservationEvery; n > 0 && r.stats.GetSDR%n == 0 {
		r.cancelReservation()
	}
	// A zero reservation is only valid for reads from offset 0
	if c.ReservationID == 0 && c.RecordOffset != 0 ||
		c.ReservationID != 0 && c.ReservationID != r.reservation {
		return nil, ipmisdr.CompletionReservationCanceled
	}
	if m := r.faults.MaxReadBytes; m > 0 && int(c.ReadBytes) > m {
		return nil, ipmisdr.CompletionCantReturnDataBytes
	}

	i, ok := r.lookup(c.RecordID)
	if !ok {
		return nil, ipmisdr.CompletionRequestDataNotPresent
	}
	data := r.records[i].data
	off := int(c.RecordOffset)
	if off > len(data) {
		return nil, ipmisdr.CompletionParameterOutOfRange
	}
	end := off + int(c.ReadBytes)
	if end > len(data) {
		end = len(data)
	}

	next := uint16(lastRecordID)
	if i+1 < len(r.records) {
		next = r.records[i+1].id
	}
	buf := binary.LittleEndian.AppendUint16(nil, next)
	return append(buf, data[off:end]...), ipmisdr.CompletionOK
}

func (r *Repository) lookup(id uint16) (int, bool) {
	if len(r.records) == 0 {
		return 0, false
	}
	switch id {
	case 0x0000:
		return 0, true
	case lastRecordID:
		return len(r.records) - 1, true
	}
	i, ok := r.index[id]
	return i, ok
}

func (r *Repository) sensorReading(num uint8) ([]byte, ipmisdr.CompletionCode) {
	s, ok := r.sensors[num]
	if !ok {
		return nil, ipmisdr.CompletionRequestDataNotPresent
	}
	flags := uint8(0xc0) // events and scanning enabled
	if s.UpdateInProgress {
		flags |= 0x20
	}
	return append([]byte{s.Reading, flags}, s.States...), ipmisdr.CompletionOK
}

func (r *Repository) setThresholds(c *ipmisdr.SetSensorThresholdsCommand) ([]byte, ipmisdr.CompletionCode) {
	rec := r.fullSensor(c.SensorNumber)
	if rec == nil {
		return nil, ipmisdr.CompletionRequestDataNotPresent
	}
	req, err := c.Marshal()
	if err != nil || len(req) < 8 {
		return nil, ipmisdr.CompletionRequestDataInvalidLength
	}

	// Request order is lnc, lcr, lnr, unc, ucr, unr; the record stores them reversed
	mask, values := req[1], req[2:8]
	t := rec.data[fullSensorThresholdOffset : fullSensorThresholdOffset+6]
	for bit := 0; bit < 6; bit++ {
		if mask&(1<<bit) != 0 {
			t[5-bit] = values[bit]
		}
	}
	return nil, ipmisdr.CompletionOK
}

func (r *Repository) fullSensor(num uint8) *record {
	for _, rec := range r.records {
		if rec.data[3] == uint8(ipmisdr.SDRTypeFullSensor) &&
			len(rec.data) >= fullSensorThresholdOffset+6 && rec.data[fullSensorNumberOffset] == num {
			return rec
		}
	}
	return nil
}
