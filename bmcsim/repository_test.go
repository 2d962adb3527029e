package bmcsim

import (
	"context"
	"testing"

	"github.com/k-sone/ipmisdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadTestRepository(t *testing.T, faults Faults) *Repository {
	t.Helper()
	f, err := LoadFixture("testdata/repository.yaml")
	require.NoError(t, err)
	f.Faults = faults
	r, err := New(f, zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func reserve(t *testing.T, r *Repository) uint16 {
	t.Helper()
	c := &ipmisdr.ReserveSDRRepositoryCommand{}
	require.NoError(t, r.Execute(context.Background(), c))
	return c.ReservationID
}

func completionCode(t *testing.T, err error) ipmisdr.CompletionCode {
	t.Helper()
	code, ok := ipmisdr.CompletionCodeOf(err)
	require.True(t, ok, "error %v", err)
	return code
}

func TestRepositoryInfo(t *testing.T) {
	r := loadTestRepository(t, Faults{})

	c := &ipmisdr.GetSDRRepositoryInfoCommand{}
	require.NoError(t, r.Execute(context.Background(), c))
	assert.Equal(t, uint8(0x51), c.SDRVersion)
	assert.Equal(t, uint16(6), c.RecordCount)
	assert.Equal(t, uint32(1700000000), c.LastAddTime.Value)
	assert.True(t, c.LastEraseTime.IsUnspecified())
	assert.True(t, c.SupportsReserve())

	d := &ipmisdr.GetDeviceIDCommand{}
	require.NoError(t, r.Execute(context.Background(), d))
	assert.True(t, d.SupportDeviceSDRRepo)
	assert.True(t, d.DeviceProvidesSDRs)
}

func TestRepositoryWithoutSDR(t *testing.T) {
	off := false
	r, err := New(&Fixture{SDRRepository: &off}, nil)
	require.NoError(t, err)

	d := &ipmisdr.GetDeviceIDCommand{}
	require.NoError(t, r.Execute(context.Background(), d))
	assert.False(t, d.SupportDeviceSDRRepo)
	assert.True(t, d.SupportDeviceSensor)

	err = r.Execute(context.Background(), &ipmisdr.GetSDRCommand{ReadBytes: 5})
	assert.Equal(t, ipmisdr.CompletionRequestDataNotPresent, completionCode(t, err))
}

func TestRepositoryGetSDR(t *testing.T) {
	r := loadTestRepository(t, Faults{})
	ctx := context.Background()
	res := reserve(t, r)

	c := &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 0, ReadBytes: 5}
	require.NoError(t, r.Execute(ctx, c))
	assert.Equal(t, uint16(2), c.NextRecordID)
	assert.Equal(t, []byte{0x01, 0x00, 0x51, 0x01, 0x33}, c.RecordData)

	// Reads past the end are cut
	c = &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 4, RecordOffset: 17, ReadBytes: 20}
	require.NoError(t, r.Execute(ctx, c))
	assert.Equal(t, uint16(5), c.NextRecordID)
	assert.Equal(t, []byte("MC"), c.RecordData)

	c = &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 0xffff, ReadBytes: 5}
	require.NoError(t, r.Execute(ctx, c))
	assert.Equal(t, uint16(0xffff), c.NextRecordID)
	assert.Equal(t, uint8(0x06), c.RecordData[0])

	err := r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 7, ReadBytes: 5})
	assert.Equal(t, ipmisdr.CompletionRequestDataNotPresent, completionCode(t, err))

	err = r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 200, ReadBytes: 5})
	assert.Equal(t, ipmisdr.CompletionParameterOutOfRange, completionCode(t, err))

	assert.Equal(t, Stats{Reserves: 1, GetSDR: 5, BodyReads: 2}, r.Stats())
}

func TestRepositoryReservation(t *testing.T) {
	r := loadTestRepository(t, Faults{})
	ctx := context.Background()

	// Offset 0 reads need no reservation
	require.NoError(t, r.Execute(ctx, &ipmisdr.GetSDRCommand{RecordID: 1, ReadBytes: 5}))
	err := r.Execute(ctx, &ipmisdr.GetSDRCommand{RecordID: 1, RecordOffset: 5, ReadBytes: 5})
	assert.Equal(t, ipmisdr.CompletionReservationCanceled, completionCode(t, err))

	res := reserve(t, r)
	require.NoError(t, r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 5, ReadBytes: 5}))

	r.CancelReservation()
	err = r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 5, ReadBytes: 5})
	assert.Equal(t, ipmisdr.CompletionReservationCanceled, completionCode(t, err))
	assert.NotEqual(t, res, reserve(t, r))
}

func TestRepositoryFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("max read bytes", func(t *testing.T) {
		r := loadTestRepository(t, Faults{MaxReadBytes: 8})
		res := reserve(t, r)
		err := r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 5, ReadBytes: 9})
		assert.Equal(t, ipmisdr.CompletionCantReturnDataBytes, completionCode(t, err))
		require.NoError(t, r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 5, ReadBytes: 8}))
	})

	t.Run("busy", func(t *testing.T) {
		r := loadTestRepository(t, Faults{Busy: 2})
		for i := 0; i < 2; i++ {
			err := r.Execute(ctx, &ipmisdr.GetSDRCommand{RecordID: 1, ReadBytes: 5})
			assert.Equal(t, ipmisdr.CompletionCantBeProvided, completionCode(t, err))
		}
		require.NoError(t, r.Execute(ctx, &ipmisdr.GetSDRCommand{RecordID: 1, ReadBytes: 5}))
	})

	t.Run("cancel reservation", func(t *testing.T) {
		r := loadTestRepository(t, Faults{CancelReservationEvery: 3})
		res := reserve(t, r)
		read := func() error {
			return r.Execute(ctx, &ipmisdr.GetSDRCommand{ReservationID: res, RecordID: 1, RecordOffset: 5, ReadBytes: 5})
		}
		require.NoError(t, read())
		require.NoError(t, read())
		assert.Equal(t, ipmisdr.CompletionReservationCanceled, completionCode(t, read()))
	})
}

func TestRepositorySensorReading(t *testing.T) {
	r := loadTestRepository(t, Faults{})
	ctx := context.Background()

	c := &ipmisdr.GetSensorReadingCommand{SensorNumber: 1}
	require.NoError(t, r.Execute(ctx, c))
	assert.Equal(t, uint8(45), c.SensorReading)
	assert.True(t, c.IsValid())
	states, ok := c.States()
	assert.True(t, ok)
	assert.Zero(t, states)

	c = &ipmisdr.GetSensorReadingCommand{SensorNumber: 2}
	require.NoError(t, r.Execute(ctx, c))
	states, _ = c.States()
	assert.Equal(t, uint16(0x0001), states)

	c = &ipmisdr.GetSensorReadingCommand{SensorNumber: 3}
	require.NoError(t, r.Execute(ctx, c))
	assert.True(t, c.UpdateInProgress)

	err := r.Execute(ctx, &ipmisdr.GetSensorReadingCommand{SensorNumber: 9})
	assert.Equal(t, ipmisdr.CompletionRequestDataNotPresent, completionCode(t, err))
}

func TestRepositorySetThresholds(t *testing.T) {
	r := loadTestRepository(t, Faults{})
	ctx := context.Background()

	before, ok := r.Thresholds(1)
	require.True(t, ok)
	assert.Equal(t, []byte{100, 90, 80, 0, 5, 10}, before)

	c := &ipmisdr.SetSensorThresholdsCommand{SensorNumber: 1, SetMask: 0x21, UNR: 110, LNC: 12}
	require.NoError(t, r.Execute(ctx, c))
	after, _ := r.Thresholds(1)
	assert.Equal(t, []byte{110, 90, 80, 0, 5, 12}, after)

	// Compact sensors have no thresholds to write
	err := r.Execute(ctx, &ipmisdr.SetSensorThresholdsCommand{SensorNumber: 2, SetMask: 0x01})
	assert.Equal(t, ipmisdr.CompletionRequestDataNotPresent, completionCode(t, err))
	_, ok = r.Thresholds(2)
	assert.False(t, ok)
}

func TestRepositoryCanceledContext(t *testing.T) {
	r := loadTestRepository(t, Faults{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Execute(ctx, &ipmisdr.ReserveSDRRepositoryCommand{}), context.Canceled)
	assert.Zero(t, r.Stats().Reserves)
}

func TestNewRepositoryErrors(t *testing.T) {
	tests := map[string]string{
		"bad hex": `
records:
  - name: broken
    data: 01 00 zz`,
		"short record": `
records:
  - name: short
    data: 01 00 51`,
		"duplicate id": `
records:
  - name: a
    data: 01 00 51 01 00
  - name: b
    data: 01 00 51 02 00`,
		"too many states": `
sensors:
  - number: 1
    states: [0, 0, 0]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			f, err := ParseFixture([]byte(data))
			require.NoError(t, err)
			_, err = New(f, nil)
			assert.Error(t, err)
		})
	}

	_, err := ParseFixture([]byte("records: {"))
	assert.Error(t, err)
	_, err = Load("testdata/missing.yaml", nil)
	assert.Error(t, err)
}
