package ipmisdr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/k-sone/ipmisdr"
	"github.com/k-sone/ipmisdr/bmcsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fixturePath = "bmcsim/testdata/repository.yaml"

func newSimClient(t *testing.T, faults bmcsim.Faults) (*ipmisdr.Client, *bmcsim.Repository) {
	t.Helper()
	f, err := bmcsim.LoadFixture(fixturePath)
	require.NoError(t, err)
	f.Faults = faults

	log := zaptest.NewLogger(t)
	sim, err := bmcsim.New(f, log.Named("bmcsim"))
	require.NoError(t, err)
	c, err := ipmisdr.NewClient(sim, ipmisdr.Arguments{
		BackoffUnit:        time.Microsecond,
		ReservationBackoff: time.Microsecond,
		Logger:             log,
	})
	require.NoError(t, err)
	return c, sim
}

type recordSummary struct {
	Type ipmisdr.SDRType
	ID   uint16
	Next uint16
	Data []byte
}

func collect(t *testing.T, c *ipmisdr.Client) ([]recordSummary, []error) {
	t.Helper()
	var records []recordSummary
	var errs []error
	for r, err := range c.SDRRecords(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, recordSummary{r.Type(), r.ID(), r.NextID(), r.Data()})
	}
	return records, errs
}

func TestSimulatedRepository(t *testing.T) {
	c, sim := newSimClient(t, bmcsim.Faults{})

	records, errs := collect(t, c)
	require.Len(t, records, 5)
	var types []ipmisdr.SDRType
	for _, r := range records {
		types = append(types, r.Type)
	}
	assert.Equal(t, []ipmisdr.SDRType{
		ipmisdr.SDRTypeFullSensor,
		ipmisdr.SDRTypeCompactSensor,
		ipmisdr.SDRTypeFRUDeviceLocator,
		ipmisdr.SDRTypeMCDeviceLocator,
		ipmisdr.SDRTypeEventOnlySensor,
	}, types)
	assert.Equal(t, uint16(0xffff), records[4].Next)

	require.Len(t, errs, 1)
	var ue *ipmisdr.UnsupportedRecordTypeError
	require.True(t, errors.As(errs[0], &ue))
	assert.Equal(t, ipmisdr.SDRTypeMCConfirmation, ue.RecordType)
	assert.Equal(t, uint16(6), ue.NextRecordID)

	assert.Equal(t, 1, sim.Stats().Reserves)
}

func TestSimulatedRepositoryWithFaults(t *testing.T) {
	base, _ := newSimClient(t, bmcsim.Faults{})
	want, _ := collect(t, base)

	tests := map[string]bmcsim.Faults{
		"short reads":          {MaxReadBytes: 12},
		"busy":                 {Busy: 3},
		"canceled reservation": {CancelReservationEvery: 5},
		"all":                  {MaxReadBytes: 12, Busy: 2, CancelReservationEvery: 7},
	}
	for name, faults := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newSimClient(t, faults)
			got, errs := collect(t, c)
			require.Len(t, errs, 1)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("records differ (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSimulatedThresholds(t *testing.T) {
	c, sim := newSimClient(t, bmcsim.Faults{})
	ctx := context.Background()

	r, err := c.GetSDR(ctx, 1, nil)
	require.NoError(t, err)
	full := r.(*ipmisdr.SDRFullSensor)
	assert.Equal(t, "CPU Temp", full.SensorID())
	assert.True(t, full.IsAnalogReading())

	raw, states, err := c.GetSensorReading(ctx, full.SensorNumber)
	require.NoError(t, err)
	v, err := full.ConvertSensorReading(*raw)
	require.NoError(t, err)
	assert.Equal(t, 45.0, v)
	assert.Equal(t, ipmisdr.ThresholdStatusOK, ipmisdr.NewThresholdStatus(uint8(*states)))

	unr, lnc := 95.0, 12.0
	th, err := full.EncodeThresholds(ipmisdr.ThresholdValues{UNR: &unr, LNC: &lnc})
	require.NoError(t, err)
	require.NoError(t, c.SetSensorThresholds(ctx, full.SensorNumber, th))

	b, ok := sim.Thresholds(full.SensorNumber)
	require.True(t, ok)
	assert.Equal(t, []byte{95, 90, 80, 0, 5, 12}, b)

	// The record read back carries the new thresholds
	r, err = c.GetSDR(ctx, 1, nil)
	require.NoError(t, err)
	values, err := r.(*ipmisdr.SDRFullSensor).ConvertThresholds()
	require.NoError(t, err)
	assert.Equal(t, 95.0, *values.UNR)
	assert.Equal(t, 12.0, *values.LNC)
}

func TestSimulatedFilter(t *testing.T) {
	c, sim := newSimClient(t, bmcsim.Faults{})

	records, err := c.SDRGetRecordsRepo(context.Background(), func(id uint16, typ ipmisdr.SDRType) bool {
		return typ == ipmisdr.SDRTypeFRUDeviceLocator
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	fru := records[0].(*ipmisdr.SDRFRUDeviceLocator)
	assert.Equal(t, "FRU0", fru.SensorID())

	// One body read for the 15 byte FRU locator body
	assert.Equal(t, 7, sim.Stats().GetSDR)
	assert.Equal(t, 1, sim.Stats().BodyReads)
}
