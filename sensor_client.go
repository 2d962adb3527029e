package ipmisdr

import (
	"context"

	"github.com/pkg/errors"
)

// Returns the raw reading and the state mask of a sensor. The reading is nil
// while the device reports an update in progress, the states are nil when the
// response carries none.
func (c *Client) GetSensorReading(ctx context.Context, sensorNumber uint8) (*uint8, *uint16, error) {
	gsr := &GetSensorReadingCommand{SensorNumber: sensorNumber}
	if err := c.Execute(ctx, gsr); err != nil {
		return nil, nil, errors.Wrapf(err, "get sensor reading 0x%02x", sensorNumber)
	}

	var reading *uint8
	if !gsr.UpdateInProgress {
		v := gsr.SensorReading
		reading = &v
	}
	var states *uint16
	if s, ok := gsr.States(); ok {
		states = &s
	}
	return reading, states, nil
}

// Writes the thresholds that are set in t in one request.
func (c *Client) SetSensorThresholds(ctx context.Context, sensorNumber uint8, t Thresholds) error {
	ssc := newSetSensorThresholdsCommand(sensorNumber, t)
	if err := c.Execute(ctx, ssc); err != nil {
		return errors.Wrapf(err, "set sensor thresholds 0x%02x", sensorNumber)
	}
	c.log.Debug("sensor thresholds set", zapCommand(ssc)...)
	return nil
}
