package ipmisdr

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Analog (numeric) Data Format (byte 21 [7:6] of Table 43-1)
type AnalogDataFormat uint8

const (
	AnalogUnsigned AnalogDataFormat = iota
	AnalogOnesComplement
	AnalogTwosComplement
	AnalogNone // Not analog
)

func (f AnalogDataFormat) String() string {
	switch f {
	case AnalogUnsigned:
		return "unsigned"
	case AnalogOnesComplement:
		return "1s_complement"
	case AnalogTwosComplement:
		return "2s_complement"
	default:
		return "none"
	}
}

// Linearization (byte 24 [6:0] of Table 43-1)
type Linearization uint8

const (
	LinearizationLinear Linearization = iota
	LinearizationLn
	LinearizationLog10
	LinearizationLog2
	LinearizationE
	LinearizationExp10
	LinearizationExp2
	LinearizationReciprocal
	LinearizationSqr
	LinearizationCube
	LinearizationSqrt
	LinearizationCubeRoot
)

var linearizations = map[Linearization]struct {
	name string
	fn   func(float64) float64
}{
	LinearizationLinear:     {"linear", func(x float64) float64 { return x }},
	LinearizationLn:         {"ln", math.Log},
	LinearizationLog10:      {"log10", math.Log10},
	LinearizationLog2:       {"log2", math.Log2},
	LinearizationE:          {"e", math.Exp},
	LinearizationExp10:      {"exp10", func(x float64) float64 { return math.Pow(10, x) }},
	LinearizationExp2:       {"exp2", math.Exp2},
	LinearizationReciprocal: {"1/x", func(x float64) float64 { return 1 / x }},
	LinearizationSqr:        {"sqr", func(x float64) float64 { return x * x }},
	LinearizationCube:       {"cube", func(x float64) float64 { return x * x * x }},
	LinearizationSqrt:       {"sqrt", math.Sqrt},
	LinearizationCubeRoot:   {"cube_root", math.Cbrt},
}

func (l Linearization) String() string {
	if f, ok := linearizations[l]; ok {
		return f.name
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(l))
}

// Applies the selected function, or fails with a DecodingError for unknown selectors.
func (l Linearization) apply(x float64) (float64, error) {
	f, ok := linearizations[l&0x7f]
	if !ok {
		return 0, &DecodingError{Message: fmt.Sprintf("Unknown linearization 0x%02x", uint8(l))}
	}
	return f.fn(x), nil
}

// Sign-adjusts a raw reading per the analog data format.
func (f AnalogDataFormat) signed(raw uint8) float64 {
	v := int(raw)
	if raw&0x80 != 0 {
		switch f {
		case AnalogOnesComplement:
			v = -int((raw & 0x7f) ^ 0x7f)
		case AnalogTwosComplement:
			v = -int((raw&0x7f)^0x7f) - 1
		}
	}
	return float64(v)
}

// Returns converted sensor reading (Section 36.3).
//
//	y = L[(M*x + B*10^K1) * 10^K2]
func (r *SDRFullSensor) ConvertSensorReading(raw uint8) (float64, error) {
	x := r.SensorUnits.Analog.signed(raw)
	scaled := (float64(r.M)*x + float64(r.B)*math.Pow(10, float64(r.BExp))) * math.Pow(10, float64(r.RExp))
	return r.Linearization.apply(scaled)
}

// Returns the raw reading for value. Only linear sensors are supported.
func (r *SDRFullSensor) ConvertSensorValue(value float64) (uint8, error) {
	if l := r.Linearization & 0x7f; l != LinearizationLinear {
		return 0, errors.Wrapf(ErrUnsupportedConversion, "linearization %s", l)
	}
	switch r.SensorUnits.Analog {
	case AnalogOnesComplement, AnalogTwosComplement:
		if value < 0 {
			return 0, errors.Wrapf(ErrUnsupportedConversion, "negative value in %s format", r.SensorUnits.Analog)
		}
	}

	raw := math.Round((value*math.Pow(10, -float64(r.RExp)) - float64(r.B)*math.Pow(10, float64(r.BExp))) / float64(r.M))
	switch {
	case math.IsNaN(raw) || math.IsInf(raw, 0):
		return 0, &ConversionError{Value: value, Message: "Sensor value is not convertible"}
	case raw < 0 || raw > 0xff:
		return 0, &ConversionError{Value: value, Message: "Sensor value out of range"}
	}
	return uint8(raw), nil
}

// Threshold values in engineering units. Nil fields are not set.
type ThresholdValues struct {
	UNR *float64
	UCR *float64
	UNC *float64
	LNC *float64
	LCR *float64
	LNR *float64
}

// Returns the record's six thresholds in engineering units.
func (r *SDRFullSensor) ConvertThresholds() (ThresholdValues, error) {
	var v ThresholdValues
	for _, p := range []struct {
		raw uint8
		dst **float64
	}{
		{r.Threshold.UpperNonRecover, &v.UNR},
		{r.Threshold.UpperCrit, &v.UCR},
		{r.Threshold.UpperNonCrit, &v.UNC},
		{r.Threshold.LowerNonCrit, &v.LNC},
		{r.Threshold.LowerCrit, &v.LCR},
		{r.Threshold.LowerNonRecover, &v.LNR},
	} {
		f, err := r.ConvertSensorReading(p.raw)
		if err != nil {
			return ThresholdValues{}, err
		}
		*p.dst = &f
	}
	return v, nil
}

// Returns the raw threshold bytes for the given values, ready for SetSensorThresholds.
func (r *SDRFullSensor) EncodeThresholds(v ThresholdValues) (Thresholds, error) {
	var t Thresholds
	for _, p := range []struct {
		v   *float64
		dst **uint8
	}{
		{v.UNR, &t.UNR}, {v.UCR, &t.UCR}, {v.UNC, &t.UNC},
		{v.LNC, &t.LNC}, {v.LCR, &t.LCR}, {v.LNR, &t.LNR},
	} {
		if p.v == nil {
			continue
		}
		raw, err := r.ConvertSensorValue(*p.v)
		if err != nil {
			return Thresholds{}, err
		}
		*p.dst = &raw
	}
	return t, nil
}
