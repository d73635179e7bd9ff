package monitor

import (
	"aquawatch.xyz/aqua-monitor-service/pkg/models"
)

type Direction string

const (
	DirectionBelow Direction = "below"
	DirectionAbove Direction = "above"
)

// Violation is one parameter of one reading falling outside the device's
// safe band. Formatting of the human-readable threshold and range strings
// is the emitter's job, not the evaluator's.
type Violation struct {
	Parameter models.Parameter
	Direction Direction
	Value     float64
	Bound     float64
}

// Evaluate checks a reading against a device's configured safe ranges and
// returns every violated bound. Rules are independent, so one reading can
// violate zero to three parameters in a single pass. Pure and total: it
// never fails and has no side effects.
//
// An unset AmmoniaMax (zero value on a device that never configured one)
// is treated as "no ammonia bound" rather than an impossible 0 ppm cap.
func Evaluate(reading *models.Reading, device *models.Device) []Violation {
	var violations []Violation

	if reading.Ph < device.PhMin {
		violations = append(violations, Violation{
			Parameter: models.ParameterPH,
			Direction: DirectionBelow,
			Value:     reading.Ph,
			Bound:     device.PhMin,
		})
	} else if reading.Ph > device.PhMax {
		violations = append(violations, Violation{
			Parameter: models.ParameterPH,
			Direction: DirectionAbove,
			Value:     reading.Ph,
			Bound:     device.PhMax,
		})
	}

	if reading.Temperature < device.TempMin {
		violations = append(violations, Violation{
			Parameter: models.ParameterTemperature,
			Direction: DirectionBelow,
			Value:     reading.Temperature,
			Bound:     device.TempMin,
		})
	} else if reading.Temperature > device.TempMax {
		violations = append(violations, Violation{
			Parameter: models.ParameterTemperature,
			Direction: DirectionAbove,
			Value:     reading.Temperature,
			Bound:     device.TempMax,
		})
	}

	// Ammonia is one-sided: only an upper bound exists.
	if device.AmmoniaMax > 0 && reading.Ammonia > device.AmmoniaMax {
		violations = append(violations, Violation{
			Parameter: models.ParameterAmmonia,
			Direction: DirectionAbove,
			Value:     reading.Ammonia,
			Bound:     device.AmmoniaMax,
		})
	}

	return violations
}
