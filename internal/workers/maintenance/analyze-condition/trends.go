package analyzecondition

import "maintenance-copilot/internal/models"

const (
	processTempLimitK = 310.0
	airTempLimitC     = 30.0
	kelvinOffset      = 273.15
	torqueLimitNm     = 50.0
	toolWearLimitMin  = 150.0
)

// SensorTrends holds window averages and the anomaly flags derived from them.
type SensorTrends struct {
	Readings       int
	AvgAirTemp     float64
	AvgProcessTemp float64
	AvgRotSpeed    float64
	AvgTorque      float64
	AvgToolWear    float64

	TemperatureAnomaly bool
	VibrationAnomaly   bool
	ToolWearHigh       bool
}

// AnalyzeSensorTrends averages every reading in the window. Temperatures are stored in
// Kelvin; the air temperature limit is expressed in Celsius.
func AnalyzeSensorTrends(readings []models.SensorReading) SensorTrends {
	n := len(readings)
	if n == 0 {
		return SensorTrends{}
	}

	var t SensorTrends
	for _, r := range readings {
		t.AvgAirTemp += r.AirTemp
		t.AvgProcessTemp += r.ProcessTemp
		t.AvgRotSpeed += r.RotationalSpeed
		t.AvgTorque += r.Torque
		t.AvgToolWear += r.ToolWear
	}

	t.Readings = n
	t.AvgAirTemp /= float64(n)
	t.AvgProcessTemp /= float64(n)
	t.AvgRotSpeed /= float64(n)
	t.AvgTorque /= float64(n)
	t.AvgToolWear /= float64(n)

	t.TemperatureAnomaly = t.AvgProcessTemp > processTempLimitK || t.AvgAirTemp-kelvinOffset > airTempLimitC
	t.VibrationAnomaly = t.AvgTorque > torqueLimitNm
	t.ToolWearHigh = t.AvgToolWear > toolWearLimitMin
	return t
}

// AnyAnomaly reports whether at least one flag is raised.
func (t SensorTrends) AnyAnomaly() bool {
	return t.TemperatureAnomaly || t.VibrationAnomaly || t.ToolWearHigh
}
