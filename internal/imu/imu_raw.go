package imu

import "errors"

// ErrSensorUnavailable is returned when the inertial sensor does not
// acknowledge a bus transaction.
var ErrSensorUnavailable = errors.New("sensor unavailable")

// Sample represents a single raw 6-axis IMU reading.
type Sample struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`

	TimestampMS int64 `json:"ts_ms"` // monotonic
}

// Neutral is the sample used when the sensor cannot be read.
// It lies inside every threshold band.
func Neutral(ts int64) Sample {
	return Sample{TimestampMS: ts}
}

// Sampler reads the latest sample from an inertial sensor. Polling faster
// than the sensor's output data rate returns duplicate samples.
type Sampler interface {
	Poll() (Sample, error)
}
