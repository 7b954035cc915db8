// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// mpu9250Source samples an MPU9250 over SPI. Only the 6 motion axes are used.
type mpu9250Source struct {
	imu   *mpu9250.MPU9250
	start time.Time
}

// OpenMPU9250 initializes an MPU9250 on the configured SPI device. Bring-up
// is retried until IMU_INIT_TIMEOUT like the I2C variant.
func OpenMPU9250(cfg *config.Config) (imu.Sampler, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	timeout := time.Duration(cfg.IMUInitTimeout) * time.Millisecond
	interval := time.Duration(cfg.IMUInitRetryInterval) * time.Millisecond
	if err := waitForAck(dev.Init, timeout, interval); err != nil {
		return nil, err
	}

	if err := dev.Calibrate(); err != nil {
		log.Printf("sensor: MPU9250 calibration failed, using factory offsets: %v", err)
	} else {
		log.Printf("sensor: MPU9250 calibration complete")
	}

	return &mpu9250Source{imu: dev, start: time.Now()}, nil
}

// Poll reads accelerometer and gyroscope axes one register pair at a time.
func (s *mpu9250Source) Poll() (imu.Sample, error) {
	var out imu.Sample
	reads := []struct {
		name string
		fn   func() (int16, error)
		dst  *int16
	}{
		{"accel X", s.imu.GetAccelerationX, &out.Ax},
		{"accel Y", s.imu.GetAccelerationY, &out.Ay},
		{"accel Z", s.imu.GetAccelerationZ, &out.Az},
		{"gyro X", s.imu.GetRotationX, &out.Gx},
		{"gyro Y", s.imu.GetRotationY, &out.Gy},
		{"gyro Z", s.imu.GetRotationZ, &out.Gz},
	}

	for _, r := range reads {
		v, err := r.fn()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%w: MPU9250 %s: %v", imu.ErrSensorUnavailable, r.name, err)
		}
		*r.dst = v
	}
	out.TimestampMS = time.Since(s.start).Milliseconds()
	return out, nil
}
