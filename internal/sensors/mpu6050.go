// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// MPU6050 register map (subset).
const (
	regSampleRateDiv = 0x19
	regConfig        = 0x1A
	regGyroConfig    = 0x1B
	regAccelConfig   = 0x1C
	regAccelXOutH    = 0x3B
	regPwrMgmt1      = 0x6B
	regWhoAmI        = 0x75

	motionBlockLen = 14 // accel(6) + temp(2) + gyro(6)
)

// WHO_AM_I values reported by MPU6050 parts and common clones.
var knownWhoAmI = map[byte]bool{0x68: true, 0x70: true, 0x72: true, 0x98: true}

// registerConn is the half-duplex write-then-read transaction a bus device offers.
// *i2c.Dev satisfies it.
type registerConn interface {
	Tx(w, r []byte) error
}

// MPU6050 samples a 6-axis MPU6050 over I2C.
type MPU6050 struct {
	dev    registerConn
	closer io.Closer
	start  time.Time
	buf    [motionBlockLen]byte
}

// OpenMPU6050 opens the configured I2C bus and brings the sensor up.
// It returns an error wrapping imu.ErrSensorUnavailable when the sensor does
// not acknowledge within IMU_INIT_TIMEOUT.
func OpenMPU6050(cfg *config.Config) (*MPU6050, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.IMUI2CBus)
	if err != nil {
		return nil, fmt.Errorf("IMU: I2C open %q: %w", cfg.IMUI2CBus, err)
	}
	if err := bus.SetSpeed(400 * physic.KiloHertz); err != nil {
		log.Printf("sensor: cannot set I2C speed, keeping bus default: %v", err)
	}

	s := NewMPU6050(&i2c.Dev{Addr: cfg.IMUI2CAddr, Bus: bus})
	s.closer = bus

	timeout := time.Duration(cfg.IMUInitTimeout) * time.Millisecond
	interval := time.Duration(cfg.IMUInitRetryInterval) * time.Millisecond
	if err := s.Init(timeout, interval); err != nil {
		bus.Close()
		return nil, err
	}
	log.Printf("sensor: MPU6050 ready at 0x%02X", cfg.IMUI2CAddr)
	return s, nil
}

// NewMPU6050 wraps an already opened register connection. Call Init before Poll.
func NewMPU6050(dev registerConn) *MPU6050 {
	return &MPU6050{dev: dev, start: time.Now()}
}

// Init waits for WHO_AM_I to answer, then wakes the part with ±2g / ±250°/s
// ranges and the X gyro PLL as clock source.
func (s *MPU6050) Init(timeout, retryInterval time.Duration) error {
	err := waitForAck(func() error {
		id, err := s.readRegisters(regWhoAmI, 1)
		if err != nil {
			return err
		}
		if !knownWhoAmI[id[0]] {
			return fmt.Errorf("unexpected WHO_AM_I 0x%02X", id[0])
		}
		return nil
	}, timeout, retryInterval)
	if err != nil {
		return err
	}

	init := []struct{ reg, val byte }{
		{regPwrMgmt1, 0x01},
		{regSampleRateDiv, 0x00},
		{regConfig, 0x00},
		{regGyroConfig, 0x00},
		{regAccelConfig, 0x00},
	}
	for _, w := range init {
		if err := s.writeRegister(w.reg, w.val); err != nil {
			return fmt.Errorf("%w: write 0x%02X: %v", imu.ErrSensorUnavailable, w.reg, err)
		}
	}
	return nil
}

// Poll reads accelerometer and gyroscope in one burst transaction.
func (s *MPU6050) Poll() (imu.Sample, error) {
	raw, err := s.readRegisters(regAccelXOutH, motionBlockLen)
	if err != nil {
		return imu.Sample{}, fmt.Errorf("%w: %v", imu.ErrSensorUnavailable, err)
	}
	be := binary.BigEndian
	return imu.Sample{
		Ax:          int16(be.Uint16(raw[0:2])),
		Ay:          int16(be.Uint16(raw[2:4])),
		Az:          int16(be.Uint16(raw[4:6])),
		Gx:          int16(be.Uint16(raw[8:10])),
		Gy:          int16(be.Uint16(raw[10:12])),
		Gz:          int16(be.Uint16(raw[12:14])),
		TimestampMS: time.Since(s.start).Milliseconds(),
	}, nil
}

// Close releases the bus when it was opened by OpenMPU6050.
func (s *MPU6050) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *MPU6050) readRegisters(reg byte, count int) ([]byte, error) {
	r := s.buf[:count]
	if err := s.dev.Tx([]byte{reg}, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *MPU6050) writeRegister(reg, val byte) error {
	return s.dev.Tx([]byte{reg, val}, nil)
}

// waitForAck calls probe until it succeeds or timeout elapses.
func waitForAck(probe func() error, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	attempts := 0
	for {
		attempts++
		err := probe()
		if err == nil {
			return nil
		}
		if !time.Now().Add(interval).Before(deadline) {
			return fmt.Errorf("%w: no ack after %d attempts in %s: %v", imu.ErrSensorUnavailable, attempts, timeout, err)
		}
		time.Sleep(interval)
	}
}
