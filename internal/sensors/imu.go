package sensors

import (
	"fmt"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
)

// Open returns the sampler selected by IMU_DRIVER.
func Open(cfg *config.Config) (imu.Sampler, error) {
	switch cfg.IMUDriver {
	case "mpu6050":
		s, err := OpenMPU6050(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mpu9250":
		return OpenMPU9250(cfg)
	case "mock":
		return NewMockSampler(cfg.GestureRotateThreshold, cfg.GesturePressThreshold), nil
	default:
		return nil, fmt.Errorf("unknown IMU driver %q", cfg.IMUDriver)
	}
}
