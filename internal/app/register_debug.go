package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/sensors"
)

// RegisterConfigFile is the JSON written by -export.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	IMU       string            `json:"imu"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

func writeRegisterTable(w io.Writer, vals []sensors.RegisterValue) {
	fmt.Fprintf(w, "%-5s %-14s %-3s %-5s %s\n", "ADDR", "NAME", "RW", "VALUE", "DESCRIPTION")
	for _, v := range vals {
		fmt.Fprintf(w, "0x%02X  %-14s %-3s 0x%02X  %s\n", v.Address, v.Name, v.Access, v.Value, v.Description)
	}
}

func registerExport(vals []sensors.RegisterValue, now time.Time) RegisterConfigFile {
	regs := make(map[string]string, len(vals))
	for _, v := range vals {
		regs[fmt.Sprintf("0x%02X", v.Address)] = fmt.Sprintf("0x%02X", v.Value)
	}
	return RegisterConfigFile{
		Version:   1,
		IMU:       "mpu6050",
		Timestamp: now.Format(time.RFC3339),
		Registers: regs,
	}
}

// RunRegisterDebug brings up the MPU6050 and prints its register file.
// A non-empty exportPath also writes it as JSON.
func RunRegisterDebug(exportPath string) error {
	cfg := config.Get()
	if cfg.IMUDriver != "mpu6050" {
		return fmt.Errorf("register dump supports IMU_DRIVER=mpu6050, got %q", cfg.IMUDriver)
	}

	s, err := sensors.OpenMPU6050(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	vals, err := s.DumpRegisters()
	writeRegisterTable(os.Stdout, vals)
	if err != nil {
		return err
	}

	if exportPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(registerExport(vals, time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(exportPath, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	log.Printf("register_debug: exported %d registers to %s", len(vals), exportPath)
	return nil
}
