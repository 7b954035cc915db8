// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// RegisterInfo describes one MPU6050 register.
type RegisterInfo struct {
	Address     byte   `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Access      string `json:"access"` // "R" or "RW"
}

// RegisterValue is a register read back from the part.
type RegisterValue struct {
	RegisterInfo
	Value byte `json:"value"`
}

// MPU6050Registers lists the registers that matter for gesture input, in
// address order.
var MPU6050Registers = []RegisterInfo{
	{regSampleRateDiv, "SMPLRT_DIV", "Sample Rate = Gyro_Rate / (1 + SMPLRT_DIV)", "RW"},
	{regConfig, "CONFIG", "DLPF_CFG in bits 2:0", "RW"},
	{regGyroConfig, "GYRO_CONFIG", "FS_SEL in bits 4:3 (0=±250°/s)", "RW"},
	{regAccelConfig, "ACCEL_CONFIG", "AFS_SEL in bits 4:3 (0=±2g)", "RW"},
	{0x38, "INT_ENABLE", "Interrupt enable", "RW"},
	{0x3A, "INT_STATUS", "Interrupt status, bit 0 DATA_RDY", "R"},
	{regAccelXOutH, "ACCEL_XOUT_H", "Forward axis, press", "R"},
	{0x3C, "ACCEL_XOUT_L", "", "R"},
	{0x3D, "ACCEL_YOUT_H", "Lateral axis, rotate", "R"},
	{0x3E, "ACCEL_YOUT_L", "", "R"},
	{0x3F, "ACCEL_ZOUT_H", "", "R"},
	{0x40, "ACCEL_ZOUT_L", "", "R"},
	{0x41, "TEMP_OUT_H", "", "R"},
	{0x42, "TEMP_OUT_L", "", "R"},
	{0x43, "GYRO_XOUT_H", "", "R"},
	{0x44, "GYRO_XOUT_L", "", "R"},
	{0x45, "GYRO_YOUT_H", "", "R"},
	{0x46, "GYRO_YOUT_L", "", "R"},
	{0x47, "GYRO_ZOUT_H", "", "R"},
	{0x48, "GYRO_ZOUT_L", "", "R"},
	{regPwrMgmt1, "PWR_MGMT_1", "bit 6 SLEEP, bits 2:0 CLKSEL", "RW"},
	{0x6C, "PWR_MGMT_2", "Standby per axis", "RW"},
	{regWhoAmI, "WHO_AM_I", "Device id, 0x68 on genuine parts", "R"},
}

// DumpRegisters reads every register in MPU6050Registers.
func (s *MPU6050) DumpRegisters() ([]RegisterValue, error) {
	out := make([]RegisterValue, 0, len(MPU6050Registers))
	for _, info := range MPU6050Registers {
		v, err := s.readRegisters(info.Address, 1)
		if err != nil {
			return out, fmt.Errorf("read %s (0x%02X): %w", info.Name, info.Address, err)
		}
		out = append(out, RegisterValue{RegisterInfo: info, Value: v[0]})
	}
	return out, nil
}
