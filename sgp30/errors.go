// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import "fmt"

// ChecksumError is returned when a word read from the sensor does not match
// its CRC byte. It usually points at a systemic bus problem (wiring, noise),
// so the driver does not retry.
type ChecksumError struct {
	// Data holds the two data bytes of the offending block.
	Data [2]byte
	// CRC is the checksum byte received with them.
	CRC byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("sgp30: invalid checksum 0x%02x for data 0x%02x%02x", e.CRC, e.Data[0], e.Data[1])
}

// HumidityRangeError is returned by Dev.SetHumidity for values outside
// 0 to 255 g/m³. It is raised before any bus traffic.
type HumidityRangeError struct {
	Value float64
}

func (e *HumidityRangeError) Error() string {
	return fmt.Sprintf("sgp30: humidity %.2fg/m³ out of range 0 to 255", e.Value)
}
