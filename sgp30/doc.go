// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sgp30 controls a Sensirion SGP30 multi-gas sensor over I²C.
// The sensor reports an equivalent CO₂ concentration in ppm and a total
// volatile organic compounds concentration in ppb, both derived from its raw
// H2 and Ethanol signals by an on-chip baseline compensation algorithm.
//
// After power-up the on-chip algorithm needs up to 20 seconds to produce a
// first real reading; Dev.Init polls the sensor through that warm-up, or
// restores a previously saved Baseline to skip it. For proper operation of
// the compensation algorithm the caller should invoke Dev.Measure once per
// second.
//
// # Datasheet
//
// https://sensirion.com/media/documents/984E0DD5/61644B8B/Sensirion_Gas_Sensors_Datasheet_SGP30.pdf
package sgp30
