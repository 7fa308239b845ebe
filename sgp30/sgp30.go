// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/airsense/devices/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	// SensorAddress is the only I²C address the SGP30 responds to.
	SensorAddress uint16 = 0x58

	// Value reported by the measure command until the on-chip baseline
	// compensation algorithm has warmed up.
	defaultECO2 CO2 = 400

	// Maximum number of 1s measure polls Init performs while waiting for
	// the warm-up to complete.
	initPolls = 20
)

// A command is a 16-bit opcode, the number of words the sensor answers with,
// and the time the sensor needs between the command write and the response
// read. Commands with responseWords == 0 are write-only and need no settle
// time.
type command struct {
	opcode        uint16
	responseWords int
	settle        time.Duration
}

var (
	cmdInitAirQuality    = command{opcode: 0x2003}
	cmdMeasureAirQuality = command{opcode: 0x2008, responseWords: 2, settle: 22 * time.Millisecond}
	cmdGetBaseline       = command{opcode: 0x2015, responseWords: 2, settle: 10 * time.Millisecond}
	cmdSetBaseline       = command{opcode: 0x201e}
	cmdMeasureRawSignals = command{opcode: 0x2050, responseWords: 2, settle: 25 * time.Millisecond}
	cmdSetHumidity       = command{opcode: 0x2061}
	cmdGetFeatureSet     = command{opcode: 0x202f, responseWords: 1, settle: 2 * time.Millisecond}
	cmdGetSerialID       = command{opcode: 0x3682, responseWords: 3, settle: time.Millisecond}
)

// CO2 represents an equivalent carbon dioxide concentration in ppm.
type CO2 uint16

func (c CO2) String() string {
	return strconv.Itoa(int(c)) + "ppm"
}

// TVOC represents a total volatile organic compounds concentration in ppb.
type TVOC uint16

func (t TVOC) String() string {
	return strconv.Itoa(int(t)) + "ppb"
}

// Measurement is a single reading from the sensor.
type Measurement struct {
	ECO2 CO2
	TVOC TVOC
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s eCO2, %s TVOC", m.ECO2, m.TVOC)
}

// Baseline holds the state of the on-chip baseline compensation algorithm.
// Saving it off-chip and restoring it with Dev.Init or Dev.SetBaseline after
// a restart skips the up to 20 second warm-up.
type Baseline struct {
	ECO2 uint16
	TVOC uint16
}

// Dev is a handle to an SGP30 sensor.
type Dev struct {
	d    *i2c.Dev
	mu   sync.Mutex
	last *Measurement
}

// NewI2C returns a Dev that communicates with an SGP30 on the provided bus.
// The sensor only supports SensorAddress. No bus traffic is generated; call
// Init to start the measurement engine.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	if addr != SensorAddress {
		return nil, fmt.Errorf("sgp30: invalid address 0x%02x, sensor only supports 0x%02x", addr, SensorAddress)
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}, nil
}

// SerialID returns the 48 bit serial number of the sensor. It can be used to
// verify the presence of the device.
func (d *Dev) SerialID() (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdGetSerialID, nil)
	if err != nil {
		return 0, err
	}
	return uint64(words[0])<<32 | uint64(words[1])<<16 | uint64(words[2]), nil
}

// FeatureSet returns the feature set version word of the sensor. The low 5
// bits hold the product version. As of 2022 the only documented feature set
// is 0x0020.
func (d *Dev) FeatureSet() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdGetFeatureSet, nil)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// Init starts the on-chip measurement engine.
//
// With baseline == nil the compensation algorithm starts from scratch: Init
// polls the sensor once per second, for up to 20 seconds, until it reports an
// equivalent CO₂ other than the 400ppm power-up default. Pass a Baseline
// saved from a previous run to skip the warm-up; the baseline is written
// without a read-back.
func (d *Dev) Init(baseline *Baseline) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.sendCommand(cmdInitAirQuality, nil); err != nil {
		return err
	}
	if baseline != nil {
		return d.setBaseline(*baseline)
	}
	for i := 0; i < initPolls; i++ {
		time.Sleep(time.Second)
		m, err := d.measure()
		if err != nil {
			return err
		}
		if m.ECO2 != defaultECO2 {
			break
		}
	}
	return nil
}

// Measure performs a single measurement.
//
// The caller should invoke Measure in regular intervals of 1s to ensure
// proper operation of the dynamic baseline compensation algorithm; the
// driver does not enforce the cadence.
func (d *Dev) Measure() (Measurement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measure()
}

// LastMeasurement returns the most recent successful measurement, or nil if
// Measure has not succeeded yet.
func (d *Dev) LastMeasurement() *Measurement {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.last == nil {
		return nil
	}
	m := *d.last
	return &m
}

// GetBaseline reads the current state of the baseline compensation
// algorithm.
func (d *Dev) GetBaseline() (Baseline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdGetBaseline, nil)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{ECO2: words[0], TVOC: words[1]}, nil
}

// SetBaseline restores a previously saved baseline.
func (d *Dev) SetBaseline(baseline Baseline) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setBaseline(baseline)
}

// RawSignals reads the raw H2 and Ethanol signals that feed the on-chip
// calibration and compensation algorithms.
func (d *Dev) RawSignals() (h2, ethanol uint16, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	words, err := d.sendCommand(cmdMeasureRawSignals, nil)
	if err != nil {
		return 0, 0, err
	}
	return words[0], words[1], nil
}

// SetHumidity sets the absolute humidity in g/m³ used by the on-chip
// humidity compensation algorithm. Valid values are 0 to 255 inclusive; a
// HumidityRangeError is returned before any bus traffic otherwise. Setting
// exactly 0 resets the compensation to its default of 11.57g/m³.
func (d *Dev) SetHumidity(gramsPerCubicMetre float64) error {
	// Compare in float space: a float→int conversion of a huge or NaN
	// value is implementation-defined and could let the guard pass. The
	// comparison is written so NaN fails it too.
	if !(gramsPerCubicMetre >= 0 && gramsPerCubicMetre < 256) {
		return &HumidityRangeError{Value: gramsPerCubicMetre}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	// The sensor expects the humidity as an 8.8 fixed point value: the high
	// byte in g/m³, the low byte in 1/256 g/m³.
	_, err := d.sendCommand(cmdSetHumidity, []uint16{uint16(gramsPerCubicMetre * 256)})
	return err
}

// Halt implements conn.Resource. The driver runs no background work, so
// there is nothing to stop; the sensor keeps measuring on-chip.
func (d *Dev) Halt() error {
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("sgp30: %s", d.d.String())
}

func (d *Dev) measure() (Measurement, error) {
	words, err := d.sendCommand(cmdMeasureAirQuality, nil)
	if err != nil {
		return Measurement{}, err
	}
	m := Measurement{ECO2: CO2(words[0]), TVOC: TVOC(words[1])}
	d.last = &m
	return m, nil
}

func (d *Dev) setBaseline(baseline Baseline) error {
	// The wire order is TVOC then CO2eq, reversed from the read order. This
	// reversal is specified by the datasheet, not a driver quirk.
	_, err := d.sendCommand(cmdSetBaseline, []uint16{baseline.TVOC, baseline.ECO2})
	return err
}

// sendCommand writes the opcode and any parameter words in a single
// transaction. For commands that answer, it sleeps for the settle time the
// sensor needs to prepare the response and then reads and decodes the
// expected number of words. No retries at this level: checksum and I/O
// failures go straight to the caller.
func (d *Dev) sendCommand(cmd command, params []uint16) ([]uint16, error) {
	w := []byte{byte(cmd.opcode >> 8), byte(cmd.opcode)}
	if len(params) > 0 {
		w = append(w, encodeWords(params)...)
	}
	if err := d.d.Tx(w, nil); err != nil {
		return nil, fmt.Errorf("sgp30: cmd 0x%04x write: %w", cmd.opcode, err)
	}
	if cmd.responseWords == 0 {
		return nil, nil
	}
	time.Sleep(cmd.settle)
	r := make([]byte, cmd.responseWords*3)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("sgp30: cmd 0x%04x read: %w", cmd.opcode, err)
	}
	return decodeWords(r, cmd.responseWords)
}

// encodeWords serializes words big-endian, each followed by its CRC byte.
func encodeWords(words []uint16) []byte {
	b := make([]byte, len(words)*3)
	for i, w := range words {
		b[i*3] = byte(w >> 8)
		b[i*3+1] = byte(w)
		b[i*3+2] = common.CRC8(b[i*3 : i*3+2])
	}
	return b
}

// decodeWords converts a frame of n CRC-protected blocks back into words.
// It fails on the first block whose CRC byte does not match, returning a
// *ChecksumError with the offending bytes.
func decodeWords(b []byte, n int) ([]uint16, error) {
	words := make([]uint16, n)
	for i := range words {
		block := b[i*3 : i*3+3]
		if common.CRC8(block[:2]) != block[2] {
			return nil, &ChecksumError{Data: [2]byte{block[0], block[1]}, CRC: block[2]}
		}
		words[i] = uint16(block[0])<<8 | uint16(block[1])
	}
	return words, nil
}

var _ conn.Resource = &Dev{}
