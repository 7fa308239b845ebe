// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import "math"

// AbsoluteHumidity converts a temperature in °C and a relative humidity in
// %RH into an absolute humidity in g/m³, the unit Dev.SetHumidity expects.
// Use it to feed the humidity compensation from a separate
// temperature/humidity sensor.
func AbsoluteHumidity(temperatureC, relativeHumidity float64) float64 {
	return 13.2471 * relativeHumidity * math.Exp(17.67*temperatureC/(243.5+temperatureC)) / (273.15 + temperatureC)
}
