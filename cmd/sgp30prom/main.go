// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sgp30prom polls an SGP30 sensor over I²C and exposes its readings as
// Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/airsense/devices/sgp30"
)

// CLI args
var (
	listenAddr  = flag.String("listen-address", ":9330", "The address to listen on for HTTP requests.")
	busName     = flag.String("bus", "", "I²C bus name, empty selects the first available bus")
	absHumidity = flag.Float64("abs-humidity", 0, "absolute humidity in g/m3 for on-chip compensation, 0 keeps the device default")
	rawEvery    = flag.Int("raw-every", 30, "read the raw H2/Ethanol signals every N measurements, 0 disables")
)

// metrics to expose to Prometheus
var (
	gaugeECO2    = newGauge("air_eco2_ppm", "Equivalent CO2 concentration (units: ppm)")
	gaugeTVOC    = newGauge("air_tvoc_ppb", "Total Volatile Organic Compounds concentration (units: ppb)")
	gaugeH2      = newGauge("air_raw_h2_signal", "Raw H2 sensor signal (units: 1/512 ln ticks)")
	gaugeEthanol = newGauge("air_raw_ethanol_signal", "Raw Ethanol sensor signal (units: 1/512 ln ticks)")
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"serial_number"},
	)
}

func init() {
	prometheus.MustRegister(gaugeECO2)
	prometheus.MustRegister(gaugeTVOC)
	prometheus.MustRegister(gaugeH2)
	prometheus.MustRegister(gaugeEthanol)

	// Add Go module build info.
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())

	// logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

func main() {
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatalf("failed to initialize host: %s", err)
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		log.Fatalf("failed to open I²C bus: %s", err)
	}
	defer b.Close()

	dev, err := sgp30.NewI2C(b, sgp30.SensorAddress)
	if err != nil {
		log.Fatal(err)
	}
	serial, err := dev.SerialID()
	if err != nil {
		log.Fatalf("no SGP30 found: %s", err)
	}
	serialNr := fmt.Sprintf("%012x", serial)
	fs, err := dev.FeatureSet()
	if err != nil {
		log.Fatalf("failed to read feature set: %s", err)
	}
	log.Infof("found SGP30: serialNr %s feature set 0x%04x", serialNr, fs)

	if *absHumidity != 0 {
		if err := dev.SetHumidity(*absHumidity); err != nil {
			log.Fatalf("failed to set humidity compensation: %s", err)
		}
		log.Infof("humidity compensation set to %.2f g/m3", *absHumidity)
	}

	log.Info("initialising, this can take up to 20s without a stored baseline")
	if err := dev.Init(nil); err != nil {
		log.Fatalf("failed to initialise sensor: %s", err)
	}

	go func() {
		// Expose the registered metrics via HTTP.
		http.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				// Opt into OpenMetrics to support exemplars.
				EnableOpenMetrics: true,
			},
		))
		log.Panic(http.ListenAndServe(*listenAddr, nil))
	}()

	// The dynamic baseline compensation algorithm expects one measurement
	// per second, so the read interval is not configurable.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	reads := 0
	for range ticker.C {
		m, err := dev.Measure()
		if err != nil {
			log.Errorf("failed to read from sensor (serialNr %s): %s", serialNr, err)
			continue
		}
		log.Debugf("received: %s", m)
		gaugeECO2.WithLabelValues(serialNr).Set(float64(m.ECO2))
		gaugeTVOC.WithLabelValues(serialNr).Set(float64(m.TVOC))

		reads++
		if *rawEvery > 0 && reads%*rawEvery == 0 {
			h2, ethanol, err := dev.RawSignals()
			if err != nil {
				log.Errorf("failed to read raw signals (serialNr %s): %s", serialNr, err)
				continue
			}
			gaugeH2.WithLabelValues(serialNr).Set(float64(h2))
			gaugeEthanol.WithLabelValues(serialNr).Set(float64(ethanol))
		}
	}
}
