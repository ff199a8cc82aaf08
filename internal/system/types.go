// Package system reads the host metrics the monitor evaluates. Each metric is
// produced by one external command whose output is parsed into a Value.
package system

import (
	"context"
	"strconv"
)

// Metric names one of the four observed measurements.
type Metric string

const (
	CPU  Metric = "CPU"
	RAM  Metric = "RAM"
	TEMP Metric = "TEMP"
	DISK Metric = "DISK"
)

// Metrics lists every metric in check order. Readers run and violations are
// reported in this order.
var Metrics = []Metric{CPU, RAM, TEMP, DISK}

// Value is the parsed output of a MetricReader. It is either a Scalar or a
// Usage; no other implementations exist.
type Value interface {
	metricValue()
}

// Scalar is a single decimal reading kept exactly as the command printed it
// (e.g. "0.59" for a load average, "48.3" for degrees Celsius).
type Scalar string

func (Scalar) metricValue() {}

// Float parses s as a float64.
func (s Scalar) Float() (float64, error) {
	return strconv.ParseFloat(string(s), 64)
}

// Usage is a total/used/free triple with unit suffixes removed. RAM figures
// are in MB and disk figures in GB.
type Usage struct {
	Total string `json:"total"`
	Used  string `json:"used"`
	Free  string `json:"free"`
}

func (Usage) metricValue() {}

// Snapshot holds one reading of every metric for a single cycle.
type Snapshot struct {
	CPU  Scalar `json:"CPU"`
	RAM  Usage  `json:"RAM"`
	Temp Scalar `json:"TEMP"`
	Disk Usage  `json:"DISK"`
}

// MetricReader runs one external command and parses its output.
type MetricReader interface {
	// Metric reports which metric this reader produces.
	Metric() Metric

	// Read executes the command and returns the parsed value. It fails with
	// a CommandError when the command cannot run or exits non-zero and with
	// a ParseError when the output has the wrong shape.
	Read(ctx context.Context) (Value, error)
}

// Runner executes an argument vector and returns its standard output.
type Runner interface {
	Run(ctx context.Context, argv []string) ([]byte, error)
}

// Commands holds the argument vector used for each metric.
type Commands struct {
	CPU  []string
	RAM  []string
	Temp []string
	Disk []string
}

// DefaultCommands returns the commands used on a stock Raspberry Pi OS
// install. Each call returns a distinct instance.
func DefaultCommands() Commands {
	return Commands{
		CPU:  []string{"/bin/cat", "/proc/loadavg"},
		RAM:  []string{"/usr/bin/free", "-m"},
		Temp: []string{"/usr/bin/awk", `{printf "%3.1f", $1/1000}`, "/sys/class/thermal/thermal_zone0/temp"},
		Disk: []string{"/bin/df", "-h"},
	}
}
