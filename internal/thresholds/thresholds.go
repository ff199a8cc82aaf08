// Package thresholds compares a system snapshot against configured limits and
// formats one alert line per breached metric.
package thresholds

import (
	"fmt"
	"strconv"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
	"github.com/jamesprial/pi-monitor/internal/system"
)

// Limits holds the alerting threshold for each metric. A reading equal to
// its limit is a breach.
type Limits struct {
	CPU  Limit `json:"cpu" yaml:"cpu"`
	RAM  Limit `json:"ram" yaml:"ram"`
	Temp Limit `json:"temp" yaml:"temp"`
	Disk Limit `json:"disk" yaml:"disk"`
}

// For returns the limit configured for m.
func (l Limits) For(m system.Metric) Limit {
	switch m {
	case system.CPU:
		return l.CPU
	case system.RAM:
		return l.RAM
	case system.TEMP:
		return l.Temp
	case system.DISK:
		return l.Disk
	}
	return Limit{}
}

// Violation is one breached metric and its alert line.
type Violation struct {
	Metric  system.Metric `json:"metric"`
	Message string        `json:"message"`
}

// Messages returns the alert lines of vs in order.
func Messages(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message)
	}
	return out
}

const (
	cpuTemplate  = "CPU average over the last 15 minutes has met the threshold(%s%%): %s%%"
	ramTemplate  = "Current RAM usage is above threshold(%sMB): %sMB / %sMB. Only %sMB free"
	tempTemplate = "Temperature is over threshold(%sC): %sC"
	diskTemplate = "Current disk usage is above threshold(%sGB): %sGB / %sGB. Only %sGB free"
)

// Evaluate checks every metric of snap against limits in the order CPU, RAM,
// TEMP, DISK and returns one Violation per metric whose observed value is
// greater than or equal to its limit. The result is never nil. A reading that
// is not a decimal number yields a ParseError.
func Evaluate(limits Limits, snap system.Snapshot) ([]Violation, error) {
	out := make([]Violation, 0, len(system.Metrics))

	cpu, err := number(system.CPU, string(snap.CPU))
	if err != nil {
		return nil, err
	}
	if cpu >= limits.CPU.Value {
		out = append(out, Violation{
			Metric:  system.CPU,
			Message: fmt.Sprintf(cpuTemplate, limits.CPU, snap.CPU),
		})
	}

	ramUsed, err := number(system.RAM, snap.RAM.Used)
	if err != nil {
		return nil, err
	}
	if ramUsed >= limits.RAM.Value {
		out = append(out, Violation{
			Metric:  system.RAM,
			Message: fmt.Sprintf(ramTemplate, limits.RAM, snap.RAM.Used, snap.RAM.Total, snap.RAM.Free),
		})
	}

	temp, err := number(system.TEMP, string(snap.Temp))
	if err != nil {
		return nil, err
	}
	if temp >= limits.Temp.Value {
		out = append(out, Violation{
			Metric:  system.TEMP,
			Message: fmt.Sprintf(tempTemplate, limits.Temp, snap.Temp),
		})
	}

	diskUsed, err := number(system.DISK, snap.Disk.Used)
	if err != nil {
		return nil, err
	}
	if diskUsed >= limits.Disk.Value {
		out = append(out, Violation{
			Metric:  system.DISK,
			Message: fmt.Sprintf(diskTemplate, limits.Disk, snap.Disk.Used, snap.Disk.Total, snap.Disk.Free),
		})
	}

	return out, nil
}

func number(m system.Metric, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &monerrors.ParseError{Metric: string(m), Reason: "observed value is not a number", Output: s}
	}
	return f, nil
}
