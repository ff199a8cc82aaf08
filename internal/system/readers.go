package system

import (
	"context"
	"fmt"
)

// Compile-time interface checks.
var (
	_ MetricReader = (*CPUReader)(nil)
	_ MetricReader = (*RAMReader)(nil)
	_ MetricReader = (*TempReader)(nil)
	_ MetricReader = (*DiskReader)(nil)
)

// command pairs an argument vector with the runner that executes it.
type command struct {
	argv   []string
	runner Runner
}

func newCommand(runner Runner, argv []string) command {
	if runner == nil {
		panic("system: runner must not be nil")
	}
	return command{argv: append([]string(nil), argv...), runner: runner}
}

func (c command) run(ctx context.Context) ([]byte, error) {
	return c.runner.Run(ctx, c.argv)
}

// CPUReader reports the 15-minute load average.
type CPUReader struct{ cmd command }

// NewCPUReader returns a CPUReader running argv through runner.
func NewCPUReader(runner Runner, argv []string) *CPUReader {
	return &CPUReader{cmd: newCommand(runner, argv)}
}

// Metric returns CPU.
func (r *CPUReader) Metric() Metric { return CPU }

// Read runs the load-average command.
func (r *CPUReader) Read(ctx context.Context) (Value, error) {
	out, err := r.cmd.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CPU, err)
	}
	return ParseLoadAverage(out)
}

// RAMReader reports memory usage in MB.
type RAMReader struct{ cmd command }

// NewRAMReader returns a RAMReader running argv through runner.
func NewRAMReader(runner Runner, argv []string) *RAMReader {
	return &RAMReader{cmd: newCommand(runner, argv)}
}

// Metric returns RAM.
func (r *RAMReader) Metric() Metric { return RAM }

// Read runs the memory summary command.
func (r *RAMReader) Read(ctx context.Context) (Value, error) {
	out, err := r.cmd.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", RAM, err)
	}
	return ParseFree(out)
}

// TempReader reports the SoC temperature in degrees Celsius.
type TempReader struct{ cmd command }

// NewTempReader returns a TempReader running argv through runner.
func NewTempReader(runner Runner, argv []string) *TempReader {
	return &TempReader{cmd: newCommand(runner, argv)}
}

// Metric returns TEMP.
func (r *TempReader) Metric() Metric { return TEMP }

// Read runs the temperature command.
func (r *TempReader) Read(ctx context.Context) (Value, error) {
	out, err := r.cmd.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", TEMP, err)
	}
	return ParseTemperature(out)
}

// DiskReader reports filesystem usage in GB.
type DiskReader struct{ cmd command }

// NewDiskReader returns a DiskReader running argv through runner.
func NewDiskReader(runner Runner, argv []string) *DiskReader {
	return &DiskReader{cmd: newCommand(runner, argv)}
}

// Metric returns DISK.
func (r *DiskReader) Metric() Metric { return DISK }

// Read runs the disk usage command.
func (r *DiskReader) Read(ctx context.Context) (Value, error) {
	out, err := r.cmd.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DISK, err)
	}
	return ParseDiskFree(out)
}
