package system

import (
	"context"
	"fmt"
)

// SnapshotReader produces a complete Snapshot.
type SnapshotReader interface {
	ReadSystem(ctx context.Context) (Snapshot, error)
}

// Compile-time interface check.
var _ SnapshotReader = (*SystemReader)(nil)

// SystemReader runs one MetricReader per metric and assembles the results.
type SystemReader struct {
	readers []MetricReader
}

// NewSystemReader returns a SystemReader wired with the four command readers,
// all executed through runner.
func NewSystemReader(runner Runner, cmds Commands) *SystemReader {
	return NewSystemReaderFrom(
		NewCPUReader(runner, cmds.CPU),
		NewRAMReader(runner, cmds.RAM),
		NewTempReader(runner, cmds.Temp),
		NewDiskReader(runner, cmds.Disk),
	)
}

// NewSystemReaderFrom returns a SystemReader over an explicit reader set.
// Readers are invoked in the order given.
func NewSystemReaderFrom(readers ...MetricReader) *SystemReader {
	return &SystemReader{readers: readers}
}

// ReadSystem invokes every reader exactly once and returns the combined
// Snapshot. The first failing reader aborts the read and its error is
// returned; no partial snapshot is ever produced. A reader set that leaves a
// metric unread is an error as well.
func (s *SystemReader) ReadSystem(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	seen := make(map[Metric]bool, len(Metrics))

	for _, r := range s.readers {
		v, err := r.Read(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		if err := snap.set(r.Metric(), v); err != nil {
			return Snapshot{}, err
		}
		seen[r.Metric()] = true
	}

	for _, m := range Metrics {
		if !seen[m] {
			return Snapshot{}, fmt.Errorf("read system: no reader produced %s", m)
		}
	}
	return snap, nil
}

// set stores v under metric m, checking that the value variant matches.
func (s *Snapshot) set(m Metric, v Value) error {
	switch m {
	case CPU, TEMP:
		sc, ok := v.(Scalar)
		if !ok {
			return fmt.Errorf("read system: %s reader returned %T, want Scalar", m, v)
		}
		if m == CPU {
			s.CPU = sc
		} else {
			s.Temp = sc
		}
	case RAM, DISK:
		u, ok := v.(Usage)
		if !ok {
			return fmt.Errorf("read system: %s reader returned %T, want Usage", m, v)
		}
		if m == RAM {
			s.RAM = u
		} else {
			s.Disk = u
		}
	default:
		return fmt.Errorf("read system: unknown metric %q", m)
	}
	return nil
}
