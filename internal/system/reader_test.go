package system

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixture returns the contents of testdata/commands/<name> from the project
// root.
func fixture(t *testing.T, name string) []byte {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", "commands", name))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// fakeRunner answers commands by their first argv element.
type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, argv []string) ([]byte, error) {
	f.calls = append(f.calls, strings.Join(argv, " "))
	if err, ok := f.errs[argv[0]]; ok {
		return nil, err
	}
	if out, ok := f.outputs[argv[0]]; ok {
		return out, nil
	}
	return nil, &monerrors.CommandError{Argv: argv, ExitCode: -1, Err: errors.New("no such fake command")}
}

var _ Runner = (*fakeRunner)(nil)

// fixtureRunner serves the captured Raspberry Pi outputs for the default
// commands.
func fixtureRunner(t *testing.T) *fakeRunner {
	t.Helper()
	return &fakeRunner{
		outputs: map[string][]byte{
			"/bin/cat":      fixture(t, "loadavg.txt"),
			"/usr/bin/free": fixture(t, "free_m.txt"),
			"/usr/bin/awk":  fixture(t, "temp.txt"),
			"/bin/df":       fixture(t, "df_h.txt"),
		},
		errs: map[string]error{},
	}
}

// ---------------------------------------------------------------------------
// Parsers
// ---------------------------------------------------------------------------

func Test_ParseLoadAverage_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Scalar
		wantErr bool
	}{
		{name: "proc loadavg line", input: "0.52 0.58 0.59 1/123 4567\n", want: "0.59"},
		{name: "exactly three fields", input: "1.00 2.00 3.25", want: "3.25"},
		{name: "two fields", input: "0.52 0.58", wantErr: true},
		{name: "empty output", input: "", wantErr: true},
		{name: "non-numeric third field", input: "0.5 0.5 abc 1/2 3", wantErr: true},
		{name: "double space yields an empty field", input: "0.52  0.58 0.59", want: "0.58"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLoadAverage([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, monerrors.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_ParseFree_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Usage
		wantErr bool
	}{
		{
			name:  "header and collapsed data line",
			input: "header\nMem: 1000 400 600 ...",
			want:  Usage{Total: "1000", Used: "400", Free: "600"},
		},
		{
			name:  "padded free -m output",
			input: "              total        used        free\nMem:           3794         412        2871          33\n",
			want:  Usage{Total: "3794", Used: "412", Free: "2871"},
		},
		{name: "header only", input: "              total        used        free\n", wantErr: true},
		{name: "short data line", input: "header\nMem: 1000 400", wantErr: true},
		{name: "non-numeric column", input: "header\nMem: 1000 lots 600", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFree([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, monerrors.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_ParseDiskFree_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Usage
		wantErr bool
	}{
		{
			name:  "strips one trailing unit character",
			input: "Filesystem Size Used Avail Use% Mounted on\n/dev/root 20G 10G 10G 50% /\n",
			want:  Usage{Total: "20", Used: "10", Free: "10"},
		},
		{
			name:  "fractional sizes",
			input: "Filesystem Size Used Avail Use% Mounted on\n/dev/root 1.8T 0.5T 1.3T 28% /\n",
			want:  Usage{Total: "1.8", Used: "0.5", Free: "1.3"},
		},
		{name: "bare zero has no unit to strip", input: "h\ndevtmpfs 1.7G 0 1.7G 0% /dev\n", wantErr: true},
		{name: "missing data line", input: "Filesystem Size Used Avail Use% Mounted on", wantErr: true},
		{name: "short data line", input: "h\n/dev/root 20G\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDiskFree([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, monerrors.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_ParseTemperature_Cases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Scalar
		wantErr bool
	}{
		{name: "formatted celsius", input: "48.3", want: "48.3"},
		{name: "trailing newline trimmed", input: "55.0\n", want: "55.0"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "cat: no such file", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTemperature([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, monerrors.ErrParse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Readers
// ---------------------------------------------------------------------------

func Test_Readers_UseFixtures(t *testing.T) {
	runner := fixtureRunner(t)
	cmds := DefaultCommands()

	tests := []struct {
		name   string
		reader MetricReader
		metric Metric
		want   Value
	}{
		{name: "cpu", reader: NewCPUReader(runner, cmds.CPU), metric: CPU, want: Scalar("0.59")},
		{name: "ram", reader: NewRAMReader(runner, cmds.RAM), metric: RAM, want: Usage{Total: "3794", Used: "412", Free: "2871"}},
		{name: "temp", reader: NewTempReader(runner, cmds.Temp), metric: TEMP, want: Scalar("48.3")},
		{name: "disk", reader: NewDiskReader(runner, cmds.Disk), metric: DISK, want: Usage{Total: "29", Used: "11", Free: "17"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.metric, tt.reader.Metric())
			got, err := tt.reader.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Reader_CommandFailureIsWrapped(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{
		"/usr/bin/free": &monerrors.CommandError{Argv: []string{"/usr/bin/free", "-m"}, ExitCode: 1},
	}}

	_, err := NewRAMReader(runner, DefaultCommands().RAM).Read(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, monerrors.ErrCommandExecution)
	assert.Contains(t, err.Error(), "read RAM")

	var cmdErr *monerrors.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func Test_Readers_PassArgvUnchanged(t *testing.T) {
	runner := fixtureRunner(t)
	_, err := NewTempReader(runner, DefaultCommands().Temp).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, `/usr/bin/awk {printf "%3.1f", $1/1000} /sys/class/thermal/thermal_zone0/temp`, runner.calls[0])
}

func Test_NewReader_NilRunnerPanics(t *testing.T) {
	assert.Panics(t, func() { NewCPUReader(nil, []string{"/bin/cat"}) })
}

// ---------------------------------------------------------------------------
// SystemReader
// ---------------------------------------------------------------------------

func Test_ReadSystem_FixtureSnapshot(t *testing.T) {
	runner := fixtureRunner(t)
	snap, err := NewSystemReader(runner, DefaultCommands()).ReadSystem(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Snapshot{
		CPU:  "0.59",
		RAM:  Usage{Total: "3794", Used: "412", Free: "2871"},
		Temp: "48.3",
		Disk: Usage{Total: "29", Used: "11", Free: "17"},
	}, snap)

	// One invocation per metric, in check order.
	require.Len(t, runner.calls, 4)
	assert.True(t, strings.HasPrefix(runner.calls[0], "/bin/cat"))
	assert.True(t, strings.HasPrefix(runner.calls[1], "/usr/bin/free"))
	assert.True(t, strings.HasPrefix(runner.calls[2], "/usr/bin/awk"))
	assert.True(t, strings.HasPrefix(runner.calls[3], "/bin/df"))
}

func Test_ReadSystem_FailureCases(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *fakeRunner)
		wantIs    error
		wantCalls int
	}{
		{
			name: "cpu command missing aborts before other readers",
			mutate: func(r *fakeRunner) {
				r.errs["/bin/cat"] = &monerrors.CommandError{Argv: []string{"/bin/cat"}, ExitCode: -1, Err: errors.New("not found")}
			},
			wantIs:    monerrors.ErrCommandExecution,
			wantCalls: 1,
		},
		{
			name: "malformed temperature aborts before disk",
			mutate: func(r *fakeRunner) {
				r.outputs["/usr/bin/awk"] = []byte("N/A")
			},
			wantIs:    monerrors.ErrParse,
			wantCalls: 3,
		},
		{
			name: "disk failure discards earlier readings",
			mutate: func(r *fakeRunner) {
				r.outputs["/bin/df"] = []byte("Filesystem Size Used Avail Use% Mounted on\n")
			},
			wantIs:    monerrors.ErrParse,
			wantCalls: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := fixtureRunner(t)
			tt.mutate(runner)

			snap, err := NewSystemReader(runner, DefaultCommands()).ReadSystem(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Equal(t, Snapshot{}, snap)
			assert.Len(t, runner.calls, tt.wantCalls)
		})
	}
}

// stubReader returns a fixed value for a metric.
type stubReader struct {
	metric Metric
	value  Value
}

func (s stubReader) Metric() Metric { return s.metric }
func (s stubReader) Read(context.Context) (Value, error) { return s.value, nil }

func Test_ReadSystem_IncompleteReaderSet(t *testing.T) {
	r := NewSystemReaderFrom(
		stubReader{metric: CPU, value: Scalar("1.0")},
		stubReader{metric: RAM, value: Usage{Total: "1", Used: "1", Free: "0"}},
		stubReader{metric: TEMP, value: Scalar("40.0")},
	)
	_, err := r.ReadSystem(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reader produced DISK")
}

func Test_ReadSystem_WrongVariant(t *testing.T) {
	r := NewSystemReaderFrom(stubReader{metric: RAM, value: Scalar("12")})
	_, err := r.ReadSystem(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want Usage")
}

func Test_DefaultCommands_DistinctInstances(t *testing.T) {
	a := DefaultCommands()
	a.CPU[0] = "/tmp/changed"
	assert.Equal(t, "/bin/cat", DefaultCommands().CPU[0])
}
