package system

import (
	"strconv"
	"strings"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
)

// ParseLoadAverage extracts the 15-minute load average from /proc/loadavg
// style output ("0.52 0.58 0.59 1/123 4567").
//
// The output is split on single spaces and the third field is returned.
func ParseLoadAverage(out []byte) (Scalar, error) {
	raw := string(out)
	fields := strings.Split(raw, " ")
	if len(fields) < 3 {
		return "", &monerrors.ParseError{Metric: string(CPU), Reason: "expected at least 3 load average fields", Output: raw}
	}
	load := Scalar(strings.TrimSpace(fields[2]))
	if _, err := load.Float(); err != nil {
		return "", &monerrors.ParseError{Metric: string(CPU), Reason: "15-minute load average is not a number", Output: raw}
	}
	return load, nil
}

// ParseFree reads `free -m` output. The second line carries the memory
// figures: label, total, used, free, ...
//
//	              total        used        free      shared  buff/cache   available
//	Mem:           3794         412        2871          33         510        3242
func ParseFree(out []byte) (Usage, error) {
	fields, err := dataLine(RAM, out)
	if err != nil {
		return Usage{}, err
	}
	u := Usage{Total: fields[1], Used: fields[2], Free: fields[3]}
	if err := checkNumeric(RAM, u, string(out)); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// ParseDiskFree reads `df -h` output. The second line describes the first
// filesystem; size, used and available have exactly one trailing unit
// character removed ("29G" becomes "29"). No other unit handling is done.
//
//	Filesystem      Size  Used Avail Use% Mounted on
//	/dev/root        29G   11G   17G  40% /
func ParseDiskFree(out []byte) (Usage, error) {
	fields, err := dataLine(DISK, out)
	if err != nil {
		return Usage{}, err
	}
	var stripped [3]string
	for i, f := range fields[1:4] {
		if len(f) < 2 {
			return Usage{}, &monerrors.ParseError{Metric: string(DISK), Reason: "size field " + strconv.Quote(f) + " too short to carry a unit", Output: string(out)}
		}
		stripped[i] = f[:len(f)-1]
	}
	u := Usage{Total: stripped[0], Used: stripped[1], Free: stripped[2]}
	if err := checkNumeric(DISK, u, string(out)); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// ParseTemperature returns the command output as the temperature reading. The
// command is expected to print degrees Celsius already; only surrounding
// whitespace is removed.
func ParseTemperature(out []byte) (Scalar, error) {
	temp := Scalar(strings.TrimSpace(string(out)))
	if temp == "" {
		return "", &monerrors.ParseError{Metric: string(TEMP), Reason: "empty output"}
	}
	if _, err := temp.Float(); err != nil {
		return "", &monerrors.ParseError{Metric: string(TEMP), Reason: "temperature is not a number", Output: string(out)}
	}
	return temp, nil
}

// dataLine returns the whitespace-separated fields of the second output line,
// requiring at least a label plus three columns.
func dataLine(metric Metric, out []byte) ([]string, error) {
	raw := string(out)
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return nil, &monerrors.ParseError{Metric: string(metric), Reason: "expected a header line and a data line", Output: raw}
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 4 {
		return nil, &monerrors.ParseError{Metric: string(metric), Reason: "data line has fewer than 4 columns", Output: raw}
	}
	return fields, nil
}

func checkNumeric(metric Metric, u Usage, raw string) error {
	for _, f := range []struct{ name, val string }{{"total", u.Total}, {"used", u.Used}, {"free", u.Free}} {
		if _, err := strconv.ParseFloat(f.val, 64); err != nil {
			return &monerrors.ParseError{Metric: string(metric), Reason: f.name + " " + strconv.Quote(f.val) + " is not a number", Output: raw}
		}
	}
	return nil
}
