package thresholds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Limit is a threshold value together with the literal it was configured
// as. Alert lines print the literal, so a limit written as 1.0 reads
// "threshold(1.0%)" and 500 reads "threshold(500MB)".
type Limit struct {
	Value float64
	Text  string
}

// NewLimit returns a Limit for v with no configured literal.
func NewLimit(v float64) Limit {
	return Limit{Value: v}
}

// ParseLimit parses s as a decimal number and keeps s as the literal.
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Limit{}, fmt.Errorf("limit %q is not a number", s)
	}
	return Limit{Value: v, Text: s}, nil
}

// String returns the configured literal, or the shortest decimal for v when
// there is none.
func (l Limit) String() string {
	if l.Text != "" {
		return l.Text
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64)
}

// MarshalJSON writes the literal when it is a valid JSON number.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Text != "" {
		var n json.Number
		if err := json.Unmarshal([]byte(l.Text), &n); err == nil && !strings.HasPrefix(l.Text, `"`) {
			return []byte(l.Text), nil
		}
	}
	return []byte(strconv.FormatFloat(l.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a bare JSON number and keeps its literal.
func (l *Limit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return fmt.Errorf("limit must be a number, got string %s", data)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("limit must be a number: %w", err)
	}
	parsed, err := ParseLimit(n.String())
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalYAML accepts an int or float scalar and keeps its literal.
func (l *Limit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: limit must be a number", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
	default:
		return fmt.Errorf("line %d: limit must be a number, got %q", node.Line, node.Value)
	}
	parsed, err := ParseLimit(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = parsed
	return nil
}
