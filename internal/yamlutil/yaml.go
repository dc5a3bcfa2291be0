// Package yamlutil wraps YAML parsing to isolate the external dependency.
// This allows swapping the underlying YAML library without modifying callers.
package yamlutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func Unmarshal(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

func Marshal(v any) ([]byte, error) {
	result, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return result, nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// timestampPattern matches the YAML 1.1 timestamp forms.
var timestampPattern = regexp.MustCompile(
	`^\d{4}-\d{1,2}-\d{1,2}(?:(?:[Tt]|[ \t]+)\d{1,2}:\d{2}:\d{2}(?:\.\d+)?(?:[ \t]*(?:Z|[-+]\d{1,2}(?::?\d{2})?))?)?$`)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999 -07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
}

// UnmarshalMap decodes a YAML mapping into a string-keyed map.
// Plain (unquoted) scalars in timestamp form become time.Time; quoted
// strings stay strings. Nested mappings and sequences are decoded the same
// way. Empty input yields an empty map.
func UnmarshalMap(data []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(data) == 0 {
		return out, nil
	}
	if err := Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return map[string]any{}, nil
	}

	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	if len(file.Docs) > 0 && file.Docs[0] != nil {
		normalizeValue(out, file.Docs[0].Body)
	}
	return out, nil
}

// normalizeValue walks the decoded value alongside its syntax node and
// returns v with plain timestamp scalars replaced by time.Time.
func normalizeValue(v any, node ast.Node) any {
	node = unwrapNode(node)
	switch val := v.(type) {
	case string:
		if isPlainScalar(node) {
			if t, ok := ParseTimestamp(val); ok {
				return t
			}
		}
	case map[string]any:
		for _, mv := range mappingValues(node) {
			if mv == nil || mv.Key == nil || mv.Key.GetToken() == nil {
				continue
			}
			key := mv.Key.GetToken().Value
			if inner, ok := val[key]; ok {
				val[key] = normalizeValue(inner, mv.Value)
			}
		}
	case []any:
		seq, ok := node.(*ast.SequenceNode)
		if !ok || len(seq.Values) != len(val) {
			return v
		}
		for i, inner := range val {
			val[i] = normalizeValue(inner, seq.Values[i])
		}
	}
	return v
}

func unwrapNode(node ast.Node) ast.Node {
	for {
		switch n := node.(type) {
		case *ast.TagNode:
			node = n.Value
		case *ast.AnchorNode:
			node = n.Value
		default:
			return node
		}
	}
}

func mappingValues(node ast.Node) []*ast.MappingValueNode {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}
	}
	return nil
}

func isPlainScalar(node ast.Node) bool {
	s, ok := node.(*ast.StringNode)
	return ok && s.Token != nil && s.Token.Type == token.StringType
}

// MarshalMap encodes m like Marshal, double-quoting strings that would
// otherwise read back as timestamps.
func MarshalMap(m map[string]any) ([]byte, error) {
	quoted, _ := quoteTimestamps(m).(map[string]any)
	return Marshal(quoted)
}

// quotedString marshals as a double-quoted YAML scalar.
type quotedString string

func (q quotedString) MarshalYAML() ([]byte, error) {
	return []byte(strconv.Quote(string(q))), nil
}

// quoteTimestamps returns a copy of v; the input is not modified.
func quoteTimestamps(v any) any {
	switch val := v.(type) {
	case string:
		if _, ok := ParseTimestamp(val); ok {
			return quotedString(val)
		}
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = quoteTimestamps(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = quoteTimestamps(inner)
		}
		return out
	}
	return v
}

// ParseTimestamp parses s as a YAML timestamp.
func ParseTimestamp(s string) (time.Time, bool) {
	if !timestampPattern.MatchString(s) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Position locates a parse error in the YAML source. Line and Column are
// 1-based; zero means unknown.
type Position struct {
	Line    int
	Column  int
	Message string
}

// positionPrefix matches the "[line:column] message" form of error strings.
var positionPrefix = regexp.MustCompile(`\[(\d+):(\d+)\]\s*(.*)`)

// ErrorPosition extracts the source position carried by a YAML error.
func ErrorPosition(err error) (Position, bool) {
	if err == nil {
		return Position{}, false
	}

	var yerr yaml.Error
	if errors.As(err, &yerr) {
		pos := Position{Message: yerr.GetMessage()}
		if tk := yerr.GetToken(); tk != nil && tk.Position != nil {
			pos.Line = tk.Position.Line
			pos.Column = tk.Position.Column
			return pos, true
		}
	}

	m := positionPrefix.FindStringSubmatch(err.Error())
	if m == nil {
		return Position{Message: err.Error()}, false
	}
	line, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	return Position{Line: line, Column: col, Message: firstLine(m[3])}, true
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
