package param

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// encodeParameter evaluates every closure of p and encodes the result per p.Options
func encodeParameter(p *Parameter) (string, error) {
	raw := make([]string, 0, len(p.Values))
	for _, value := range p.Values {
		s, err := evaluate(value)
		if err != nil {
			return "", err
		}
		raw = append(raw, s)
	}

	opts := p.Options
	switch opts.Type {
	case TypeJSON:
		merged, err := mergeJSON(raw)
		if err != nil {
			return "", err
		}
		return escape(merged, opts.Encode), nil

	case TypeArray, TypeCommaSeparatedArray:
		var parts []string
		for _, s := range raw {
			elems, err := arrayElements(s, opts.Type)
			if err != nil {
				return "", err
			}
			for _, e := range elems {
				parts = append(parts, escape(e, opts.Encode))
			}
		}
		return strings.Join(parts, opts.separator()), nil

	default:
		parts := make([]string, 0, len(raw))
		for _, s := range raw {
			encoded, err := encodeScalar(opts.Type, s)
			if err != nil {
				return "", err
			}
			parts = append(parts, escape(encoded, opts.Encode))
		}
		return strings.Join(parts, opts.separator()), nil
	}
}

// evaluate runs one closure, turning a panic into ErrValuePanicked
func evaluate(value Closure) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrValuePanicked, r)
		}
	}()
	return value()
}

func encodeScalar(t Type, s string) (string, error) {
	switch t {
	case TypeNumber:
		return formatNumber(s)
	case TypeBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return "", fmt.Errorf("not a boolean: %q", s)
		}
		return strconv.FormatBool(b), nil
	default:
		return s, nil
	}
}

// formatNumber normalizes s to a plain decimal: no grouping, '.' as decimal point, no exponent
func formatNumber(s string) (string, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("not a finite number: %q", s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// arrayElements expands a JSON array value into its elements for TypeArray.
// Anything else is a single element.
func arrayElements(s string, t Type) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if t != TypeArray || !strings.HasPrefix(trimmed, "[") {
		return []string{s}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("invalid array value: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			out = append(out, str)
			continue
		}
		out = append(out, string(item))
	}
	return out, nil
}

// mergeJSON folds several JSON documents into one canonical document.
// Objects are merged recursively (later keys win), arrays are concatenated,
// and a mix of both becomes an array holding every array element and every object.
func mergeJSON(raw []string) (string, error) {
	var merged any
	for i, s := range raw {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("invalid json value: %w", err)
		}
		if i == 0 {
			merged = v
			continue
		}
		merged = mergeValues(merged, v)
	}
	return canonicalJSON(merged)
}

func mergeValues(dst, src any) any {
	switch d := dst.(type) {
	case map[string]any:
		switch s := src.(type) {
		case map[string]any:
			for k, sv := range s {
				if dv, exists := d[k]; exists {
					d[k] = mergeValues(dv, sv)
				} else {
					d[k] = sv
				}
			}
			return d
		case []any:
			return append([]any{d}, s...)
		}
	case []any:
		if s, ok := src.([]any); ok {
			return append(d, s...)
		}
		return append(d, src)
	}
	// scalar on either side: last value wins
	return src
}

func canonicalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func escape(s string, encode bool) string {
	if !encode {
		return s
	}
	return url.QueryEscape(s)
}
