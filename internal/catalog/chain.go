package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rule resolves one alias of a field. ok is false when the alias is absent
// or has the wrong shape.
type rule[T any] func(raw any) (T, bool)

// chain is an ordered list of aliases; the first one that resolves wins.
type chain[T any] []rule[T]

func (c chain[T]) resolve(raw any) (T, bool) {
	for _, r := range c {
		if v, ok := r(raw); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (c chain[T]) or(raw any, def T) T {
	if v, ok := c.resolve(raw); ok {
		return v
	}
	return def
}

func (c chain[T]) ptr(raw any) *T {
	if v, ok := c.resolve(raw); ok {
		return &v
	}
	return nil
}

// lookup walks a path of object keys. JSON null counts as absent.
func lookup(raw any, path ...string) (any, bool) {
	cur := raw
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// number matches a finite JSON number.
func number(path ...string) rule[float64] {
	return func(raw any) (float64, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return 0, false
		}
		return toFloat(v)
	}
}

// integer matches a finite, integral JSON number.
func integer(path ...string) rule[int] {
	return func(raw any) (int, bool) {
		f, ok := number(path...)(raw)
		if !ok {
			return 0, false
		}
		return toInt(f)
	}
}

// numericString matches a string holding an integral number, e.g. "2".
func numericString(path ...string) rule[int] {
	return func(raw any) (int, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return 0, false
		}
		s, ok := v.(string)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return toInt(f)
	}
}

// minutes matches a number of minutes, rounded to the nearest minute.
func minutes(path ...string) rule[int] {
	return func(raw any) (int, bool) {
		f, ok := number(path...)(raw)
		if !ok {
			return 0, false
		}
		return toInt(math.Round(f))
	}
}

// seconds matches a number of seconds and converts it to rounded minutes.
func seconds(path ...string) rule[int] {
	return func(raw any) (int, bool) {
		f, ok := number(path...)(raw)
		if !ok {
			return 0, false
		}
		return toInt(math.Round(f / 60))
	}
}

// text matches a non-empty string.
func text(path ...string) rule[string] {
	return func(raw any) (string, bool) {
		v, ok := lookup(raw, path...)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return "", false
		}
		return s, true
	}
}

// identifier matches a non-empty string or a number rendered in decimal.
func identifier(path ...string) rule[string] {
	return func(raw any) (string, bool) {
		if s, ok := text(path...)(raw); ok {
			return s, true
		}
		if f, ok := number(path...)(raw); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return "", false
	}
}

// structuredDate matches a {year, month, day} object. All three parts are
// required.
func structuredDate(path ...string) rule[string] {
	return func(raw any) (string, bool) {
		obj, ok := lookup(raw, path...)
		if !ok {
			return "", false
		}
		y, yok := integer("year")(obj)
		m, mok := integer("month")(obj)
		d, dok := integer("day")(obj)
		if !yok || !mok || !dok || y == 0 || m == 0 || d == 0 {
			return "", false
		}
		return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
	}
}

// names collects the non-empty display names of a list of person objects.
func names(raw any, key string) []string {
	v, ok := lookup(raw, key)
	if !ok {
		return []string{}
	}
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		if s, ok := (chain[string]{text("displayName"), text("name")}).resolve(p); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// stringList collects the non-empty strings of a list field.
func stringList(raw any, key string) []string {
	v, ok := lookup(raw, key)
	if !ok {
		return []string{}
	}
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
