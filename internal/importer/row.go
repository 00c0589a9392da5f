package importer

import (
	"strings"

	"github.com/spf13/cast"
)

// Str returns the trimmed cell, or "" when the heading is absent.
func (r Row) Str(heading string) string {
	return strings.TrimSpace(r[heading])
}

// Float casts the cell, falling back to def when blank or not numeric.
func (r Row) Float(heading string, def float64) float64 {
	v := r.Str(heading)
	if v == "" {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// FloatPtr is Float without a default: blank cells become nil.
func (r Row) FloatPtr(heading string) *float64 {
	v := r.Str(heading)
	if v == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}
	return &f
}

func (r Row) Int(heading string, def int) int {
	v := r.Str(heading)
	if v == "" {
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return i
}

func (r Row) Bool(heading string, def bool) bool {
	v := strings.ToLower(r.Str(heading))
	switch v {
	case "":
		return def
	case "yes", "y", "active":
		return true
	case "no", "n", "inactive":
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func (r Row) values() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
