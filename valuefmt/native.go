package valuefmt

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
	"github.com/robert-malhotra/h5dict/codec"
)

// Native converts v to plain Go values: nil, bool, int64, float64, string,
// []any and map[string]any. Arrays become nested []any following their
// shape, and Uncertain becomes its two-key map.
func Native(v codec.Value) any {
	return native(v, false)
}

// native with safe set replaces non-finite floats by their names, which
// JSON cannot hold.
func native(v codec.Value, safe bool) any {
	switch v := v.(type) {
	case codec.Null:
		return nil
	case codec.Bool:
		return bool(v)
	case codec.Int:
		return int64(v)
	case codec.Float:
		return nativeFloat(float64(v), safe)
	case codec.String:
		return string(v)
	case *codec.Array:
		return nativeArray(v, safe)
	case codec.List:
		return nativeSeq(v, safe)
	case codec.Tuple:
		return nativeSeq(v, safe)
	case codec.Map:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k.String()] = native(x, safe)
		}
		return m
	case codec.Uncertain:
		return map[string]any{
			codec.NominalKey: nativeFloat(v.Nominal, safe),
			codec.StdDevKey:  nativeFloat(v.StdDev, safe),
		}
	case codec.Opaque:
		return fmt.Sprint(v.V)
	}
	return nil
}

func nativeFloat(f float64, safe bool) any {
	if safe && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fmt.Sprint(f)
	}
	return f
}

func nativeSeq(seq []codec.Value, safe bool) []any {
	out := make([]any, len(seq))
	for i, v := range seq {
		out[i] = native(v, safe)
	}
	return out
}

func nativeArray(a *codec.Array, safe bool) []any {
	rows := a.Rows()
	out := make([]any, len(rows))
	for i, r := range rows {
		if sub, ok := r.(*codec.Array); ok {
			out[i] = nativeArray(sub, safe)
		} else {
			out[i] = native(r, safe)
		}
	}
	return out
}

// JSON renders v as indented JSON with map keys sorted. NaN and infinite
// floats are written as the strings "NaN", "+Inf" and "-Inf".
func JSON(v codec.Value) ([]byte, error) {
	return json.MarshalIndent(native(v, true), "", "  ")
}
