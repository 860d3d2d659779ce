package dispatch

import (
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/wire"
)

// HandleSet writes a value by path (spec §4.7 `set`). A scalar path takes
// a number (defaulting to 0 if omitted); a 2-dim array path takes a JSON
// array, writing elements 0..min(depth,len(V))-1 and leaving any remainder
// untouched. Dimensions beyond 2 aren't representable by this registry, so
// that branch of the spec never triggers here.
func HandleSet(s *Session, cmd wire.Command) Outcome {
	path, ok := cmd.Raw["path"].(string)
	if !ok || path == "" {
		return errorOutcome("set requires a non-empty \"path\"")
	}
	b, _, _, err := s.Registry.ResolveSelector(path)
	if err != nil {
		return errorOutcome(err.Error())
	}

	if b.Kind == registry.Array {
		return setArrayValue(s, b, cmd.Raw["value"])
	}
	return setScalarValue(s, b, cmd.Raw["value"])
}

func setScalarValue(s *Session, b registry.Binding, raw any) Outcome {
	num := 0.0
	if raw != nil {
		f, ok := toFloat(raw)
		if !ok {
			return errorOutcome("set: value must be a number for scalar path " + b.Name)
		}
		num = f
	}
	v := valueForBinding(b, num)
	if err := s.Adapter.WriteValue(b.Handle, v); err != nil {
		return errorOutcome(err.Error())
	}
	return ackOutcome("")
}

func setArrayValue(s *Session, b registry.Binding, raw any) Outcome {
	arr, ok := raw.([]any)
	if !ok {
		return errorOutcome("set: value must be a JSON array for array path " + b.Name)
	}
	n := b.Depth
	if len(arr) < n {
		n = len(arr)
	}
	for i := 0; i < n; i++ {
		f, ok := toFloat(arr[i])
		if !ok {
			return errorOutcome("set: array element must be numeric")
		}
		word, err := s.Adapter.MemoryWord(b.Handle, i)
		if err != nil {
			return errorOutcome(err.Error())
		}
		if err := s.Adapter.WriteValue(word, valueForBinding(b, f)); err != nil {
			return errorOutcome(err.Error())
		}
	}
	return ackOutcome("")
}

// valueForBinding widens num into the Value shape the adapter expects,
// rounding to the nearest integer (halves away from zero) for
// integer-typed cells (spec §4.4).
func valueForBinding(b registry.Binding, num float64) interfaces.Value {
	switch b.Primitive {
	case registry.F64:
		return interfaces.Value{Kind: interfaces.ValueReal, Real: num}
	case registry.PEvent:
		return interfaces.Value{Kind: interfaces.ValueEvent, Evt: num != 0}
	default:
		return interfaces.Value{Kind: interfaces.ValueInt, Int: int32(num + sign(num)*0.5)}
	}
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
