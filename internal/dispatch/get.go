package dispatch

import (
	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/registry"
	"github.com/ehrlich-b/go-simctl/internal/util"
	"github.com/ehrlich-b/go-simctl/internal/wire"
)

// HandleGet routes to the sel-specific sub-handler (spec §4.7 `get`). The
// closed set of sel values is {sim_info, sim_time, value, type}.
func HandleGet(s *Session, cmd wire.Command) Outcome {
	sel, _ := cmd.Raw["sel"].(string)
	switch sel {
	case "sim_info":
		return getSimInfo(s)
	case "sim_time":
		return getSimTime(s)
	case "value":
		return getValue(s, cmd)
	case "type":
		return getType(s, cmd)
	default:
		return errorOutcome("get requires sel in {sim_info, sim_time, value, type}")
	}
}

func getSimInfo(s *Session) Outcome {
	precision := s.Adapter.PrecisionExp10()
	return resultOutcome(map[string]any{
		"product":         s.Product,
		"version":         s.Version,
		"model_name":      s.ModelName,
		"model_hier_name": s.ModelName,
		"time_unit":       util.PrecisionString(precision),
		"time_precision":  util.PrecisionString(precision),
	})
}

func getSimTime(s *Session) Outcome {
	now := s.Adapter.NowTicks()
	precision := s.Adapter.PrecisionExp10()
	return resultOutcome(map[string]any{
		"time": util.TicksToSeconds(now, precision),
	})
}

func getValue(s *Session, cmd wire.Command) Outcome {
	path, ok := cmd.Raw["path"].(string)
	if !ok || path == "" {
		return errorOutcome("get sel=value requires a non-empty \"path\"")
	}
	b, rng, hasRange, err := s.Registry.ResolveSelector(path)
	if err != nil {
		return errorOutcome(err.Error())
	}

	if b.Kind == registry.Array {
		return getArrayValue(s, b, rng, hasRange)
	}
	if hasRange {
		return errorOutcome("range selector on non-array " + b.Name)
	}

	v, err := s.Adapter.ReadValue(b.Handle)
	if err != nil {
		return errorOutcome(err.Error())
	}
	return resultOutcome(map[string]any{"value": v.Number()})
}

func getArrayValue(s *Session, b registry.Binding, rng util.Range, hasRange bool) Outcome {
	indices := rng.Indices()
	if !hasRange {
		indices = make([]int, b.Depth)
		for i := range indices {
			indices[i] = i
		}
	}

	if len(indices) == 1 {
		word, err := s.Adapter.MemoryWord(b.Handle, indices[0])
		if err != nil {
			return errorOutcome(err.Error())
		}
		v, err := s.Adapter.ReadValue(word)
		if err != nil {
			return errorOutcome(err.Error())
		}
		return resultOutcome(map[string]any{"value": v.Number()})
	}

	values := make([]float64, len(indices))
	for i, idx := range indices {
		word, err := s.Adapter.MemoryWord(b.Handle, idx)
		if err != nil {
			return errorOutcome(err.Error())
		}
		v, err := s.Adapter.ReadValue(word)
		if err != nil {
			return errorOutcome(err.Error())
		}
		values[i] = v.Number()
	}
	return resultOutcome(map[string]any{"value": values})
}

func getType(s *Session, cmd wire.Command) Outcome {
	path, ok := cmd.Raw["path"].(string)
	if !ok || path == "" {
		return errorOutcome("get sel=type requires a non-empty \"path\"")
	}
	b, _, _, err := s.Registry.ResolveSelector(path)
	if err != nil {
		return errorOutcome(err.Error())
	}
	kind := s.Adapter.HandleType(b.Handle)
	if kind == interfaces.HandleUnknown {
		return Outcome{Reply: wire.Reply{Type: wire.ReplyWarning, Value: "not_supported"}}
	}
	return resultOutcome(map[string]any{"type": int(kind)})
}
