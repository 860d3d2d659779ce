package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Range describes a parsed array selector: either a single index
// (Lo == Hi) or an inclusive hi:lo span over a registered array variable.
type Range struct {
	Hi int
	Lo int
}

// Width reports how many words the range covers, regardless of direction.
func (r Range) Width() int {
	if r.Hi >= r.Lo {
		return r.Hi - r.Lo + 1
	}
	return r.Lo - r.Hi + 1
}

// Indices returns the element indices this range selects, in wire order:
// descending when Hi>=Lo, ascending when Hi<Lo (spec.md §4.4).
func (r Range) Indices() []int {
	n := r.Width()
	idx := make([]int, n)
	if r.Hi >= r.Lo {
		for i := 0; i < n; i++ {
			idx[i] = r.Hi - i
		}
	} else {
		for i := 0; i < n; i++ {
			idx[i] = r.Hi + i
		}
	}
	return idx
}

// ParsePath splits a variable path of the form "name", "name[i]", or
// "name[hi:lo]" into the bare name and an optional Range. hasRange is false for
// the bare-name (scalar) form; err is non-nil if brackets are present but
// malformed.
func ParsePath(path string) (name string, rng Range, hasRange bool, err error) {
	open := strings.IndexByte(path, '[')
	if open < 0 {
		return path, Range{}, false, nil
	}
	if !strings.HasSuffix(path, "]") {
		return "", Range{}, false, fmt.Errorf("unterminated index in path %q", path)
	}
	name = path[:open]
	if name == "" {
		return "", Range{}, false, fmt.Errorf("empty variable name in path %q", path)
	}
	inner := path[open+1 : len(path)-1]
	if inner == "" {
		return "", Range{}, false, fmt.Errorf("empty index in path %q", path)
	}

	if colon := strings.IndexByte(inner, ':'); colon >= 0 {
		hiStr, loStr := inner[:colon], inner[colon+1:]
		hi, err1 := strconv.Atoi(strings.TrimSpace(hiStr))
		lo, err2 := strconv.Atoi(strings.TrimSpace(loStr))
		if err1 != nil || err2 != nil {
			return "", Range{}, false, fmt.Errorf("malformed range %q in path %q", inner, path)
		}
		// hi>=lo descends, hi<lo ascends (spec.md §4.4); both are valid.
		return name, Range{Hi: hi, Lo: lo}, true, nil
	}

	i, err1 := strconv.Atoi(strings.TrimSpace(inner))
	if err1 != nil {
		return "", Range{}, false, fmt.Errorf("malformed index %q in path %q", inner, path)
	}
	return name, Range{Hi: i, Lo: i}, true, nil
}
