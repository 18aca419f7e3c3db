package filesystem

import (
	"encoding/json"
	"fmt"
)

// PathArg is a path argument that arrives from the control-plane API as
// either one path or an ordered sequence of paths. The variant is resolved
// once, at the JSON boundary; operations downstream branch on IsBatch
// instead of inspecting runtime types.
type PathArg struct {
	paths []string
	batch bool
}

// SinglePath builds the scalar variant.
func SinglePath(p string) PathArg {
	return PathArg{paths: []string{p}}
}

// BatchPaths builds the sequence variant.
func BatchPaths(ps []string) PathArg {
	return PathArg{paths: ps, batch: true}
}

// IsBatch reports whether the argument arrived as a sequence.
func (a PathArg) IsBatch() bool {
	return a.batch
}

// Paths returns the contained paths; a scalar argument yields one element.
func (a PathArg) Paths() []string {
	return a.paths
}

// UnmarshalJSON decodes either a JSON string or an array of strings. Any
// other shape fails with ErrInvalidArgument.
func (a *PathArg) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = SinglePath(single)
		return nil
	}

	var batch []string
	if err := json.Unmarshal(data, &batch); err == nil {
		*a = BatchPaths(batch)
		return nil
	}

	return fmt.Errorf("%w: %s", ErrInvalidArgument, string(data))
}

// MarshalJSON encodes the argument in the shape it arrived in.
func (a PathArg) MarshalJSON() ([]byte, error) {
	if a.batch {
		return json.Marshal(a.paths)
	}
	if len(a.paths) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.paths[0])
}

// pairPaths aligns two path arguments into from/to pairs. Mixing a scalar
// with a sequence fails with ErrShapeMismatch; sequences of different
// lengths fail with ErrLengthMismatch.
func pairPaths(initial, ending PathArg) ([][2]string, error) {
	if initial.batch != ending.batch {
		return nil, ErrShapeMismatch
	}
	from := initial.Paths()
	to := ending.Paths()
	if len(from) != len(to) {
		return nil, ErrLengthMismatch
	}

	pairs := make([][2]string, len(from))
	for i := range from {
		pairs[i] = [2]string{from[i], to[i]}
	}
	return pairs, nil
}
