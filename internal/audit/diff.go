package audit

import (
	"encoding/json"
	"reflect"
)

type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Diff compares the top-level JSON fields of two values. Fields present on only one side
// show up with a nil counterpart.
func Diff(before, after any) (map[string]Change, error) {
	b, err := toFields(before)
	if err != nil {
		return nil, err
	}
	a, err := toFields(after)
	if err != nil {
		return nil, err
	}

	out := map[string]Change{}
	for k, bv := range b {
		av, ok := a[k]
		if !ok || !reflect.DeepEqual(bv, av) {
			out[k] = Change{From: bv, To: av}
		}
	}
	for k, av := range a {
		if _, ok := b[k]; !ok {
			out[k] = Change{From: nil, To: av}
		}
	}
	return out, nil
}

func toFields(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
