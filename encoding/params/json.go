package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FromJSON builds Params from a JSON object. Integral numbers become int64;
// other numbers keep their decimal text.
func FromJSON(bz []byte) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader(bz))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return New(), nil
	}

	p := fromJSON(raw).(Params)
	if err := validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func fromJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Params, len(t))
		for k, val := range t {
			out[k] = fromJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = fromJSON(val)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		return t.String()
	default:
		return t
	}
}
