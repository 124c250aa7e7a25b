// Package params implements the compact parameter payload carried by oracle
// requests. Payloads are CBOR maps keyed by strings whose values are strings,
// integers, lists or nested maps.
package params

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Common parameter keys understood by oracle nodes.
const (
	KeyGet   = "get"
	KeyPath  = "path"
	KeyTimes = "times"
)

var (
	// ErrMalformed is returned when a payload is not a CBOR map with string keys.
	ErrMalformed = errors.New("malformed params payload")
	// ErrUnsupportedValue is returned when a value cannot be carried in a payload.
	ErrUnsupportedValue = errors.New("unsupported params value")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Params is a decoded request parameter map.
type Params map[string]any

// New returns an empty parameter map.
func New() Params {
	return Params{}
}

// Add sets key to a string value and returns p for chaining.
func (p Params) Add(key, value string) Params {
	p[key] = value
	return p
}

// AddInt sets key to an integer value and returns p for chaining.
func (p Params) AddInt(key string, value int64) Params {
	p[key] = value
	return p
}

// AddStringArray sets key to a list of strings and returns p for chaining.
func (p Params) AddStringArray(key string, values []string) Params {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	p[key] = list
	return p
}

// AddMap nests child under key and returns p for chaining.
func (p Params) AddMap(key string, child Params) Params {
	p[key] = child
	return p
}

// GetString returns the string stored under key.
func (p Params) GetString(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetMap returns the nested map stored under key.
func (p Params) GetMap(key string) (Params, bool) {
	v, ok := p[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(Params)
	return m, ok
}

// Keys returns the keys of p in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode serializes p with deterministic CBOR encoding. Equal maps always
// produce identical bytes.
func (p Params) Encode() ([]byte, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	bz, err := encMode.Marshal(map[string]any(p))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return bz, nil
}

// MustEncode is like Encode but panics on error.
func (p Params) MustEncode() []byte {
	bz, err := p.Encode()
	if err != nil {
		panic(err)
	}
	return bz
}

// Decode parses a payload produced by Encode or by any CBOR encoder emitting a
// map with string keys. Indefinite-length containers are accepted.
func Decode(bz []byte) (Params, error) {
	if len(bz) == 0 {
		return Params{}, nil
	}

	var raw any
	if err := decMode.Unmarshal(bz, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	v, err := normalize(raw)
	if err != nil {
		return nil, err
	}
	p, ok := v.(Params)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, not a map", ErrMalformed, raw)
	}
	return p, nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[any]any:
		out := make(Params, len(t))
		for k, val := range t {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrMalformed, k)
			}
			nv, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[key] = nv
		}
		return out, nil
	case map[string]any:
		out := make(Params, len(t))
		for k, val := range t {
			nv, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			nv, err := normalize(val)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case uint64:
		if t <= 1<<63-1 {
			return int64(t), nil
		}
		return t, nil
	case string, int64, bool, []byte, float64:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrMalformed, v)
	}
}

func validate(v any) error {
	switch t := v.(type) {
	case Params:
		for k, val := range t {
			if k == "" {
				return fmt.Errorf("%w: empty key", ErrUnsupportedValue)
			}
			if err := validate(val); err != nil {
				return err
			}
		}
	case map[string]any:
		return validate(Params(t))
	case []any:
		for _, val := range t {
			if err := validate(val); err != nil {
				return err
			}
		}
	case []string:
	case string, int, int64, uint64, bool, []byte:
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}
