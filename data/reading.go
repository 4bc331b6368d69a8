package data

import (
	"encoding/json"
	"math"
)

// Reading is a single measured value that the provider may not have supplied.
type Reading struct {
	value   float64
	present bool
}

func Some(v float64) Reading {
	if math.IsNaN(v) {
		return Missing()
	}
	return Reading{value: v, present: true}
}

func Missing() Reading {
	return Reading{}
}

func (r Reading) Get() (float64, bool) {
	return r.value, r.present
}

func (r Reading) IsMissing() bool {
	return !r.present
}

// Truthy mirrors how the widget treats flags and amounts: missing or zero is false.
func (r Reading) Truthy() bool {
	return r.present && r.value != 0
}

func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.present {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

func (r *Reading) UnmarshalJSON(b []byte) error {
	var v *float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v == nil {
		*r = Missing()
		return nil
	}
	*r = Some(*v)
	return nil
}
