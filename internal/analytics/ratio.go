package analytics

import (
	"encoding/json"
	"math"
)

// Ratio is a float that may legitimately be +Inf, as with a profit factor
// that has no losses. JSON has no infinity literal, so it is encoded as the
// string "Infinity".
type Ratio float64

// IsInf reports whether r is positive infinity.
func (r Ratio) IsInf() bool {
	return math.IsInf(float64(r), 1)
}

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	case math.IsNaN(f):
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Infinity"`:
		*r = Ratio(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*r = Ratio(math.Inf(-1))
		return nil
	case "null":
		*r = Ratio(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}
