package service

import "encoding/json"

// Marshal serializes the limits payload as stored in the catalog's jsonb column.
func (l Limits) Marshal() ([]byte, error) {
	return json.Marshal(l)
}

// UnmarshalLimits decodes a stored limits blob. An empty blob decodes to the
// zero value, which every quota check treats as "nothing allowed".
func UnmarshalLimits(payload []byte) (Limits, error) {
	var limits Limits
	if len(payload) == 0 {
		return limits, nil
	}
	if err := json.Unmarshal(payload, &limits); err != nil {
		return Limits{}, err
	}
	return limits, nil
}
