package nodes

import (
	"encoding/json"
	"fmt"
)

func marshalState(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("nodes: %s: marshal state: %w", kind, err)
	}

	return data, nil
}

// unmarshalState decodes data into v. Empty data leaves v untouched.
func unmarshalState(kind string, data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}

	err := json.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("nodes: %s: unmarshal state: %w", kind, err)
	}

	return nil
}

// wrapPhase keeps phase in [0, 1).
func wrapPhase(p float64) float64 {
	if p >= 1 || p < 0 {
		p -= float64(int(p))
		if p < 0 {
			p++
		}
	}

	return p
}
