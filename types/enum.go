package types

import (
	"encoding/json"
	"fmt"
)

// EnumError is returned when a wire value is not a member of a closed enumeration.
type EnumError struct {
	Type  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s value: %q", e.Type, e.Value)
}

func decodeEnum[T ~string](data []byte, target *T, allowed ...T) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, v := range allowed {
		if string(v) == s {
			*target = v
			return nil
		}
	}
	return &EnumError{Type: fmt.Sprintf("%T", *target), Value: s}
}
