package types

import "fmt"

// AttributeBag holds free-form tenant attributes persisted as jsonb. Values
// are limited to JSON scalars, arrays, and null so promoted columns stay the
// single source of truth for structured fields.
type AttributeBag map[string]any

// Validate rejects nested objects and unsupported value types.
func (b AttributeBag) Validate() error {
	for key, value := range b {
		if err := validateBagValue(value); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
	}
	return nil
}

// Without returns a copy of the bag with the provided keys removed.
func (b AttributeBag) Without(keys ...string) AttributeBag {
	if b == nil {
		return nil
	}
	out := make(AttributeBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

func validateBagValue(value any) error {
	switch v := value.(type) {
	case nil, string, bool,
		float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case []any:
		for i, item := range v {
			if err := validateBagValue(item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		return nil
	case []string:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
}
