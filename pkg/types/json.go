package types

import "fmt"

// asJSON returns the raw bytes of a JSONB column as handed over by the driver.
// Postgres drivers pass []byte, sqlite may pass string.
func asJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("types: unsupported jsonb source %T", value)
	}
}
