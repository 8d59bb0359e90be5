package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// CartLine is a product and quantity held in a buyer's cart.
type CartLine struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CartLines is a slice marshaled as JSONB.
type CartLines []CartLine

// Value serializes the lines to JSON.
func (c CartLines) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CartLine(c))
}

// Scan decodes JSONB into the line slice.
func (c *CartLines) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded []CartLine
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*c = decoded
	return nil
}
