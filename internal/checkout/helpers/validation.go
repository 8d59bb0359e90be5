package helpers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 1000

// NormalizeLines validates quantities and merges repeated products, keeping
// the position of the first occurrence.
func NormalizeLines(lines []types.CartLine) ([]types.CartLine, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]types.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"productId": line.ProductID.String()})
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
		} else {
			index[line.ProductID] = len(out)
			out = append(out, line)
		}
	}
	for _, line := range out {
		if line.Quantity > MaxLineQuantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity too large").
				WithDetails(map[string]any{"productId": line.ProductID.String()})
		}
	}
	return out, nil
}

// ValidatePaymentMethod accepts only methods that can be chosen at checkout.
func ValidatePaymentMethod(method enums.PaymentMethod) error {
	if !method.IsValid() || !method.CheckoutAllowed() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method").
			WithDetails(map[string]any{"paymentMethod": string(method)})
	}
	return nil
}
