package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubCheckout struct {
	input  checkout.PlaceOrderInput
	result *checkout.PlaceOrderResult
	err    error
}

func (s *stubCheckout) PlaceOrder(ctx context.Context, input checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error) {
	s.input = input
	return s.result, s.err
}

type stubOrders struct {
	cancelInput internalorders.CancelInput
	statusInput internalorders.UpdateStatusInput
	order       *models.Order
	err         error
}

func (s *stubOrders) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*models.Order, error) {
	s.statusInput = input
	return s.order, s.err
}

func (s *stubOrders) CancelOrder(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
	s.cancelInput = input
	return s.order, s.err
}

type stubDelivery struct {
	code  string
	order *models.Order
	err   error
}

func (s *stubDelivery) IssueOrResend(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubDelivery) IssueInitial(ctx context.Context, orderID uuid.UUID) error {
	return s.err
}

func (s *stubDelivery) Verify(ctx context.Context, orderID uuid.UUID, code string, actor internalorders.Actor) (*models.Order, error) {
	s.code = code
	return s.order, s.err
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.ActorRole, storeID *uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	if storeID != nil {
		ctx = middleware.WithStoreID(ctx, storeID.String())
	}
	return req.WithContext(ctx)
}

func sampleOrder() *models.Order {
	hash := "argon2id$secret"
	expiry := time.Now().Add(5 * time.Minute)
	return &models.Order{
		ID:                uuid.New(),
		CheckoutID:        uuid.New(),
		UserID:            uuid.New(),
		StoreID:           uuid.New(),
		Currency:          "inr",
		SubtotalCents:     20000,
		ShippingFeeCents:  5000,
		TotalCents:        25000,
		PaymentMethod:     enums.PaymentMethodCOD,
		Status:            enums.OrderStatusDeliveryInitiated,
		RefundStatus:      enums.RefundStatusNone,
		DeliveryOTPHash:   &hash,
		DeliveryOTPExpiry: &expiry,
	}
}

func TestPlaceOrderMapsRequest(t *testing.T) {
	buyer := uuid.New()
	productID := uuid.New()
	addressID := uuid.New()
	redirect := "https://checkout.stripe.com/c/pay/cs_test"
	svc := &stubCheckout{result: &checkout.PlaceOrderResult{
		CheckoutID:  uuid.New(),
		OrderIDs:    []uuid.UUID{uuid.New()},
		TotalCents:  25000,
		Currency:    "inr",
		RedirectURL: &redirect,
	}}

	body := `{"items":[{"productId":"` + productID.String() + `","quantity":2}],"addressId":"` + addressID.String() + `","paymentMethod":"stripe","couponCode":" welcome10 "}`
	rec := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order", body, buyer, enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, buyer, svc.input.BuyerID)
	require.Equal(t, enums.PaymentMethodStripe, svc.input.PaymentMethod)
	require.Equal(t, addressID, svc.input.AddressID)
	require.Len(t, svc.input.Items, 1)
	require.Equal(t, 2, svc.input.Items[0].Quantity)
	require.NotNil(t, svc.input.CouponCode)
	require.Equal(t, "welcome10", *svc.input.CouponCode)

	var resp struct {
		Data PlaceOrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "250.00", resp.Data.Total)
	require.Equal(t, redirect, *resp.Data.RedirectURL)
	require.Len(t, resp.Data.OrderIDs, 1)
}

func TestPlaceOrderRejectsClientPrices(t *testing.T) {
	svc := &stubCheckout{}
	body := `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1,"price":1}],"addressId":"` + uuid.NewString() + `","paymentMethod":"COD"}`
	rec := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order", body, uuid.New(), enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, uuid.Nil, svc.input.BuyerID)
}

func TestPlaceOrderValidation(t *testing.T) {
	cases := map[string]string{
		"empty items":    `{"items":[],"addressId":"` + uuid.NewString() + `","paymentMethod":"COD"}`,
		"zero quantity":  `{"items":[{"productId":"` + uuid.NewString() + `","quantity":0}],"addressId":"` + uuid.NewString() + `","paymentMethod":"COD"}`,
		"unknown method": `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1}],"addressId":"` + uuid.NewString() + `","paymentMethod":"BARTER"}`,
		"bad address":    `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1}],"addressId":"nope","paymentMethod":"COD"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			PlaceOrder(&stubCheckout{}, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order", body, uuid.New(), enums.ActorRoleBuyer, nil))
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPlaceOrderSurfacesStockConflict(t *testing.T) {
	productID := uuid.New()
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithReason(pkgerrors.ReasonInsufficientStock, "productId", productID.String(), "productName", "Tea")}
	body := `{"items":[{"productId":"` + productID.String() + `","quantity":5}],"addressId":"` + uuid.NewString() + `","paymentMethod":"COD"}`
	rec := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order", body, uuid.New(), enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "insufficient_stock", resp.Error.Details["reason"])
	require.Equal(t, "Tea", resp.Error.Details["productName"])
}

func TestPlaceOrderReturnsOrdersWhenHandoffFails(t *testing.T) {
	orderID := uuid.New()
	svc := &stubCheckout{
		result: &checkout.PlaceOrderResult{
			CheckoutID: uuid.New(),
			OrderIDs:   []uuid.UUID{orderID},
			TotalCents: 25000,
			Currency:   "inr",
		},
		err: pkgerrors.New(pkgerrors.CodeDependency, "create checkout session"),
	}
	body := `{"items":[{"productId":"` + uuid.NewString() + `","quantity":1}],"addressId":"` + uuid.NewString() + `","paymentMethod":"STRIPE"}`
	rec := httptest.NewRecorder()
	PlaceOrder(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order", body, uuid.New(), enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp struct {
		Data  PlaceOrderResponse `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, string(pkgerrors.CodeDependency), resp.Error.Code)
	require.Equal(t, []uuid.UUID{orderID}, resp.Data.OrderIDs)
	require.Nil(t, resp.Data.RedirectURL)
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	PlaceOrder(&stubCheckout{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/order", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelPassesActor(t *testing.T) {
	order := sampleOrder()
	order.Status = enums.OrderStatusCancelled
	svc := &stubOrders{order: order}
	buyer := uuid.New()

	rec := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order/cancel", `{"orderId":"`+order.ID.String()+`"}`, buyer, enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, order.ID, svc.cancelInput.OrderID)
	require.Equal(t, buyer, svc.cancelInput.Actor.UserID)
	require.Contains(t, rec.Body.String(), `"message":"order cancelled"`)
}

func TestResendNeverExposesCode(t *testing.T) {
	order := sampleOrder()
	rec := httptest.NewRecorder()
	ResendDeliveryOTP(&stubDelivery{order: order}, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order/resend-delivery-otp", `{"orderId":"`+order.ID.String()+`"}`, order.UserID, enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "argon2id")
	require.Contains(t, rec.Body.String(), `"otpExpiresAt"`)
}

func TestVerifyDeliveryOTP(t *testing.T) {
	order := sampleOrder()
	svc := &stubDelivery{order: order}
	rec := httptest.NewRecorder()
	VerifyDeliveryOTP(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order/verify-delivery-otp", `{"orderId":"`+order.ID.String()+`","otp":" 123456 "}`, order.UserID, enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "123456", svc.code)
	require.JSONEq(t, `{"data":{"success":true}}`, rec.Body.String())
}

func TestVerifyDeliveryOTPLockout(t *testing.T) {
	order := sampleOrder()
	svc := &stubDelivery{err: pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts").WithReason(pkgerrors.ReasonAttemptsExceeded)}
	rec := httptest.NewRecorder()
	VerifyDeliveryOTP(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/order/verify-delivery-otp", `{"orderId":"`+order.ID.String()+`","otp":"123456"}`, order.UserID, enums.ActorRoleBuyer, nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUpdateStatusForSeller(t *testing.T) {
	order := sampleOrder()
	order.Status = enums.OrderStatusPacked
	svc := &stubOrders{order: order}
	storeID := order.StoreID

	rec := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/store/order-status", `{"orderId":"`+order.ID.String()+`","status":"packed"}`, uuid.New(), enums.ActorRoleSeller, &storeID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, enums.OrderStatusPacked, svc.statusInput.Status)
	require.NotNil(t, svc.statusInput.Actor.StoreID)
	require.Equal(t, storeID, *svc.statusInput.Actor.StoreID)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	UpdateStatus(&stubOrders{}, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/store/order-status", `{"orderId":"`+uuid.NewString()+`","status":"TELEPORTED"}`, uuid.New(), enums.ActorRoleAdmin, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUsesURLParam(t *testing.T) {
	order := sampleOrder()
	req := authedRequest(http.MethodGet, "/api/v1/order/"+order.ID.String(), "", order.UserID, enums.ActorRoleBuyer, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", order.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	rec := httptest.NewRecorder()
	Get(&stubOrders{order: order}, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), order.ID.String())
}
