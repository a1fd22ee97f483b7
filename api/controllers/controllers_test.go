package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fineshyttt/commerce-backend/api/middleware"
	"github.com/fineshyttt/commerce-backend/internal/checkout"
	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/auth"
	"github.com/fineshyttt/commerce-backend/pkg/config"
	"github.com/fineshyttt/commerce-backend/pkg/enums"
	pkgerrors "github.com/fineshyttt/commerce-backend/pkg/errors"
)

type stubCheckout struct {
	fn func(ctx context.Context, actor auth.Actor, input checkout.CheckoutInput) (*orders.OrderDTO, error)
}

func (s stubCheckout) Execute(ctx context.Context, actor auth.Actor, input checkout.CheckoutInput) (*orders.OrderDTO, error) {
	return s.fn(ctx, actor, input)
}

type stubOrders struct {
	orders.Service
	listFn   func(userID uuid.UUID, limit, offset int) (*orders.OrderSummaryList, error)
	cancelFn func(actor auth.Actor, orderID uuid.UUID) (*orders.OrderDTO, error)
	updateFn func(actor auth.Actor, orderID uuid.UUID, status enums.OrderStatus, notes string) (*orders.OrderDTO, error)
}

func (s stubOrders) ListUserOrders(_ context.Context, userID uuid.UUID, limit, offset int) (*orders.OrderSummaryList, error) {
	return s.listFn(userID, limit, offset)
}

func (s stubOrders) Cancel(_ context.Context, actor auth.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return s.cancelFn(actor, orderID)
}

func (s stubOrders) UpdateStatus(_ context.Context, actor auth.Actor, orderID uuid.UUID, status enums.OrderStatus, notes string) (*orders.OrderDTO, error) {
	return s.updateFn(actor, orderID, status, notes)
}

type stubInventory struct {
	inventory.Service
	restockFn func(variantID uuid.UUID, amount int) (*inventory.StockDTO, error)
}

func (s stubInventory) Restock(_ context.Context, _ auth.Actor, variantID uuid.UUID, amount int) (*inventory.StockDTO, error) {
	return s.restockFn(variantID, amount)
}

func withActor(req *http.Request, actor auth.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return payload.Error.Code
}

func TestCheckoutCreatesOrder(t *testing.T) {
	userID := uuid.New()
	shipping := uuid.New()
	billing := uuid.New()
	orderID := uuid.New()

	svc := stubCheckout{fn: func(_ context.Context, actor auth.Actor, input checkout.CheckoutInput) (*orders.OrderDTO, error) {
		if actor.UserID != userID {
			t.Fatalf("unexpected actor %s", actor.UserID)
		}
		if input.ShippingAddressID != shipping || input.BillingAddressID != billing {
			t.Fatalf("unexpected addresses %+v", input)
		}
		if input.CouponCode == nil || *input.CouponCode != "SAVE10" {
			t.Fatalf("expected trimmed coupon code, got %v", input.CouponCode)
		}
		return &orders.OrderDTO{ID: orderID, Status: enums.OrderStatusCreated, FinalAmount: decimal.NewFromInt(10), CreatedAt: time.Now()}, nil
	}}

	body := `{"shipping_address_id":"` + shipping.String() + `","billing_address_id":"` + billing.String() + `","coupon_code":" SAVE10 "}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", strings.NewReader(body)), auth.NewActor(userID, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != orderID || envelope.Data.Status != enums.OrderStatusCreated {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestCheckoutRejectsInvalidBody(t *testing.T) {
	svc := stubCheckout{fn: func(context.Context, auth.Actor, checkout.CheckoutInput) (*orders.OrderDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"shipping_address_id":"nope"}`)), auth.NewActor(uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCheckoutMapsDomainErrors(t *testing.T) {
	svc := stubCheckout{fn: func(context.Context, auth.Actor, checkout.CheckoutInput) (*orders.OrderDTO, error) {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for Boots")
	}}
	body := `{"shipping_address_id":"` + uuid.NewString() + `","billing_address_id":"` + uuid.NewString() + `"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), auth.NewActor(uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCheckoutRequiresActor(t *testing.T) {
	svc := stubCheckout{fn: func(context.Context, auth.Actor, checkout.CheckoutInput) (*orders.OrderDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	resp := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListOrdersPassesPagination(t *testing.T) {
	userID := uuid.New()
	svc := stubOrders{listFn: func(gotUser uuid.UUID, limit, offset int) (*orders.OrderSummaryList, error) {
		if gotUser != userID || limit != 5 || offset != 10 {
			t.Fatalf("unexpected args %s %d %d", gotUser, limit, offset)
		}
		return &orders.OrderSummaryList{Limit: limit, Offset: offset}, nil
	}}

	req := withActor(httptest.NewRequest(http.MethodGet, "/?limit=5&offset=10", nil), auth.NewActor(userID, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestListOrdersRejectsOversizedLimit(t *testing.T) {
	svc := stubOrders{listFn: func(uuid.UUID, int, int) (*orders.OrderSummaryList, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	req := withActor(httptest.NewRequest(http.MethodGet, "/?limit=1000", nil), auth.NewActor(uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelOrderRejectsBadID(t *testing.T) {
	svc := stubOrders{cancelFn: func(auth.Actor, uuid.UUID) (*orders.OrderDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withURLParam(req, "orderId", "not-a-uuid")
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelOrderSurfacesForbidden(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrders{cancelFn: func(_ auth.Actor, got uuid.UUID) (*orders.OrderDTO, error) {
		if got != orderID {
			t.Fatalf("unexpected order id %s", got)
		}
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = withURLParam(req, "orderId", orderID.String())
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrders{updateFn: func(actor auth.Actor, got uuid.UUID, status enums.OrderStatus, notes string) (*orders.OrderDTO, error) {
		if !actor.IsAdmin() {
			t.Fatal("expected admin actor")
		}
		if got != orderID || status != enums.OrderStatusShipped || notes != "left warehouse" {
			t.Fatalf("unexpected args %s %s %q", got, status, notes)
		}
		return &orders.OrderDTO{ID: orderID, Status: status}, nil
	}}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"SHIPPED","notes":"left warehouse"}`))
	req = withURLParam(req, "orderId", orderID.String())
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	svc := stubOrders{updateFn: func(auth.Actor, uuid.UUID, enums.OrderStatus, string) (*orders.OrderDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"TELEPORTED"}`))
	req = withURLParam(req, "orderId", uuid.NewString())
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	AdminUpdateOrderStatus(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminRestock(t *testing.T) {
	variantID := uuid.New()
	svc := stubInventory{restockFn: func(got uuid.UUID, amount int) (*inventory.StockDTO, error) {
		if got != variantID || amount != 4 {
			t.Fatalf("unexpected args %s %d", got, amount)
		}
		return &inventory.StockDTO{VariantID: variantID, Quantity: 14, Available: 14}, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":4}`))
	req = withURLParam(req, "variantId", variantID.String())
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	AdminRestock(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data inventory.StockDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Quantity != 14 {
		t.Fatalf("unexpected stock %+v", envelope.Data)
	}
}

func TestAdminRestockRejectsZeroAmount(t *testing.T) {
	svc := stubInventory{restockFn: func(uuid.UUID, int) (*inventory.StockDTO, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":0}`))
	req = withURLParam(req, "variantId", uuid.NewString())
	req = withActor(req, auth.NewActor(uuid.New(), enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	AdminRestock(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"redis": stubPinger{err: errors.New("down")}}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if resp.Header().Get("X-Commerce-Env") != "test" {
		t.Fatalf("expected env header")
	}
}
