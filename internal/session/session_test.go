package session

import (
	"context"
	"io"
	"testing"

	"github.com/ascentsys/retail-client/internal/catalog"
	"github.com/ascentsys/retail-client/pkg/enums"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/ascentsys/retail-client/pkg/logger"
	"github.com/shopspring/decimal"
)

type fakeWireClient struct {
	authenticateFn func(ctx context.Context, username, secret string) (bool, error)
	registerFn     func(ctx context.Context, username, secret string) (bool, error)
}

func (f *fakeWireClient) Authenticate(ctx context.Context, username, secret string) (bool, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, username, secret)
	}
	return false, nil
}

func (f *fakeWireClient) Register(ctx context.Context, username, secret string) (bool, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, username, secret)
	}
	return false, nil
}

type fakeCatalogFetcher struct {
	body string
}

func (f *fakeCatalogFetcher) FetchCatalog(ctx context.Context) (string, error) {
	return f.body, nil
}

const catalogBody = `[{"id":"M001","name":"Amoxicillin","category":"antibiotic","price":"25.50","stock":"5"},` +
	`{"id":"M002","name":"Ibuprofen","category":"cold-remedy","price":"18.00"}]`

func newTestSession(t *testing.T, client *fakeWireClient) *Session {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	catalogSvc, err := catalog.NewService(&fakeCatalogFetcher{body: catalogBody}, catalog.NewDecoder(nil), log)
	if err != nil {
		t.Fatalf("catalog.NewService: %v", err)
	}
	sess, err := New(Params{Client: client, Catalog: catalogSvc, Logger: log})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	if _, err := sess.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	return sess
}

func TestLoginSuccess(t *testing.T) {
	client := &fakeWireClient{
		authenticateFn: func(ctx context.Context, username, secret string) (bool, error) {
			return username == "admin" && secret == "admin123", nil
		},
	}
	sess := newTestSession(t, client)

	if err := sess.Login(context.Background(), Credentials{Username: "admin", Secret: "admin123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.CurrentUser() != "admin" {
		t.Fatalf("expected current user recorded, got %q", sess.CurrentUser())
	}
}

func TestLoginRejectionDistinctFromConnectionFailure(t *testing.T) {
	rejecting := &fakeWireClient{
		authenticateFn: func(ctx context.Context, username, secret string) (bool, error) {
			return false, nil
		},
	}
	sess := newTestSession(t, rejecting)
	err := sess.Login(context.Background(), Credentials{Username: "admin", Secret: "nope"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if sess.CurrentUser() != "" {
		t.Fatal("rejected login must not record a user")
	}

	failing := &fakeWireClient{
		authenticateFn: func(ctx context.Context, username, secret string) (bool, error) {
			return false, pkgerrors.New(pkgerrors.CodeConnection, "dial refused")
		},
	}
	sess = newTestSession(t, failing)
	err = sess.Login(context.Background(), Credentials{Username: "admin", Secret: "admin123"})
	if !pkgerrors.IsConnection(err) {
		t.Fatalf("expected connection-class error, got %v", err)
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatal("a transport failure must never read as invalid credentials")
	}
}

func TestLoginValidatesInput(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})
	err := sess.Login(context.Background(), Credentials{Username: "", Secret: "x"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty username, got %v", err)
	}
}

func TestRegisterAccountBooleanContract(t *testing.T) {
	client := &fakeWireClient{
		registerFn: func(ctx context.Context, username, secret string) (bool, error) {
			return username == "fresh", nil
		},
	}
	sess := newTestSession(t, client)

	created, err := sess.RegisterAccount(context.Background(), Credentials{Username: "fresh", Secret: "pw"})
	if err != nil || !created {
		t.Fatalf("expected created=true, got %v err=%v", created, err)
	}
	created, err = sess.RegisterAccount(context.Background(), Credentials{Username: "taken", Secret: "pw"})
	if err != nil || created {
		t.Fatalf("expected created=false without error, got %v err=%v", created, err)
	}
}

func TestAddToCartEnforcesStockCeiling(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})

	if err := sess.AddToCart("M001", 3); err != nil {
		t.Fatalf("AddToCart within stock: %v", err)
	}
	// 3 in cart + 3 more would exceed the recorded stock of 5
	err := sess.AddToCart("M001", 3)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid-quantity rejection, got %v", err)
	}
	// rejection must leave the cart unchanged
	if qty := sess.CartItems()[0].Quantity; qty != 3 {
		t.Fatalf("cart mutated by rejected add: qty=%d", qty)
	}

	// missing stock field means unlimited
	if err := sess.AddToCart("M002", 1_000_000); err != nil {
		t.Fatalf("expected unlimited stock to accept any quantity, got %v", err)
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})
	err := sess.AddToCart("NOPE", 1)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})
	err := sess.AddToCart("M001", 0)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected invalid-quantity, got %v", err)
	}
}

func TestSetCartQuantity(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})

	if err := sess.SetCartQuantity("M001", 5); err != nil {
		t.Fatalf("SetCartQuantity at stock limit: %v", err)
	}
	if err := sess.SetCartQuantity("M001", 6); !pkgerrors.HasCode(err, pkgerrors.CodeInvalidQuantity) {
		t.Fatalf("expected rejection above stock, got %v", err)
	}
	if qty := sess.CartItems()[0].Quantity; qty != 5 {
		t.Fatalf("rejected set must not apply, qty=%d", qty)
	}

	if err := sess.SetCartQuantity("M001", 0); err != nil {
		t.Fatalf("SetCartQuantity to zero: %v", err)
	}
	if len(sess.CartItems()) != 0 {
		t.Fatal("expected zero quantity to remove the entry")
	}
}

func TestCheckoutCommitsAndClears(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})

	if err := sess.AddToCart("M001", 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := sess.AddToCart("M002", 3); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	order, err := sess.Checkout(context.Background())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.ID != "ORD0001" {
		t.Fatalf("expected first order id ORD0001, got %s", order.ID)
	}
	if !order.Total.Equal(decimal.RequireFromString("105.00")) {
		t.Fatalf("expected total 105.00, got %s", order.Total)
	}
	if len(order.Items) != 2 || order.Items[0].Category != "antibiotic" {
		t.Fatalf("unexpected line items: %+v", order.Items)
	}
	if len(sess.CartItems()) != 0 {
		t.Fatal("checkout must clear the cart")
	}

	history := sess.OrderHistory()
	if len(history) != 1 || history[0].ID != "ORD0001" {
		t.Fatalf("unexpected order history: %+v", history)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})
	if _, err := sess.Checkout(context.Background()); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
}

func TestFilterCatalog(t *testing.T) {
	sess := newTestSession(t, &fakeWireClient{})
	filtered := sess.FilterCatalog(enums.ProductCategoryAntibiotic)
	if len(filtered) != 1 || filtered[0].ID != "M001" {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}
}
