package service

import (
	"testing"

	"tradex-go/internal/config"
)

func newPaperBroker(t *testing.T) *BrokerService {
	t.Helper()
	prev := config.AppConfig
	config.AppConfig = &config.Config{PaperTrading: true}
	t.Cleanup(func() { config.AppConfig = prev })
	return NewBrokerService()
}

func TestPaperOrdersNeverTouchTheBroker(t *testing.T) {
	broker := newPaperBroker(t)
	if !broker.Paper() {
		t.Fatalf("Expected paper mode")
	}

	if err := broker.Login(); err != nil {
		t.Errorf("Paper login must succeed without credentials: %v", err)
	}

	id, err := broker.PlaceMarketOrder("NIFTYBEES", "BUY", 10)
	if err != nil {
		t.Fatalf("Paper order failed: %v", err)
	}
	if id != "PAPER-1" {
		t.Errorf("Expected order id PAPER-1, got %q", id)
	}

	id, err = broker.PlaceMarketOrder("NIFTYBEES", "SELL", 10)
	if err != nil {
		t.Fatalf("Paper order failed: %v", err)
	}
	if id != "PAPER-2" {
		t.Errorf("Expected order id PAPER-2, got %q", id)
	}

	holdings, err := broker.Holdings()
	if err != nil || holdings != nil {
		t.Errorf("Paper holdings must be empty, got %v / %v", holdings, err)
	}
}

func TestPlaceMarketOrderRejectsBadQuantity(t *testing.T) {
	broker := newPaperBroker(t)
	if _, err := broker.PlaceMarketOrder("NIFTYBEES", "BUY", 0); err == nil {
		t.Errorf("Expected error for zero quantity")
	}
	if _, err := broker.PlaceMarketOrder("NIFTYBEES", "BUY", -5); err == nil {
		t.Errorf("Expected error for negative quantity")
	}
}

func TestIsAuthError(t *testing.T) {
	for _, code := range []string{"AG8001", "AG8002", "AB8050", "AB8051"} {
		if !isAuthError(code) {
			t.Errorf("%s must be treated as an auth error", code)
		}
	}
	if isAuthError("AB1007") {
		t.Errorf("Business rejections must not trigger a re-login")
	}
}
