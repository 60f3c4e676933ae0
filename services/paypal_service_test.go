package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newPayPalTestServer(t *testing.T, orderID, captureStatus string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
		case r.URL.Path == "/v2/checkout/orders":
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": orderID, "status": "CREATED"})
		default:
			// capture
			if r.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"status": captureStatus})
		}
	}))
}

func TestPayPalService_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *PayPalConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &PayPalConfig{ClientID: "id", Secret: "secret", BaseURL: "https://api-m.sandbox.paypal.com"},
			wantErr: false,
		},
		{
			name:    "missing client id",
			config:  &PayPalConfig{Secret: "secret", BaseURL: "https://api-m.sandbox.paypal.com"},
			wantErr: true,
		},
		{
			name:    "missing secret",
			config:  &PayPalConfig{ClientID: "id", BaseURL: "https://api-m.sandbox.paypal.com"},
			wantErr: true,
		},
		{
			name:    "missing base url",
			config:  &PayPalConfig{ClientID: "id", Secret: "secret"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPayPalService(tt.config)
			err := s.ValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPayPalService_CreateOrder(t *testing.T) {
	server := newPayPalTestServer(t, "PP-ORDER-123", "COMPLETED")
	defer server.Close()

	s := NewPayPalService(&PayPalConfig{
		ClientID: "id",
		Secret:   "secret",
		BaseURL:  server.URL,
	})

	reference, err := s.CreateOrder(65.45, "Order #1")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if reference != "PP-ORDER-123" {
		t.Errorf("CreateOrder() reference = %q, want %q", reference, "PP-ORDER-123")
	}
}

func TestPayPalService_CaptureOrder(t *testing.T) {
	tests := []struct {
		name          string
		captureStatus string
		want          bool
	}{
		{name: "completed capture", captureStatus: "COMPLETED", want: true},
		{name: "declined capture", captureStatus: "DECLINED", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newPayPalTestServer(t, "PP-ORDER-123", tt.captureStatus)
			defer server.Close()

			s := NewPayPalService(&PayPalConfig{
				ClientID: "id",
				Secret:   "secret",
				BaseURL:  server.URL,
			})

			ok, err := s.CaptureOrder("PP-ORDER-123")
			if err != nil {
				t.Fatalf("CaptureOrder() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("CaptureOrder() = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestPayPalService_AuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer server.Close()

	s := NewPayPalService(&PayPalConfig{
		ClientID: "bad",
		Secret:   "bad",
		BaseURL:  server.URL,
	})

	if _, err := s.CreateOrder(10, "Order #1"); err == nil {
		t.Error("CreateOrder() succeeded with rejected credentials")
	}
}
