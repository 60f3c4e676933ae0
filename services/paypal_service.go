package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// PayPalConfig holds the payment processor configuration.
type PayPalConfig struct {
	ClientID     string
	Secret       string
	BaseURL      string
	IsProduction bool
}

// PayPalService talks to the PayPal Orders API. Only order creation and
// capture are needed here; the checkout widget itself runs client-side.
type PayPalService struct {
	config     *PayPalConfig
	httpClient *http.Client
}

var (
	payPalService *PayPalService
	payPalOnce    sync.Once
)

// GetPayPalService returns the singleton instance configured from the
// environment.
func GetPayPalService() *PayPalService {
	payPalOnce.Do(func() {
		isProduction := os.Getenv("PAYPAL_ENV") == "production"
		baseURL := os.Getenv("PAYPAL_BASE_URL")
		if baseURL == "" {
			if isProduction {
				baseURL = "https://api-m.paypal.com"
			} else {
				baseURL = "https://api-m.sandbox.paypal.com"
			}
		}

		payPalService = NewPayPalService(&PayPalConfig{
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			Secret:       os.Getenv("PAYPAL_SECRET"),
			BaseURL:      baseURL,
			IsProduction: isProduction,
		})
	})
	return payPalService
}

// NewPayPalService builds a service for an explicit config. Tests use
// this with an httptest server as the base URL.
func NewPayPalService(config *PayPalConfig) *PayPalService {
	return &PayPalService{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ValidateConfig checks the payment processor configuration.
func (s *PayPalService) ValidateConfig() error {
	if s.config.ClientID == "" {
		return fmt.Errorf("PAYPAL_CLIENT_ID is not set")
	}
	if s.config.Secret == "" {
		return fmt.Errorf("PAYPAL_SECRET is not set")
	}
	if s.config.BaseURL == "" {
		return fmt.Errorf("PayPal base URL is not set")
	}
	return nil
}

// getAccessToken exchanges the client credentials for a bearer token.
func (s *PayPalService) getAccessToken() (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequest("POST", s.config.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(s.config.ClientID + ":" + s.config.Secret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PayPal auth error (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("error unmarshaling token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("PayPal returned an empty access token")
	}

	return tokenResp.AccessToken, nil
}

// CreateOrder creates a CAPTURE-intent PayPal order for the given EUR
// amount and returns its id, used as the payment reference.
func (s *PayPalService) CreateOrder(amountEUR float64, description string) (string, error) {
	token, err := s.getAccessToken()
	if err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"amount": map[string]string{
					"currency_code": "EUR",
					"value":         fmt.Sprintf("%.2f", amountEUR),
				},
				"description": description,
			},
		},
	}

	body, err := s.post("/v2/checkout/orders", token, payload)
	if err != nil {
		return "", err
	}

	var orderResp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return "", fmt.Errorf("error unmarshaling order response: %w", err)
	}
	if orderResp.ID == "" {
		return "", fmt.Errorf("PayPal returned no order id")
	}

	return orderResp.ID, nil
}

// CaptureOrder captures a previously created order. It returns true
// when PayPal reports the capture as completed.
func (s *PayPalService) CaptureOrder(reference string) (bool, error) {
	token, err := s.getAccessToken()
	if err != nil {
		return false, err
	}

	body, err := s.post("/v2/checkout/orders/"+reference+"/capture", token, map[string]interface{}{})
	if err != nil {
		return false, err
	}

	var captureResp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &captureResp); err != nil {
		return false, fmt.Errorf("error unmarshaling capture response: %w", err)
	}

	return captureResp.Status == "COMPLETED", nil
}

// post sends an authenticated JSON request to the PayPal API and
// returns the raw response body.
func (s *PayPalService) post(path, token string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", s.config.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("PayPal API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}
