package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrGateway marks downstream SMS gateway failures so callers can translate
// them into a structured result instead of an internal error.
var ErrGateway = errors.New("sms gateway failure")

const smsTokenLeeway = 30 * time.Second

// Gateway dispatches one-time verification codes. Engines depend on this
// interface so tests can substitute a fake.
type Gateway interface {
	SendCode(ctx context.Context, phone, code string) error
}

// SMSConfig holds gateway endpoints and client credentials.
type SMSConfig struct {
	TokenURL     string
	SendURL      string
	ClientID     string
	ClientSecret string
	From         string
}

// SMSService sends verification codes through an external SMS gateway. Access
// tokens are obtained by OAuth2 client-credential exchange and cached until
// shortly before expiry.
type SMSService struct {
	cfg    SMSConfig
	client *http.Client

	mu          sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// NewSMSService builds a gateway client with a bounded request timeout.
func NewSMSService(cfg SMSConfig) *SMSService {
	return &SMSService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type smsTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type smsSendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

// SendCode dispatches the verification code to the phone number.
func (s *SMSService) SendCode(ctx context.Context, phone, code string) error {
	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	msg := smsSendRequest{
		From: s.cfg.From,
		To:   phone,
		Text: fmt.Sprintf("Your verification code: %s", code),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SendURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("build sms send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[SMS] send failed: %v", err)
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("[SMS] unexpected status %d: %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	return nil
}

// WarmUp fetches an access token eagerly so the first registration does not
// pay the exchange latency.
func (s *SMSService) WarmUp(ctx context.Context) error {
	_, err := s.accessToken(ctx)
	return err
}

func (s *SMSService) accessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token != "" && time.Now().Add(smsTokenLeeway).Before(s.tokenExpiry) {
		t := s.token
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check in case another goroutine refreshed while we waited.
	if s.token != "" && time.Now().Add(smsTokenLeeway).Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token exchange status %d, body: %s", ErrGateway, resp.StatusCode, string(respBody))
	}

	var tokenResp smsTokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: unmarshal token response: %v", ErrGateway, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access_token", ErrGateway)
	}

	s.token = tokenResp.AccessToken
	if tokenResp.ExpiresIn > 0 {
		s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	} else {
		// Fallback to a short lifetime when expiry is not provided.
		s.tokenExpiry = time.Now().Add(5 * time.Minute)
	}

	return s.token, nil
}
