package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OrderProduct is an opaque line item forwarded to the order system as-is.
type OrderProduct map[string]interface{}

// OrderPayload mirrors the wire format of the external order-management
// system.
type OrderPayload struct {
	ID            string         `json:"id"`
	UserID        string         `json:"idUser"`
	Status        string         `json:"statusOrder"`
	City          string         `json:"city"`
	Delivery      string         `json:"delivery"`
	Address       string         `json:"address"`
	PaymentSelect string         `json:"paymentSelect"`
	DateSend      string         `json:"dateSend"`
	DateCreate    string         `json:"dateCreate"`
	Products      []OrderProduct `json:"products"`
}

// OrderForwarder submits orders to the remote order-management system.
type OrderForwarder interface {
	Submit(ctx context.Context, order OrderPayload) error
}

// OrderClient posts orders to the external order service over HTTP.
type OrderClient struct {
	baseURL string
	client  *http.Client
}

// NewOrderClient builds an order service client with a bounded timeout.
func NewOrderClient(baseURL string) *OrderClient {
	return &OrderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Submit POSTs the order to the remote system. Any transport or non-2xx
// failure is reported as ErrGateway; there is no retry.
func (c *OrderClient) Submit(ctx context.Context, order OrderPayload) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: order service status %d, body: %s", ErrGateway, resp.StatusCode, string(respBody))
	}

	return nil
}
