package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const DefaultZAPIBaseURL = "https://api.z-api.io"

var ErrNotConfigured = errors.New("whatsapp bridge not configured")

type ZAPIConfig struct {
	BaseURL     string
	Instance    string
	Token       string
	ClientToken string
}

func (c ZAPIConfig) Configured() bool {
	return c.Instance != "" && c.Token != ""
}

// ZAPIClient sends text messages through the Z-API REST bridge.
type ZAPIClient struct {
	cfg    ZAPIConfig
	http   *http.Client
	logger *log.Logger
}

// NewZAPIClient uses a client with a 30s timeout when hc is nil. Per-call
// deadlines come from the context passed to Send.
func NewZAPIClient(cfg ZAPIConfig, hc *http.Client, logger *log.Logger) *ZAPIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultZAPIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &ZAPIClient{cfg: cfg, http: hc, logger: logger}
}

type sendTextRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendTextResponse struct {
	ZaapID    string `json:"zaapId"`
	MessageID string `json:"messageId"`
	ID        string `json:"id"`
}

func (c *ZAPIClient) Send(ctx context.Context, phone, text string) error {
	if !c.cfg.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendTextRequest{Phone: CleanPhone(phone), Message: text})
	if err != nil {
		return fmt.Errorf("zapi encode: %w", err)
	}

	url := fmt.Sprintf("%s/instances/%s/token/%s/send-text", c.cfg.BaseURL, c.cfg.Instance, c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("zapi request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ClientToken != "" {
		req.Header.Set("Client-Token", c.cfg.ClientToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zapi send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("zapi send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out sendTextResponse
	_ = json.Unmarshal(raw, &out)
	id := out.MessageID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		id = out.ZaapID
	}
	c.logger.Printf("whatsapp sent to=%s id=%s", CleanPhone(phone), id)
	return nil
}

func (c *ZAPIClient) Status() Status {
	return Status{Ready: c.cfg.Configured(), Service: "z-api"}
}
