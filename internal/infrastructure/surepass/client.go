// Package surepass is the HTTP client for the SurePass KYC API, which brokers
// access to DigiLocker documents and PAN lookups.
package surepass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/api/metrics"
	"github.com/titantech/kyc-gateway/internal/core/domain"
	"github.com/titantech/kyc-gateway/internal/core/ports"
	"github.com/titantech/kyc-gateway/internal/pkg/retry"
)

const (
	initializePath    = "/api/v1/digilocker/initialize"
	listDocumentsPath = "/api/v1/digilocker/list-documents/"
	downloadPath      = "/api/v1/digilocker/download"
	panPath           = "/api/v1/pan/pan"

	opInitialize    = "initialize"
	opListDocuments = "list_documents"
	opDownload      = "download"
	opVerifyPAN     = "verify_pan"

	DefaultRedirectURL   = "https://www.titantechinvestments.in/close"
	sessionExpiryMinutes = 10
	maxErrorBody         = 64 << 10
)

var timeoutMessages = map[string]string{
	opInitialize: "DigiLocker service is temporarily unavailable. Please try again in a few minutes. " +
		"If the issue persists, try using a different network connection.",
	opDownload: "Document download service is temporarily unavailable. Please try again in a few minutes.",
}

// Config captures everything the client needs; nothing is read from the environment here.
type Config struct {
	BaseURL     string
	APIToken    string
	RedirectURL string
	CustomerID  string
	HTTPClient  *http.Client

	InitializeRetry retry.Policy
	ListRetry       retry.Policy
	DownloadRetry   retry.Policy
}

// DefaultInitializeRetry is three attempts with 15s, 20s and 30s budgets.
func DefaultInitializeRetry() retry.Policy {
	return retry.Policy{
		Timeouts:  []time.Duration{15 * time.Second, 20 * time.Second, 30 * time.Second},
		BaseDelay: time.Second,
	}
}

// DefaultDownloadRetry is three attempts of 30s each.
func DefaultDownloadRetry() retry.Policy {
	return retry.Fixed(3, 30*time.Second, time.Second)
}

// DefaultListRetry is a single 30s attempt.
func DefaultListRetry() retry.Policy {
	return retry.Fixed(1, 30*time.Second, time.Second)
}

// Client implements ports.KYCVendor.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ ports.KYCVendor = (*Client)(nil)

// NewClient fills unset retry policies and the redirect URL with defaults.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = DefaultRedirectURL
	}
	if len(cfg.InitializeRetry.Timeouts) == 0 {
		cfg.InitializeRetry = DefaultInitializeRetry()
	}
	if len(cfg.ListRetry.Timeouts) == 0 {
		cfg.ListRetry = DefaultListRetry()
	}
	if len(cfg.DownloadRetry.Timeouts) == 0 {
		cfg.DownloadRetry = DefaultDownloadRetry()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{cfg: cfg, http: hc, log: log.With().Str("component", "surepass").Logger()}
}

// envelope is the response shape shared by all vendor endpoints.
type envelope[T any] struct {
	Data        T      `json:"data"`
	StatusCode  int    `json:"status_code"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	MessageCode string `json:"message_code"`
}

type prefillOptions struct {
	FullName     string `json:"full_name"`
	UserEmail    string `json:"user_email"`
	MobileNumber string `json:"mobile_number"`
}

type initializeData struct {
	ExpiryMinutes  int            `json:"expiry_minutes"`
	SendSMS        bool           `json:"send_sms"`
	SendEmail      bool           `json:"send_email"`
	VerifyPhone    bool           `json:"verify_phone"`
	VerifyEmail    bool           `json:"verify_email"`
	RedirectURL    string         `json:"redirect_url"`
	PrefillOptions prefillOptions `json:"prefill_options"`
}

type initializeRequest struct {
	Data initializeData `json:"data"`
}

type downloadRequest struct {
	FileID   string `json:"file_id"`
	ClientID string `json:"client_id"`
}

type panRequest struct {
	IDNumber string `json:"id_number"`
}

type documentsData struct {
	Documents []domain.Document `json:"documents"`
}

// Initialize opens a DigiLocker session for the given contact details.
// Only timeouts are retried; any other failure is returned after one attempt.
func (c *Client) Initialize(ctx context.Context, in ports.InitializeInput) (*domain.VendorSession, error) {
	if err := c.checkConfig(opInitialize); err != nil {
		return nil, err
	}

	body := initializeRequest{Data: initializeData{
		ExpiryMinutes: sessionExpiryMinutes,
		SendSMS:       true,
		SendEmail:     true,
		VerifyPhone:   true,
		VerifyEmail:   true,
		RedirectURL:   c.cfg.RedirectURL,
		PrefillOptions: prefillOptions{
			FullName:     in.FullName,
			UserEmail:    in.Email,
			MobileNumber: in.MobileNumber,
		},
	}}

	var resp envelope[domain.VendorSession]
	err := c.withRetry(ctx, opInitialize, c.cfg.InitializeRetry, func(ctx context.Context) error {
		resp = envelope[domain.VendorSession]{}
		return c.do(ctx, opInitialize, http.MethodPost, initializePath, body, &resp)
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(opInitialize, resp.StatusCode, resp.Message, "Failed to initialize DigiLocker")
	}

	c.log.Info().
		Str("client_id", resp.Data.ClientID).
		Int("expiry_seconds", resp.Data.ExpirySeconds).
		Msg("digilocker session initialized")
	return &resp.Data, nil
}

// ListDocuments returns the documents the user shared in the session.
func (c *Client) ListDocuments(ctx context.Context, clientID string) ([]domain.Document, error) {
	if err := c.checkConfig(opListDocuments); err != nil {
		return nil, err
	}

	var resp envelope[documentsData]
	path := listDocumentsPath + url.PathEscape(clientID)
	err := c.withRetry(ctx, opListDocuments, c.cfg.ListRetry, func(ctx context.Context) error {
		resp = envelope[documentsData]{}
		return c.do(ctx, opListDocuments, http.MethodGet, path, nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(opListDocuments, http.StatusBadRequest, resp.Message, "Failed to fetch documents")
	}
	return resp.Data.Documents, nil
}

// DownloadDocument asks the vendor for a download link. A vendor answer without
// a usable link is returned as a link with OK unset rather than as an error.
func (c *Client) DownloadDocument(ctx context.Context, clientID, fileID string) (*domain.DownloadLink, error) {
	if err := c.checkConfig(opDownload); err != nil {
		return nil, err
	}

	body := downloadRequest{FileID: fileID, ClientID: clientID}
	var resp envelope[domain.DownloadLink]
	err := c.withRetry(ctx, opDownload, c.cfg.DownloadRetry, func(ctx context.Context) error {
		resp = envelope[domain.DownloadLink]{}
		return c.do(ctx, opDownload, http.MethodPost, downloadPath, body, &resp)
	})
	if err != nil {
		return nil, err
	}

	link := resp.Data
	link.OK = resp.Success && link.DownloadURL != ""
	if !link.OK {
		c.log.Warn().Str("file_id", fileID).Str("message", resp.Message).Msg("download returned no link")
	}
	return &link, nil
}

// VerifyPAN looks up a PAN number.
func (c *Client) VerifyPAN(ctx context.Context, idNumber string) (*domain.PANDetails, error) {
	if err := c.checkConfig(opVerifyPAN); err != nil {
		return nil, err
	}

	var resp envelope[domain.PANDetails]
	err := c.withRetry(ctx, opVerifyPAN, c.cfg.ListRetry, func(ctx context.Context) error {
		resp = envelope[domain.PANDetails]{}
		return c.do(ctx, opVerifyPAN, http.MethodPost, panPath, panRequest{IDNumber: idNumber}, &resp)
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected(opVerifyPAN, resp.StatusCode, resp.Message, "Failed to verify PAN")
	}
	return &resp.Data, nil
}

func (c *Client) checkConfig(op string) error {
	var err error
	switch {
	case c.cfg.APIToken == "":
		err = &domain.ConfigurationError{Setting: "SUREPASS_API_TOKEN"}
	case c.cfg.BaseURL == "":
		err = &domain.ConfigurationError{Setting: "SUREPASS_BASE_URL"}
	default:
		return nil
	}
	c.log.Error().Err(err).Str("operation", op).Msg("vendor client misconfigured")
	metrics.VendorRequestsTotal.WithLabelValues(op, "error").Inc()
	return err
}

func (c *Client) withRetry(ctx context.Context, op string, p retry.Policy, fn func(ctx context.Context) error) error {
	p.Retryable = isTransient
	start := time.Now()

	err := p.Do(ctx, func(ctx context.Context, attempt int) error {
		metrics.VendorAttemptsTotal.WithLabelValues(op).Inc()
		err := fn(ctx)
		if err != nil {
			c.log.Warn().Err(err).Str("operation", op).Int("attempt", attempt+1).Msg("vendor attempt failed")
		}
		return err
	})

	metrics.VendorRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.VendorRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	if err != nil {
		c.log.Error().Err(err).Str("operation", op).Msg("vendor request failed")
	}
	return err
}

// do performs one HTTP exchange and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if op == opVerifyPAN && c.cfg.CustomerID != "" {
		req.Header.Set("X-Customer-Id", c.cfg.CustomerID)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		var env envelope[json.RawMessage]
		_ = json.Unmarshal(raw, &env)
		return rejected(op, res.StatusCode, env.Message, http.StatusText(res.StatusCode))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if retry.IsTimeout(err) || errors.Is(err, context.Canceled) {
			return transportError(op, err)
		}
		return rejected(op, res.StatusCode, "malformed vendor response", "")
	}
	return nil
}

func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if retry.IsTimeout(err) {
		msg, ok := timeoutMessages[op]
		if !ok {
			msg = "vendor did not respond in time"
		}
		return &domain.VendorError{Op: op, Message: msg, Err: domain.ErrVendorTimeout}
	}
	return &domain.VendorError{Op: op, Message: err.Error(), Err: domain.ErrVendorRejected}
}

func rejected(op string, status int, msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return &domain.VendorError{Op: op, Status: status, Message: msg, Err: domain.ErrVendorRejected}
}

func isTransient(err error) bool {
	return errors.Is(err, domain.ErrVendorTimeout)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrVendorTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrVendorRejected):
		return "rejected"
	default:
		return "error"
	}
}
