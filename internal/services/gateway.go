package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Gateway error sentinels, mapped to the API error taxonomy by callers.
var (
	// ErrGatewayUnavailable means the gateway could not be reached or
	// returned an unusable response. Retryable.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidReference means the gateway does not know the reference.
	ErrInvalidReference = errors.New("unknown transaction reference")
)

// TransactionMetadata rides along on initialize and comes back on verify.
// It must redundantly encode everything reconciliation needs: the gateway
// reference alone cannot be joined back to domain rows if the pending
// ledger row is lost.
type TransactionMetadata struct {
	StudentID         uint   `json:"student_id"`
	FeeID             uint   `json:"fee_id"`
	FeeName           string `json:"fee_name"`
	AcademicSession   string `json:"academic_session"`
	InstallmentNumber int    `json:"installment_number"`
	TotalInstallments int    `json:"total_installments"`
	IsFullPayment     bool   `json:"is_full_payment"`
}

// InitializeRequest is the outbound initialize payload. Amount is in the
// gateway's minor unit.
type InitializeRequest struct {
	Email       string              `json:"email"`
	Amount      int64               `json:"amount"`
	Reference   string              `json:"reference"`
	CallbackURL string              `json:"callback_url"`
	Metadata    TransactionMetadata `json:"metadata"`
}

// InitializeResult carries the checkout handle for the payer.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// TransactionData is the gateway's view of a transaction, the ground truth
// reconciliation trusts. Amount is in the gateway's minor unit.
type TransactionData struct {
	Status    string              `json:"status"`
	Reference string              `json:"reference"`
	Amount    int64               `json:"amount"`
	Channel   string              `json:"channel"`
	PaidAt    string              `json:"paid_at"`
	Metadata  TransactionMetadata `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type gatewayEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GatewayClient is the outbound payment-gateway boundary.
type GatewayClient interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error)
}

// PaystackService talks to the gateway's REST API with the secret key as a
// bearer token.
type PaystackService struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewPaystackService() *PaystackService {
	base := os.Getenv("PAYSTACK_BASE_URL")
	if base == "" {
		base = "https://api.paystack.co"
	}
	return &PaystackService{
		baseURL:   base,
		secretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *PaystackService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*gatewayEnvelope, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrInvalidReference
	}

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: gateway returned status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		return nil, fmt.Errorf("gateway rejected request: %s", envelope.Message)
	}

	return &envelope, nil
}

// InitializeTransaction asks the gateway for a checkout handle.
func (s *PaystackService) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	envelope, err := s.makeRequest(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: malformed initialize data: %v", ErrGatewayUnavailable, err)
	}
	if result.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: initialize response missing authorization url", ErrGatewayUnavailable)
	}
	return &result, nil
}

// VerifyTransaction fetches the gateway's record of a transaction by
// reference.
func (s *PaystackService) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	endpoint := "/transaction/verify/" + url.PathEscape(reference)
	envelope, err := s.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var data TransactionData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: malformed transaction data: %v", ErrGatewayUnavailable, err)
	}
	return &data, nil
}
