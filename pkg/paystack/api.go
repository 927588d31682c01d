package paystack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	opCreateCustomer        = "create_customer"
	opInitializeTransaction = "initialize_transaction"
	opVerifyTransaction     = "verify_transaction"
	opDisableSubscription   = "disable_subscription"
)

// Customer is a Paystack customer.
type Customer struct {
	ID           int64  `json:"id"`
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
}

// CreateCustomer registers a customer by email. Paystack returns the existing
// customer when the email is already known.
func (c *Client) CreateCustomer(ctx context.Context, email string) (*Customer, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidConfiguration)
	}

	var customer Customer
	if err := c.do(ctx, opCreateCustomer, http.MethodPost, "/customer", map[string]string{"email": email}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// TransactionRequest initializes a hosted checkout. Amount is in kobo.
type TransactionRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Plan        string         `json:"plan,omitempty"`
	Customer    string         `json:"customer,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Authorization is an initialized checkout.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitializeTransaction opens a hosted checkout the customer is redirected to.
func (c *Client) InitializeTransaction(ctx context.Context, req TransactionRequest) (*Authorization, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidConfiguration)
	}

	var auth Authorization
	if err := c.do(ctx, opInitializeTransaction, http.MethodPost, "/transaction/initialize", req, &auth); err != nil {
		return nil, err
	}
	if auth.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: %s returned no authorization URL", ErrInvalidResponse, opInitializeTransaction)
	}
	return &auth, nil
}

// Transaction is a verified transaction.
type Transaction struct {
	ID              int64    `json:"id"`
	Status          string   `json:"status"`
	Reference       string   `json:"reference"`
	Amount          int64    `json:"amount"`
	Currency        string   `json:"currency"`
	GatewayResponse string   `json:"gateway_response"`
	Customer        Customer `json:"customer"`

	// Plan is a plan code string, an object or null depending on the transaction.
	Plan       json.RawMessage `json:"plan"`
	PlanObject *Plan           `json:"plan_object"`
}

// Plan is the subset of a Paystack plan the service reads.
type Plan struct {
	PlanCode string `json:"plan_code"`
	Name     string `json:"name"`
	Interval string `json:"interval"`
}

// Successful reports whether the charge went through.
func (t *Transaction) Successful() bool {
	return t != nil && t.Status == "success"
}

// PlanCode returns the plan code whichever shape the response used.
func (t *Transaction) PlanCode() string {
	if t == nil {
		return ""
	}
	if t.PlanObject != nil && t.PlanObject.PlanCode != "" {
		return t.PlanObject.PlanCode
	}
	if len(t.Plan) == 0 {
		return ""
	}
	var code string
	if err := json.Unmarshal(t.Plan, &code); err == nil {
		return code
	}
	var plan Plan
	if err := json.Unmarshal(t.Plan, &plan); err == nil {
		return plan.PlanCode
	}
	return ""
}

// VerifyTransaction fetches the final state of a transaction by reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidConfiguration)
	}

	var tx Transaction
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, opVerifyTransaction, http.MethodGet, path, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// DisableSubscription stops recurring billing for a subscription code.
// Paystack requires the subscription's email token; when it is unknown the
// secret key is sent in its place.
func (c *Client) DisableSubscription(ctx context.Context, code, token string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: subscription code is required", ErrInvalidConfiguration)
	}
	if token == "" {
		token = c.cfg.SecretKey
	}

	body := map[string]string{"code": code, "token": token}
	return c.do(ctx, opDisableSubscription, http.MethodPost, "/subscription/disable", body, nil)
}
