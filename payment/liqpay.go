// Package payment speaks the LiqPay checkout protocol: a base64 JSON payload
// signed with base64(sha1(private_key + data + private_key)).
package payment

import (
	"bytes"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

const (
	CheckoutURL = "https://www.liqpay.ua/api/3/checkout"
	APIVersion  = "3"

	StatusSuccess = "success"
)

var ErrMalformedData = errors.New("malformed payment data")

// Verifier checks callback signatures. It never touches orders.
type Verifier interface {
	Verify(data, signature string) bool
}

type Client struct {
	publicKey  string
	privateKey string
	currency   string
}

func NewClient(publicKey, privateKey, currency string) *Client {
	if currency == "" {
		currency = "UAH"
	}
	return &Client{publicKey: publicKey, privateKey: privateKey, currency: currency}
}

// Configured reports whether both keys are present.
func (c *Client) Configured() bool {
	return c.publicKey != "" && c.privateKey != ""
}

func (c *Client) Currency() string {
	return c.currency
}

// Request describes a single payment to collect.
type Request struct {
	OrderID     string
	Amount      decimal.Decimal
	Description string
	ResultURL   string
	ServerURL   string
}

// Form is everything a browser needs to post the customer to the gateway.
type Form struct {
	Action    string `json:"action"`
	Data      string `json:"data"`
	Signature string `json:"signature"`
	HTML      string `json:"html"`
}

var formTemplate = template.Must(template.New("liqpay").Parse(
	`<form method="POST" action="{{.Action}}" accept-charset="utf-8">` +
		`<input type="hidden" name="data" value="{{.Data}}"/>` +
		`<input type="hidden" name="signature" value="{{.Signature}}"/>` +
		`<input type="image" src="//static.liqpay.ua/buttons/p1ru.radius.png" name="btn_text"/>` +
		`</form>`))

func (c *Client) CheckoutForm(req Request) (Form, error) {
	params := map[string]string{
		"public_key":  c.publicKey,
		"version":     APIVersion,
		"action":      "pay",
		"amount":      req.Amount.StringFixed(2),
		"currency":    c.currency,
		"description": req.Description,
		"order_id":    req.OrderID,
		"result_url":  req.ResultURL,
		"server_url":  req.ServerURL,
	}
	data, err := Encode(params)
	if err != nil {
		return Form{}, err
	}

	form := Form{Action: CheckoutURL, Data: data, Signature: c.Sign(data)}
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, form); err != nil {
		return Form{}, fmt.Errorf("failed to render payment form: %w", err)
	}
	form.HTML = buf.String()
	return form, nil
}

// Sign computes the signature for an encoded payload.
func (c *Client) Sign(data string) string {
	sum := sha1.Sum([]byte(c.privateKey + data + c.privateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (c *Client) Verify(data, signature string) bool {
	if c.privateKey == "" || data == "" || signature == "" {
		return false
	}
	expected := c.Sign(data)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func Encode(params any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode payment data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Callback is the subset of the gateway's status payload we act on.
type Callback struct {
	OrderID  string          `json:"order_id"`
	Status   string          `json:"status"`
	Action   string          `json:"action"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func Decode(data string) (*Callback, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	var cb Callback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	return &cb, nil
}
