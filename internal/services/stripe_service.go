package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/config"
)

// webhookTolerance is how old a signed webhook timestamp may be
const webhookTolerance = 5 * time.Minute

// StripeService talks to the Stripe REST API. Amounts are in the smallest
// currency unit (cents for USD).
type StripeService struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	client        *http.Client
	logger        *logrus.Logger
}

// NewStripeService creates a new StripeService
func NewStripeService(cfg config.StripeConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		baseURL:       cfg.APIURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		client:        &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

// PaymentIntent is the subset of Stripe's payment intent object we use
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// stripeError is Stripe's error envelope
type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent creates a payment intent for the given amount in
// cents. Metadata keys end up on the Stripe dashboard and in webhooks.
func (s *StripeService) CreatePaymentIntent(amountCents int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment gateway unreachable: %w", ErrGateway)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr stripeError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			s.logger.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"code":   apiErr.Error.Code,
			}).Error("Stripe rejected payment intent")
			return nil, fmt.Errorf("%s: %w", apiErr.Error.Message, ErrGateway)
		}
		return nil, fmt.Errorf("payment gateway returned status %d: %w", resp.StatusCode, ErrGateway)
	}

	intent := &PaymentIntent{}
	if err := json.Unmarshal(body, intent); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}

	return intent, nil
}

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// webhook payload. The header carries a timestamp and one or more v1 HMAC
// signatures over "<timestamp>.<payload>".
func (s *StripeService) VerifyWebhookSignature(payload []byte, header string) error {
	return verifySignature(payload, header, s.webhookSecret, time.Now())
}

func verifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("missing signature header")
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid signature timestamp")
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > webhookTolerance || age < -webhookTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}

	return fmt.Errorf("signature mismatch")
}
