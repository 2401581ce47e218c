package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// GatewayService holds the per-method fee schedule and validates webhook
// signatures. Outbound gateway calls are out of scope, payments are settled
// through the callback endpoint.
type GatewayService struct {
	WebhookSecret string
}

func NewGatewayService(webhookSecret string) *GatewayService {
	return &GatewayService{WebhookSecret: webhookSecret}
}

// FeeSchedule is flat cents plus a percentage of the amount.
type FeeSchedule struct {
	Flat    int64
	Percent float64
}

var methodFees = map[string]FeeSchedule{
	"credit_card":   {Flat: 30, Percent: 2.9},
	"debit_card":    {Flat: 30, Percent: 1.5},
	"paypal":        {Flat: 49, Percent: 3.5},
	"bank_transfer": {Flat: 0, Percent: 0.8},
	"crypto":        {Flat: 0, Percent: 1.0},
}

// FeeFor computes the processing fee for a method, rounded up to whole cents.
func (s *GatewayService) FeeFor(method string, amount int64) (int64, error) {
	sched, ok := methodFees[method]
	if !ok {
		return 0, fmt.Errorf("unsupported payment method: %s", method)
	}
	pct := float64(amount) * sched.Percent / 100
	return sched.Flat + int64(math.Ceil(pct)), nil
}

// SupportedMethod reports whether the method has a fee schedule.
func (s *GatewayService) SupportedMethod(method string) bool {
	_, ok := methodFees[method]
	return ok
}

// Sign produces the callback signature for a raw body:
// HMAC-SHA256(body, webhook_secret), hex-encoded.
func (s *GatewayService) Sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(s.WebhookSecret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature checks an incoming callback signature against the body.
func (s *GatewayService) ValidateSignature(incomingSig string, body []byte) bool {
	calculated := s.Sign(body)
	return hmac.Equal([]byte(calculated), []byte(incomingSig))
}
