package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeFor(t *testing.T) {
	svc := NewGatewayService("secret")

	tests := []struct {
		method string
		amount int64
		want   int64
	}{
		{"credit_card", 10000, 320},   // 30 + ceil(290)
		{"debit_card", 10000, 180},    // 30 + ceil(150)
		{"paypal", 10000, 399},        // 49 + ceil(350)
		{"bank_transfer", 10000, 80},  // ceil(80)
		{"crypto", 10000, 100},        // ceil(100)
		{"credit_card", 999, 59},      // 30 + ceil(28.971)
	}

	for _, tt := range tests {
		fee, err := svc.FeeFor(tt.method, tt.amount)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fee, "method %s amount %d", tt.method, tt.amount)
	}

	_, err := svc.FeeFor("cheque", 10000)
	assert.Error(t, err)
}

func TestSupportedMethod(t *testing.T) {
	svc := NewGatewayService("secret")

	assert.True(t, svc.SupportedMethod("credit_card"))
	assert.True(t, svc.SupportedMethod("crypto"))
	assert.False(t, svc.SupportedMethod("cheque"))
	assert.False(t, svc.SupportedMethod(""))
}

func TestSignatureRoundTrip(t *testing.T) {
	svc := NewGatewayService("webhook-secret")
	body := []byte(`{"reference":"PAY-ABC12345","status":"COMPLETED"}`)

	sig := svc.Sign(body)
	assert.True(t, svc.ValidateSignature(sig, body))

	// tampered body fails
	assert.False(t, svc.ValidateSignature(sig, []byte(`{"reference":"PAY-ABC12345","status":"REFUNDED"}`)))
	// wrong secret fails
	other := NewGatewayService("other-secret")
	assert.False(t, other.ValidateSignature(sig, body))
	// garbage signature fails
	assert.False(t, svc.ValidateSignature("deadbeef", body))
}
