package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReceipt(t *testing.T) {
	doc, err := New().RenderReceipt(context.Background(), Receipt{
		Number:           "R-1001",
		IssuedBy:         "PosSaaS",
		TenantName:       "Jane Owner",
		CompanyName:      "Acme",
		Email:            "jane@acme.test",
		Domain:           "acme.pos.test",
		Package:          "Pro",
		SubscriptionType: "monthly",
		PaidBy:           "stripe",
		DatePaid:         "2026-10-18",
		ExpiryDate:       "2026-11-17",
		Amount:           "USD 29.99",
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestRenderReceiptRequiresNumber(t *testing.T) {
	_, err := New().RenderReceipt(context.Background(), Receipt{})
	assert.ErrorIs(t, err, ErrEmptyReceipt)
}
