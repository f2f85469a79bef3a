// file: internals/features/finance/gateway/service/provider.go
package service

import (
	"context"
	"net/url"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/pkg/errors"
)

// PaymentURLProvider menghasilkan URL halaman bayar untuk payload initiate.
type PaymentURLProvider interface {
	Name() string
	PaymentURL(ctx context.Context, p InitiatePayload) (string, error)
}

/* =========================================================
   Static (hosted page milik gateway, order_id di query)
========================================================= */

type StaticURLProvider struct {
	Provider string
	BaseURL  string
}

func (s StaticURLProvider) Name() string {
	if s.Provider == "" {
		return "hosted"
	}
	return s.Provider
}

func (s StaticURLProvider) PaymentURL(_ context.Context, p InitiatePayload) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("invalid gateway base url %q", s.BaseURL)
	}
	q := u.Query()
	q.Set("order_id", p.OrderID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

/* =========================================================
   Midtrans Snap
========================================================= */

type MidtransProvider struct {
	client snap.Client
}

// NewMidtransProvider: useProduction=true untuk Production, false untuk Sandbox.
func NewMidtransProvider(serverKey string, useProduction bool) *MidtransProvider {
	m := &MidtransProvider{}
	if useProduction {
		m.client.New(serverKey, midtrans.Production)
	} else {
		m.client.New(serverKey, midtrans.Sandbox)
	}
	return m
}

func (m *MidtransProvider) Name() string { return "midtrans" }

func (m *MidtransProvider) PaymentURL(_ context.Context, p InitiatePayload) (string, error) {
	if p.Amount <= 0 {
		return "", errors.New("invalid amount")
	}
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  p.OrderID,
			GrossAmt: p.Amount,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       p.FeeID,
				Price:    p.Amount,
				Qty:      1,
				Name:     truncate("Fee payment "+p.FeeID, 50),
				Category: "FEE",
			},
		},
		CustomField1: truncate(p.StudentID, 40),
		CustomField2: truncate(p.FeeID, 40),
	}
	if p.RedirectURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: p.RedirectURL}
	}

	resp, err := m.client.CreateTransaction(req)
	if err != nil {
		return "", errors.Wrap(err, "midtrans create transaction")
	}
	return resp.RedirectURL, nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
