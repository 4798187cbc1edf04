package upstream

import (
	"context"
	"errors"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/metrics"
	"github.com/GoPolymarket/polymarket-go-sdk/pkg/data"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var errNoDataClient = errors.New("polymarket data client not configured")

// Wallet values an owner's on-chain wallet through the Polymarket Data API.
type Wallet struct {
	dataClient data.Client
	creds      CredentialSource
}

func NewWallet(dataClient data.Client, creds CredentialSource) *Wallet {
	return &Wallet{dataClient: dataClient, creds: creds}
}

func (w *Wallet) WalletValue(ctx context.Context, ownerID string) (model.WalletValue, error) {
	cred, err := resolve(w.creds, ownerID)
	if err != nil {
		return model.WalletValue{}, err
	}
	if !cred.HasWallet() {
		return model.WalletValue{}, model.ErrWalletNotConfigured
	}
	if w.dataClient == nil {
		return model.WalletValue{}, errNoDataClient
	}

	addr := common.HexToAddress(cred.WalletAddress)
	start := time.Now()
	values, err := w.dataClient.Value(ctx, &data.ValueRequest{User: addr})
	metrics.UpstreamLatency.WithLabelValues(string(BackendPolymarket)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(BackendPolymarket), "error").Inc()
		return model.WalletValue{}, &Error{Backend: BackendPolymarket, Path: "/value", Message: "value lookup failed", Err: err}
	}
	metrics.UpstreamRequests.WithLabelValues(string(BackendPolymarket), "ok").Inc()

	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v.Value)
	}
	return model.WalletValue{Address: addr.Hex(), Value: total}, nil
}
