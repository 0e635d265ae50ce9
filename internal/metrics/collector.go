package metrics

import (
	"context"
	"strconv"

	"github.com/defi-direct/bridge-middleware/pkg/events"
	"github.com/defi-direct/bridge-middleware/pkg/ledger"
	"github.com/defi-direct/bridge-middleware/pkg/relay"
)

// Collect drains an event subscription and updates the Prometheus
// collectors until the channel closes or ctx is cancelled.
func Collect(ctx context.Context, ch <-chan events.Envelope) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-ch:
			if !ok {
				return
			}
			record(env.Event)
		}
	}
}

func record(event events.Event) {
	switch e := event.(type) {
	case ledger.EventTransactionInitiated:
		InitiationsTotal.WithLabelValues(e.Token.Hex(), "initiated").Inc()
		FeesCollected.WithLabelValues(e.Token.Hex()).Add(bigFloat(e.Fee))
	case ledger.EventTransactionCompleted:
		SettlementsTotal.WithLabelValues(e.Token.Hex(), "completed").Inc()
	case ledger.EventTransactionRefunded:
		SettlementsTotal.WithLabelValues(e.Token.Hex(), "refunded").Inc()
	case ledger.EventFeesWithdrawn:
		WithdrawalsTotal.WithLabelValues("ledger", e.Token.Hex()).Inc()
	case ledger.EventPaused:
		ModulePaused.WithLabelValues("ledger").Set(1)
	case ledger.EventUnpaused:
		ModulePaused.WithLabelValues("ledger").Set(0)
	case relay.EventTokensDispatched:
		DispatchesTotal.WithLabelValues(e.FeeAsset.String(), "dispatched").Inc()
		DispatchGasLimit.WithLabelValues(strconv.FormatUint(e.DestinationChain, 10)).Observe(float64(e.GasLimit))
	case relay.EventFundsWithdrawn:
		WithdrawalsTotal.WithLabelValues("relay", e.Asset.Hex()).Inc()
	case relay.EventPaused:
		ModulePaused.WithLabelValues("relay").Set(1)
	case relay.EventUnpaused:
		ModulePaused.WithLabelValues("relay").Set(0)
	}
}

func bigFloat(v interface{ String() string }) float64 {
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil {
		return 0
	}
	return f
}
