package ws

import (
	"encoding/json"
	"time"
)

// Notifier fans funding events out to subscribed clients. It satisfies the
// loan service's Notifier dependency.
type Notifier struct {
	hub *Hub
	now func() time.Time
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub, now: func() time.Time { return time.Now().UTC() }}
}

func (n *Notifier) FundingRecorded(loanID string, amount int64, asset string, txHash string) {
	payload, _ := json.Marshal(map[string]any{
		"event": "funding_recorded",
		"data": map[string]any{
			"loan_id":     loanID,
			"amount":      amount,
			"asset":       asset,
			"tx_hash":     txHash,
			"recorded_at": n.now().Format(time.RFC3339),
		},
	})
	n.hub.Publish("loan:funding:"+loanID, payload)
	n.hub.Publish("market:loans", payload)
}
