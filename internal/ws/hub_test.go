package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestHubSubscribeAndPublish(t *testing.T) {
	hub := NewHub()
	client := NewClient(nil)

	hub.Subscribe("loan:funding:loan-1", client)
	hub.Publish("loan:funding:loan-1", []byte(`{"event":"funding_recorded"}`))

	select {
	case msg := <-client.out:
		if string(msg) != `{"event":"funding_recorded"}` {
			t.Fatalf("unexpected payload: %s", string(msg))
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for message")
	}

	hub.UnsubscribeAll(client)
}

func TestNotifierPublishesToLoanAndMarketChannels(t *testing.T) {
	hub := NewHub()
	loanClient := NewClient(nil)
	marketClient := NewClient(nil)

	hub.Subscribe("loan:funding:loan-9", loanClient)
	hub.Subscribe("market:loans", marketClient)

	notifier := NewNotifier(hub)
	notifier.FundingRecorded("loan-9", 250, "stablecoin", "ABCD")

	for name, client := range map[string]*Client{"loan": loanClient, "market": marketClient} {
		select {
		case msg := <-client.out:
			var envelope struct {
				Event string `json:"event"`
				Data  struct {
					LoanID string `json:"loan_id"`
					Amount int64  `json:"amount"`
					Asset  string `json:"asset"`
				} `json:"data"`
			}
			if err := json.Unmarshal(msg, &envelope); err != nil {
				t.Fatalf("%s: invalid payload: %v", name, err)
			}
			if envelope.Event != "funding_recorded" || envelope.Data.LoanID != "loan-9" || envelope.Data.Amount != 250 {
				t.Fatalf("%s: unexpected event: %+v", name, envelope)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("%s: timed out waiting for message", name)
		}
	}
}

func TestPublishRacingDisconnectDoesNotPanic(t *testing.T) {
	hub := NewHub()

	for i := 0; i < 200; i++ {
		client := NewClient(nil)
		hub.Subscribe("market:loans", client)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Publish("market:loans", []byte(`{"event":"funding_recorded"}`))
		}()
		go func() {
			defer wg.Done()
			hub.UnsubscribeAll(client)
			client.disconnect()
		}()
		wg.Wait()
	}
}

func TestSendAfterDisconnectIsDropped(t *testing.T) {
	client := NewClient(nil)
	client.disconnect()

	// Must not panic; the message is discarded.
	client.send([]byte("late"))

	select {
	case <-client.done:
	default:
		t.Fatalf("done not closed after disconnect")
	}
}
