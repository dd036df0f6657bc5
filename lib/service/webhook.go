package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sufhub/sufhub.go/db/models"
	"github.com/sufhub/sufhub.go/taxcore"
)

// StartWebhookSubscription posts every newly reconciled receipt to the
// configured webhook url until ctx is torn down.
func (svc *SufhubService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)

	rsReceipts := make(chan models.Receipt)
	baReceipts := make(chan models.Receipt)
	svc.ReceiptPubSub.Subscribe(string(taxcore.CountryRS), rsReceipts)
	svc.ReceiptPubSub.Subscribe(string(taxcore.CountryBA), baReceipts)

	for {
		select {
		case <-ctx.Done():
			return
		case receipt := <-rsReceipts:
			svc.postToWebhook(receipt, url)
		case receipt := <-baReceipts:
			svc.postToWebhook(receipt, url)
		}
	}
}

func (svc *SufhubService) postToWebhook(receipt models.Receipt, url string) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(receipt)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	resp, err := http.Post(url, "application/json", payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
