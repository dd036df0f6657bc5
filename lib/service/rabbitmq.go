package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sufhub/sufhub.go/db/models"
	"github.com/sufhub/sufhub.go/taxcore"
)

var bufPool sync.Pool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// StartRabbitMqPublisher publishes every newly reconciled receipt to the
// configured topic exchange until ctx is torn down.
func (svc *SufhubService) StartRabbitMqPublisher(ctx context.Context) error {
	conn, err := amqp.Dial(svc.Config.RabbitMQUri)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		svc.Config.RabbitMQReceiptExchange,
		// topic exchange so consumers can bind per country or status
		"topic",
		// durable, so the exchange survives broker restarts
		true,
		false,
		// non-internal exchanges accept direct publishing
		false,
		// wait for the server to confirm the declare
		false,
		nil,
	)
	if err != nil {
		return err
	}

	svc.Logger.Infof("Starting rabbitmq publisher")

	rsReceipts := make(chan models.Receipt)
	baReceipts := make(chan models.Receipt)
	svc.ReceiptPubSub.Subscribe(string(taxcore.CountryRS), rsReceipts)
	svc.ReceiptPubSub.Subscribe(string(taxcore.CountryBA), baReceipts)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled")
		case receipt := <-rsReceipts:
			svc.publishReceipt(ctx, receipt, ch)
		case receipt := <-baReceipts:
			svc.publishReceipt(ctx, receipt, ch)
		}
	}
}

func (svc *SufhubService) publishReceipt(ctx context.Context, receipt models.Receipt, ch *amqp.Channel) {
	key := fmt.Sprintf("%s.%s.receipt", strings.ToLower(receipt.Country), strings.ToLower(receipt.Status))

	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	err := json.NewEncoder(payload).Encode(receipt)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	err = ch.PublishWithContext(ctx,
		svc.Config.RabbitMQReceiptExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	svc.Logger.Debugf("Succesfully published receipt %d to rabbitmq with key %s", receipt.ID, key)
}
