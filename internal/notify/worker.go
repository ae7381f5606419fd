package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/logger"
)

// Worker drains the payment event queue and pushes chat notifications.
// Failures never reach the ingestion path: events retry a few times and
// then land on the DLQ.
type Worker struct {
	Config    config.Config
	Companies company.Repository
	Redis     *RedisClient
	Sender    MessageSender
}

func NewWorker(cfg config.Config, companies company.Repository, redisClient *RedisClient, sender MessageSender) *Worker {
	return &Worker{Config: cfg, Companies: companies, Redis: redisClient, Sender: sender}
}

func (w *Worker) Start() {
	logger.Info("Starting notification worker...")
	go w.processEvents()
}

func (w *Worker) processEvents() {
	for {
		result, err := w.Redis.Client.BLPop(context.Background(), 5*time.Second, PaymentQueue).Result()
		if err != nil {
			continue
		}

		eventData := []byte(result[1])
		var event PaymentEvent
		if err := json.Unmarshal(eventData, &event); err != nil {
			logger.Error("NotifyWorker: Failed to unmarshal event", logger.Fields{"error": err.Error(), "data": string(eventData)})
			w.moveToDLQ(eventData)
			continue
		}

		w.handleEvent(event, eventData)
	}
}

func (w *Worker) handleEvent(event PaymentEvent, rawData []byte) {
	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		err := w.deliver(event)
		if err == nil {
			logger.Info("NotifyWorker: Notification delivered", logger.Fields{
				logger.PaymentIDKey: event.PaymentID,
				logger.CompanyIDKey: event.CompanyID,
			})
			return
		}

		logger.Warn("NotifyWorker: Delivery failed, retrying", logger.Fields{
			logger.PaymentIDKey: event.PaymentID,
			"attempt":           i + 1,
			logger.ErrorKey:     err.Error(),
		})
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	logger.Error("NotifyWorker: Max retries exhausted, moving to DLQ", logger.Fields{logger.PaymentIDKey: event.PaymentID})
	w.moveToDLQ(rawData)
}

// deliver resolves the target chat, preferring the channel group over the
// company default. An event with no resolvable chat is dropped silently:
// notifications are opt-in.
func (w *Worker) deliver(event PaymentEvent) error {
	chatID := ""

	if event.ChannelID != "" {
		channel, err := w.Companies.FindChannelByID(event.ChannelID)
		if err == nil && channel.TelegramGroupID != nil {
			chatID = *channel.TelegramGroupID
		}
	}

	if chatID == "" {
		comp, err := w.Companies.FindByID(event.CompanyID)
		if err != nil {
			return err
		}
		if comp.TelegramDefaultGroupID == nil {
			return nil
		}
		chatID = *comp.TelegramDefaultGroupID
	}

	text := fmt.Sprintf("Deposit stored: %s %.2f (payment %s, status %s)",
		event.Currency, event.Amount, event.PaymentID, event.Status)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return w.Sender.Send(ctx, chatID, text)
}

func (w *Worker) moveToDLQ(data []byte) {
	if err := w.Redis.PushToDLQ(context.Background(), data); err != nil {
		logger.Error("NotifyWorker: Failed to push to DLQ", logger.Fields{"error": err.Error()})
	}
}
