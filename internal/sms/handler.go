package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/internal/notify"
	"github.com/zjoart/go-sms-pay/internal/payment"
	"github.com/zjoart/go-sms-pay/internal/wallet"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/logger"
	"github.com/zjoart/go-sms-pay/pkg/utils"
)

type Handler struct {
	Config    config.Config
	Companies company.Repository
	Payments  payment.Repository
	Wallets   wallet.Repository
	Publisher notify.Publisher
}

func NewHandler(cfg config.Config, companies company.Repository, payments payment.Repository, wallets wallet.Repository, publisher notify.Publisher) *Handler {
	return &Handler{Config: cfg, Companies: companies, Payments: payments, Wallets: wallets, Publisher: publisher}
}

// IncomingSMS ingests a deposit notification forwarded from a phone. Two
// payload shapes are accepted: the normalized one identified by
// channel_api_key, and the legacy one authenticated with the company
// X-API-Key header.
func (h *Handler) IncomingSMS(w http.ResponseWriter, r *http.Request) {
	payload, err := utils.DecodeLenientJSON(r)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Malformed JSON body", map[string]string{"error": err.Error()})
		return
	}

	if key := stringField(payload, "channel_api_key"); key != "" {
		h.handleChannelPayload(w, payload, key)
		return
	}

	h.handleLegacyPayload(w, r, payload)
}

func (h *Handler) handleChannelPayload(w http.ResponseWriter, payload map[string]interface{}, channelKey string) {
	channel, err := h.Companies.FindChannelByAPIKey(channelKey)
	if err != nil || !channel.IsActive {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid channel_api_key", nil)
		return
	}

	h.storeDeposit(w, payload, channel.CompanyID, channel)
}

func (h *Handler) handleLegacyPayload(w http.ResponseWriter, r *http.Request, payload map[string]interface{}) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Missing credential", nil)
		return
	}

	comp, err := h.Companies.FindByAPIKey(apiKey)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid credential", nil)
		return
	}
	if !comp.IsActive {
		utils.BuildErrorResponse(w, http.StatusForbidden, "Company is inactive", nil)
		return
	}

	h.storeDeposit(w, payload, comp.ID, nil)
}

func (h *Handler) storeDeposit(w http.ResponseWriter, payload map[string]interface{}, companyID uuid.UUID, channel *company.Channel) {
	rawMessage := stringField(payload, "raw_message")
	if rawMessage == "" {
		utils.BuildErrorResponse(w, http.StatusUnprocessableEntity, "field required: raw_message", nil)
		return
	}

	explicitAmount, err := amountField(payload)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusUnprocessableEntity, "invalid amount", nil)
		return
	}

	if Classify(rawMessage) == ClassificationIgnored {
		logger.Info("Incoming SMS ignored (not a deposit)", logger.Fields{logger.CompanyIDKey: companyID.String()})
		utils.BuildSuccessResponse(w, http.StatusOK, "SMS ignored", map[string]string{"status": "ignored"})
		return
	}

	normalized := Parse(rawMessage, ExplicitFields{
		Amount:   explicitAmount,
		Currency: stringField(payload, "currency"),
		TxnID:    stringField(payload, "txn_id"),
	}, h.Config.DefaultCurrency)

	payerPhone := stringField(payload, "payer_phone")
	receiverPhone := stringField(payload, "receiver_phone")
	if receiverPhone == "" {
		// historical fallback so the receiver column is never empty; this is
		// not a matching signal
		receiverPhone = payerPhone
	}

	p := payment.Payment{
		CompanyID:     companyID,
		Amount:        normalized.Amount,
		Currency:      normalized.Currency,
		TxnID:         optional(normalized.TxnID),
		PayerPhone:    optional(payerPhone),
		ReceiverPhone: optional(receiverPhone),
		RawMessage:    rawMessage,
		Status:        payment.StatusNew,
	}
	if channel != nil {
		p.ChannelID = &channel.ID
	}

	if receiverPhone != "" {
		wal, err := h.Wallets.FindActiveByIdentifier(companyID.String(), receiverPhone)
		if err == nil {
			p.WalletID = &wal.ID
		} else if !errors.Is(err, wallet.ErrNotFound) {
			logger.Warn("Wallet lookup failed for receiver phone", logger.Fields{
				logger.CompanyIDKey: companyID.String(),
				logger.ErrorKey:     err.Error(),
			})
		}
	}

	if err := h.Payments.Create(&p); err != nil {
		if errors.Is(err, payment.ErrDuplicateTxn) {
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Duplicate transaction id", nil)
			return
		}
		logger.Error("Failed to store payment", logger.Fields{
			logger.CompanyIDKey: companyID.String(),
			logger.ErrorKey:     err.Error(),
		})
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to store payment", nil)
		return
	}

	h.publishStored(&p)

	utils.BuildSuccessResponse(w, http.StatusCreated, "Payment stored", map[string]interface{}{
		"payment_id": p.ID,
		"status":     p.Status,
	})
}

// publishStored enqueues the post-commit notification event. Best-effort:
// a queue failure is logged and the ingestion response is unaffected.
func (h *Handler) publishStored(p *payment.Payment) {
	event := notify.PaymentEvent{
		PaymentID: p.ID.String(),
		CompanyID: p.CompanyID.String(),
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    string(p.Status),
		Timestamp: time.Now().UTC(),
	}
	if p.ChannelID != nil {
		event.ChannelID = p.ChannelID.String()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := h.Publisher.PublishPaymentStored(ctx, event); err != nil {
		logger.Error("Failed to publish payment event", logger.Fields{
			logger.PaymentIDKey: p.ID.String(),
			logger.ErrorKey:     err.Error(),
		})
	}
}

func stringField(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// amountField accepts a JSON number or a numeric string; anything else is a
// schema violation.
func amountField(payload map[string]interface{}) (*float64, error) {
	raw, ok := payload["amount"]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case float64:
		return &v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %q", v)
		}
		return &f, nil
	default:
		return nil, fmt.Errorf("invalid amount type")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
