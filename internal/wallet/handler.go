package wallet

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/id"
	"github.com/zjoart/go-sms-pay/pkg/logger"
	"github.com/zjoart/go-sms-pay/pkg/utils"
)

type Handler struct {
	Config   config.Config
	Repo     Repository
	Ledger   *Ledger
	Channels company.Repository
}

func NewHandler(cfg config.Config, repo Repository, channels company.Repository) *Handler {
	return &Handler{Config: cfg, Repo: repo, Ledger: NewLedger(repo), Channels: channels}
}

type RequestWalletRequest struct {
	Amount                 float64 `json:"amount"`
	PreferredPaymentMethod string  `json:"preferred_payment_method,omitempty"`
}

func (h *Handler) RequestWallet(w http.ResponseWriter, r *http.Request) {
	comp, ok := company.CompanyFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req RequestWalletRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.Amount <= 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Amount must be positive", nil)
		return
	}

	selected, err := h.Ledger.SelectWallet(comp.ID.String(), req.Amount, req.PreferredPaymentMethod)
	if err != nil {
		if errors.Is(err, ErrNoWalletAvailable) {
			utils.BuildErrorResponse(w, http.StatusNotFound, "No wallet available for this company / amount", nil)
			return
		}
		logger.Error("Wallet selection failed", logger.Fields{
			logger.CompanyIDKey: comp.ID.String(),
			logger.ErrorKey:     err.Error(),
		})
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to select wallet", nil)
		return
	}

	// A wallet can stay active while its channel is deactivated, so the
	// channel is re-checked on every request rather than cached.
	channel, err := h.Channels.FindChannelByID(selected.ChannelID.String())
	if err != nil || !channel.IsActive {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Wallet channel is not available", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet selected", map[string]interface{}{
		"wallet_id":         selected.ID,
		"wallet_identifier": selected.WalletIdentifier,
		"wallet_label":      selected.WalletLabel,
		"channel_id":        channel.ID,
		"channel_api_key":   channel.ChannelAPIKey,
	})
}

// AdminUsage exposes both usage representations for one wallet: the
// authoritative counter and the same-day payment sum derived from the
// payments table. Divergence here means a charge was lost or double-applied.
func (h *Handler) AdminUsage(w http.ResponseWriter, r *http.Request) {
	walletID := mux.Vars(r)["id"]
	if _, err := id.Parse(walletID); err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid wallet id", nil)
		return
	}

	wal, err := h.Repo.GetByID(walletID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			utils.BuildErrorResponse(w, http.StatusNotFound, "Wallet not found", nil)
			return
		}
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to load wallet", nil)
		return
	}

	derived, err := h.Repo.SumPaymentsToday(walletID)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to compute usage", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Wallet usage", map[string]interface{}{
		"wallet_id":         wal.ID,
		"daily_limit":       wal.DailyLimit,
		"used_today":        wal.UsedToday,
		"last_reset_date":   wal.LastResetDate,
		"derived_sum_today": derived,
	})
}
