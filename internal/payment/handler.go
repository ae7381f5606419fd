package payment

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/utils"
)

type Handler struct {
	Config  config.Config
	Repo    Repository
	Service *Service
}

func NewHandler(cfg config.Config, repo Repository, service *Service) *Handler {
	return &Handler{Config: cfg, Repo: repo, Service: service}
}

type CheckRequest struct {
	OrderID        string  `json:"order_id"`
	ExpectedAmount float64 `json:"expected_amount"`
	TxnID          string  `json:"txn_id,omitempty"`
	MaxAgeMinutes  int     `json:"max_age_minutes,omitempty"`
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	comp, ok := company.CompanyFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req CheckRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.OrderID == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "order_id is required", nil)
		return
	}
	if req.ExpectedAmount <= 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "expected_amount must be positive", nil)
		return
	}

	result, err := h.Service.Check(comp.ID.String(), req.OrderID, req.ExpectedAmount, req.TxnID, req.MaxAgeMinutes)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Payment check failed", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Payment check", result)
}

type MatchRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	PayerPhone    string  `json:"payer_phone,omitempty"`
	MaxAgeMinutes int     `json:"max_age_minutes,omitempty"`
}

// Match is the legacy read-only lookup older merchant clients still call; it
// reports whether a deposit is waiting without starting the confirm flow.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	comp, ok := company.CompanyFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req MatchRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.Amount <= 0 {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	if req.Currency == "" {
		req.Currency = h.Config.DefaultCurrency
	}

	result, err := h.Service.Match(comp.ID.String(), req.Amount, req.Currency, req.PayerPhone, req.MaxAgeMinutes)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Payment match failed", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Payment match", result)
}

type ConfirmRequest struct {
	PaymentID    string `json:"payment_id"`
	ConfirmToken string `json:"confirm_token"`
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	comp, ok := company.CompanyFromContext(r.Context())
	if !ok {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req ConfirmRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if req.PaymentID == "" || req.ConfirmToken == "" {
		utils.BuildErrorResponse(w, http.StatusBadRequest, "payment_id and confirm_token are required", nil)
		return
	}

	result, err := h.Service.Confirm(comp.ID.String(), req.PaymentID, req.ConfirmToken)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			utils.BuildErrorResponse(w, http.StatusBadRequest, "Invalid payment_id or confirm_token", nil)
			return
		}
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Payment confirmation failed", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Payment confirmation", result)
}

// AdminList is the operator view over payments, filtered via ListFilter and
// paginated 1-indexed.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	pageSize, offset, page := utils.GetPaginationDetails(r)

	items, total, err := h.Repo.List(filter, pageSize, offset)
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to list payments", nil)
		return
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	utils.BuildSuccessResponse(w, http.StatusOK, "Payments", map[string]interface{}{
		"items": items,
		"meta": map[string]interface{}{
			"total_items":  total,
			"total_pages":  totalPages,
			"current_page": page,
			"page_size":    pageSize,
		},
	})
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{
		Status:      Status(q.Get("status")),
		CompanyID:   q.Get("company_id"),
		ChannelID:   q.Get("channel_id"),
		WalletID:    q.Get("wallet_id"),
		TxnIDSubstr: q.Get("txn_id"),
	}

	if v := q.Get("min_amount"); v != "" {
		f, err := parseAmount(v)
		if err != nil {
			return ListFilter{}, errors.New("invalid min_amount")
		}
		filter.MinAmount = &f
	}
	if v := q.Get("max_amount"); v != "" {
		f, err := parseAmount(v)
		if err != nil {
			return ListFilter{}, errors.New("invalid max_amount")
		}
		filter.MaxAmount = &f
	}
	if v := q.Get("created_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("invalid created_from, expected RFC3339")
		}
		filter.CreatedFrom = &t
	}
	if v := q.Get("created_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("invalid created_to, expected RFC3339")
		}
		filter.CreatedTo = &t
	}

	return filter, nil
}

func parseAmount(v string) (float64, error) {
	return strconv.ParseFloat(v, 64)
}
