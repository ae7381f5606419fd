package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

type Handler struct {
	Config config.Config
}

func NewHandler(cfg config.Config) *Handler {
	return &Handler{Config: cfg}
}

type LoginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the operator password for a short-lived JWT used on the
// admin routes.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if status, err := utils.DecodeJSONBody(w, r, &req); err != nil {
		utils.BuildErrorResponse(w, status, "Invalid request", map[string]string{"error": err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.Config.AdminPasswordHash), []byte(req.Password)); err != nil {
		utils.BuildErrorResponse(w, http.StatusUnauthorized, "Invalid password", nil)
		return
	}

	claims := jwt.MapClaims{
		utils.SubjectKey: adminSubject,
		utils.ExpKey:     time.Now().Add(12 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.Config.JWTSecret))
	if err != nil {
		utils.BuildErrorResponse(w, http.StatusInternalServerError, "Failed to issue token", nil)
		return
	}

	utils.BuildSuccessResponse(w, http.StatusOK, "Logged in", map[string]interface{}{
		"token": signed,
	})
}
