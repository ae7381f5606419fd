package routes

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/zjoart/go-sms-pay/internal/auth"
	"github.com/zjoart/go-sms-pay/internal/company"
	"github.com/zjoart/go-sms-pay/internal/middleware"
	"github.com/zjoart/go-sms-pay/internal/notify"
	"github.com/zjoart/go-sms-pay/internal/payment"
	"github.com/zjoart/go-sms-pay/internal/sms"
	"github.com/zjoart/go-sms-pay/internal/wallet"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/database"
	"github.com/zjoart/go-sms-pay/pkg/logger"
	"github.com/zjoart/go-sms-pay/pkg/utils"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *mux.Router, cfg config.Config, redisClient *notify.RedisClient) http.Handler {
	companyRepo := company.NewRepository(database.DB)
	walletRepo := wallet.NewRepository(database.DB)
	paymentRepo := payment.NewRepository(database.DB)

	paymentService := payment.NewService(paymentRepo, walletRepo, cfg.DefaultMaxAgeMins)

	smsHandler := sms.NewHandler(cfg, companyRepo, paymentRepo, walletRepo, redisClient)
	paymentHandler := payment.NewHandler(cfg, paymentRepo, paymentService)
	walletHandler := wallet.NewHandler(cfg, walletRepo, companyRepo)
	authHandler := auth.NewHandler(cfg)

	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.LoggingMiddleware)

	rl := middleware.NewRateLimiter(rate.Limit(20), 40)
	r.Use(rl.Limit)

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		utils.BuildSuccessResponse(w, http.StatusOK, "OK", nil)
	}).Methods("GET")

	r.HandleFunc("/incoming-sms", smsHandler.IncomingSMS).Methods("POST")

	paymentsR := r.PathPrefix("/payments").Subrouter()
	paymentsR.Use(company.APIKeyMiddleware(companyRepo))
	paymentsR.HandleFunc("/check", paymentHandler.Check).Methods("POST")
	paymentsR.HandleFunc("/match", paymentHandler.Match).Methods("POST")
	paymentsR.HandleFunc("/confirm", paymentHandler.Confirm).Methods("POST")

	walletsR := r.PathPrefix("/wallets").Subrouter()
	walletsR.Use(company.APIKeyMiddleware(companyRepo))
	walletsR.HandleFunc("/request", walletHandler.RequestWallet).Methods("POST")

	r.HandleFunc("/admin/login", authHandler.Login).Methods("POST")

	adminR := r.PathPrefix("/admin").Subrouter()
	adminR.Use(auth.JWTMiddleware(cfg))
	adminR.HandleFunc("/payments", paymentHandler.AdminList).Methods("GET")
	adminR.HandleFunc("/wallets/{id}/usage", walletHandler.AdminUsage).Methods("GET")

	if cfg.Env != "production" {

		r.HandleFunc("/swagger.yaml", func(w http.ResponseWriter, req *http.Request) {
			content, err := os.ReadFile("docs/swagger.yaml")
			if err != nil {
				logger.Error("Failed to read swagger.yaml", logger.Fields{"error": err.Error()})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			baseURL := "/"
			modifiedContent := strings.Replace(string(content), "{{BASE_URL}}", baseURL, -1)
			modifiedContent = strings.Replace(modifiedContent, "{{DEFAULT_CURRENCY}}", cfg.DefaultCurrency, -1)

			w.Header().Set("Content-Type", "application/yaml")
			w.Write([]byte(modifiedContent))
		})

		r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
			httpSwagger.URL("/swagger.yaml"),
		))
		logger.Info("Swagger documentation enabled at /swagger/index.html")
	}

	corsObj := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-API-Key"}),
	)

	return corsObj(r)
}
