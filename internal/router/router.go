package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"vault-backend/internal/config"
	"vault-backend/internal/handlers"
	"vault-backend/internal/middleware"
)

// corsMiddleware applies the configured origin allowlist. Environment
// overrides are already folded into the config at load time; an empty
// allowlist means allow all.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowedOrigins := cfg.CORS.AllowedOrigins
	allowAll := len(allowedOrigins) == 0
	maxAge := strconv.Itoa(cfg.CORS.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			for _, allowed := range allowedOrigins {
				if strings.TrimSpace(allowed) == origin {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Accept")
			c.Header("Access-Control-Max-Age", maxAge)
			if cfg.CORS.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter builds the HTTP routing table. The registration handler is
// optional; without a database the OTP routes are not registered.
func SetupRouter(cfg *config.Config, checkoutHandler *handlers.CheckoutHandler, registrationHandler *handlers.RegistrationHandler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg))

	router.GET("/ping", handlers.PingHandler)
	router.GET("/health", handlers.HealthCheckHandler)

	ipRestrict := middleware.NewIPRestrict(logger, cfg.Metrics.AllowedIPs)
	router.GET("/metrics", ipRestrict.Restrict(), gin.WrapH(promhttp.Handler()))

	router.GET("/get_funkit_stripe_checkout_quote", checkoutHandler.GetFunkitStripeCheckoutQuote)

	if registrationHandler != nil {
		router.POST("/get_otp", registrationHandler.GetOTP)
		router.POST("/verify_otp", registrationHandler.VerifyOTP)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return router
}
