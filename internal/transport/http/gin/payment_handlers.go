package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BlackAll2225/ZenoBus-sub000/internal/service"
	"github.com/BlackAll2225/ZenoBus-sub000/internal/service/payment"
)

// @Summary  Payment gateway webhook
// @Description  Applies an asynchronous payment notification. Only a bad
// @Description  signature is rejected; every other failure is acknowledged
// @Description  with 200 so the gateway stops retrying, and logged for
// @Description  reconciliation.
// @Param    payload  body  payment.WebhookPayload  true  "signed notification"
// @Success  200  {object}  map[string]bool
// @Failure  400  {object}  ErrorResponse  "invalid signature or malformed body"
// @Router   /payments/webhook [post]
func handlePaymentWebhook(svcs *service.Services, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p payment.WebhookPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			badRequest(c, "malformed payload")
			return
		}

		err := svcs.Payment.HandleWebhook(c.Request.Context(), p)
		if err != nil {
			if errors.Is(err, payment.ErrInvalidSignature) {
				respondErr(c, err)
				return
			}
			// Acknowledge anyway; a retry would hit the same terminal outcome.
			logger.Warn("webhook not applied",
				slog.Int64("order_code", p.Data.OrderCode),
				slog.String("status", p.Data.Status),
				slog.String("error", err.Error()),
			)
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// handlePaymentCallback serves the browser redirect after checkout. The
// gateway appends orderCode (and sometimes status / paymentRequestId) as query
// parameters. Applying is best-effort: whatever happens, the user lands on the
// configured frontend page and the webhook settles the final state.
func handlePaymentCallback(
	svcs *service.Services,
	logger *slog.Logger,
	redirectURL string,
	defaultStatus string,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderCode, err := strconv.ParseInt(c.Query("orderCode"), 10, 64)
		if err == nil {
			status := c.Query("status")
			if status == "" {
				status = defaultStatus
			}

			if err := svcs.Payment.HandleReturnCallback(
				c.Request.Context(),
				orderCode,
				status,
				c.Query("paymentRequestId"),
			); err != nil {
				logger.Warn("payment callback not applied",
					slog.Int64("order_code", orderCode),
					slog.String("status", status),
					slog.String("error", err.Error()),
				)
			}
		}

		target := redirectURL
		if err == nil {
			target += "?orderCode=" + strconv.FormatInt(orderCode, 10)
		}
		c.Redirect(http.StatusFound, target)
	}
}
