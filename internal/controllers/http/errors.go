package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sadhef/Ri-carts-sub001/internal/domain"
)

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:        http.StatusBadRequest,
	domain.CodeProductNotFound:   http.StatusNotFound,
	domain.CodeInsufficientStock: http.StatusConflict,
	domain.CodePriceMismatch:     http.StatusConflict,
	domain.CodeTotalMismatch:     http.StatusBadRequest,
	domain.CodeOrderNotFound:     http.StatusNotFound,
	domain.CodeUnauthorized:      http.StatusUnauthorized,
	domain.CodeForbidden:         http.StatusForbidden,
	domain.CodeInvalidTransition: http.StatusConflict,
	domain.CodeAlreadyPaid:       http.StatusConflict,
	domain.CodeAlreadyRefunded:   http.StatusConflict,
	domain.CodeInvalidAmount:     http.StatusBadRequest,
	domain.CodeSignatureMismatch: http.StatusBadRequest,
	domain.CodePaymentProvider:   http.StatusBadGateway,
	domain.CodeRefundProvider:    http.StatusBadGateway,
	domain.CodeRateLimited:       http.StatusTooManyRequests,
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	status, known := statusByCode[code]
	if !known {
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("internal error")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
		return
	}

	if status >= http.StatusInternalServerError {
		log.Warn().Err(err).Str("path", c.FullPath()).Str("code", string(code)).Msg("upstream failure")
	}
	c.JSON(status, errorResponse{Error: err.Error(), Code: string(code)})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: string(domain.CodeValidation)})
}
