package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"minishop-gateway/internal/apiclient"
	"minishop-gateway/internal/domain"
)

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	var reqErr *domain.RequestError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "logout": true})
	case errors.Is(err, domain.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "store not found", "code": "store_not_found"})
	case errors.Is(err, domain.ErrShopMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": "shop not created", "code": "shop_missing"})
	case errors.As(err, &reqErr):
		c.JSON(reqErr.Status, gin.H{"error": reqErr.Message})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict, retry"})
	case errors.Is(err, apiclient.ErrUnavailable):
		logger.Warn("upstream unavailable", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
	default:
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
