package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/apperror"
)

var errInvalidBody = apperror.Validation("Invalid request body")

// respondError renders err as a ParsedError. Network failures have no HTTP
// status of their own and are reported as 502.
func respondError(c *gin.Context, logger *zap.Logger, err error, context string) {
	parsed := apperror.Parse(err, apperror.Options{Context: context, Logger: logger})
	status := parsed.StatusCode
	if status == 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, parsed)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
