package middleware

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const redacted = "REDACTED"

// Query parameters that carry credentials and must never reach the access log.
var secretParams = []string{"access_token", "token", "code", "state"}

// RequestLogger is gin's access log with credentials stripped from the query.
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: redactingFormatter,
		Output:    gin.DefaultWriter,
	})
}

func redactingFormatter(param gin.LogFormatterParams) string {
	if param.Latency > time.Minute {
		param.Latency = param.Latency.Truncate(time.Second)
	}

	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		redactPath(param.Path),
		param.ErrorMessage,
	)
}

func redactPath(path string) string {
	base, rawQuery, found := strings.Cut(path, "?")
	if !found {
		return path
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		// Unparseable queries could hide a token anywhere.
		return base
	}

	for _, name := range secretParams {
		if _, ok := query[name]; ok {
			query.Set(name, redacted)
		}
	}

	return base + "?" + query.Encode()
}
