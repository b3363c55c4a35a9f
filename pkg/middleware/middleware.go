// Package middleware 提供查询接口的 Gin 通用中间件（访问日志、trace 注入）
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wyfcoding/papertrading/pkg/logger"
)

// TraceHeader 上游传入的 trace 头，缺省时本地生成
const TraceHeader = "X-Trace-ID"

// GinLogging 访问日志中间件。
// 把 trace_id 注入请求 context，后续 handler 与仓储日志自动携带。
func GinLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.WithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		c.Next()

		logger.Info(ctx, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
