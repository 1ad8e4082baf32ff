package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"anime-forge-api/pkg/metrics"
)

// Metrics 按路由模板记录请求数、耗时与报文大小；websocket 长连接只计数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		if isWebSocket(c) {
			return
		}

		metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if n := c.Request.ContentLength; n > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, route).Observe(float64(n))
		}
		if n := c.Writer.Size(); n > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(n))
		}
	}
}
