package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eventhub/logger"
)

type QuotaRule struct {
	Limit  int                       // requests allowed per window
	Window time.Duration             // window length, fixed from the first request
	KeyFn  func(*gin.Context) string // empty key skips the quota
}

// DailyUserQuota counts requests per authenticated user per day.
func DailyUserQuota(limit int) QuotaRule {
	return QuotaRule{
		Limit:  limit,
		Window: 24 * time.Hour,
		KeyFn: func(c *gin.Context) string {
			uid := c.GetString(CtxUserID)
			if uid == "" {
				return ""
			}
			return "quota:user:" + uid + ":day"
		},
	}
}

// Quota enforces rule with a Redis counter. When Redis is unavailable the
// request is let through.
func Quota(rdb *redis.Client, rule QuotaRule, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(c *gin.Context) {
		key := rule.KeyFn(c)
		if key == "" || rdb == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("quota check skipped", slog.String("key", key), logger.Err(err))
			c.Next()
			return
		}
		// first hit opens the window
		if n == 1 {
			if err := rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
				log.Warn("quota window not set", slog.String("key", key), logger.Err(err))
			}
		}
		if int(n) > rule.Limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Usage quota exceeded. Please try again later.",
			})
			return
		}
		c.Header("X-Quota-Used", fmt.Sprintf("%d/%d", n, rule.Limit))
		c.Next()
	}
}
