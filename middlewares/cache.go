package middlewares

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eventhub/logger"
	"eventhub/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheNamespace returns the key prefix a GET response is stored under, or ""
// to leave it uncached. Prefixes line up with utils.CacheInvalidator.
type CacheNamespace func(c *gin.Context) string

// EventListCache covers listings, which purge together on any event change.
func EventListCache() CacheNamespace {
	return func(*gin.Context) string { return utils.CacheEventsList }
}

// EventItemCache covers views of a single event addressed by the param.
func EventItemCache(param string) CacheNamespace {
	return func(c *gin.Context) string {
		id := c.Param(param)
		if id == "" {
			return ""
		}
		return utils.CacheEventItem + id + ":"
	}
}

func BlogCache() CacheNamespace {
	return func(*gin.Context) string { return utils.CacheBlogs }
}

// CacheKeyFrom builds the full key. Responses differ per viewer (like
// status), so the caller's id is part of the hash.
func CacheKeyFrom(c *gin.Context, ns CacheNamespace) string {
	if c.Request.Method != http.MethodGet {
		return ""
	}
	prefix := ns(c)
	if prefix == "" {
		return ""
	}
	viewer := c.GetString(CtxUserID)
	return prefix + sha1Hex(viewer+"|"+c.Request.URL.Path+"|"+c.Request.URL.RawQuery)
}

// ResponseCache serves 2xx GET responses from Redis for ttl. A nil client
// or a Redis error falls through to the handler.
func ResponseCache(rdb *redis.Client, ttl time.Duration, ns CacheNamespace, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(c *gin.Context) {
		if rdb == nil || ttl <= 0 {
			c.Next()
			return
		}
		key := CacheKeyFrom(c, ns)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		} else if err != nil && err != redis.Nil {
			log.Warn("cache read failed", slog.String("key", key), logger.Err(err))
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = bw
		c.Writer.Header().Set("X-Cache", "MISS")

		c.Next()

		status := bw.Status()
		if status < 200 || status >= 300 {
			return
		}
		header := make(map[string][]string)
		for k, v := range bw.Header() {
			if k == "X-Cache" || k == HeaderRequestID {
				continue
			}
			header[k] = v
		}
		var out bytes.Buffer
		if err := gob.NewEncoder(&out).Encode(cachedBody{Status: status, Header: header, Body: bw.buf.Bytes()}); err != nil {
			return
		}
		if err := rdb.Set(ctx, key, out.Bytes(), ttl).Err(); err != nil {
			log.Warn("cache write failed", slog.String("key", key), logger.Err(err))
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
