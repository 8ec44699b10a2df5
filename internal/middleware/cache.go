package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-catalog/internal/config"
)

// captureWriter tees the response body while forwarding it to the client.
// Bytes past limit are forwarded but not kept; overflowed marks that case.
type captureWriter struct {
	http.ResponseWriter
	buf        bytes.Buffer
	limit      int
	overflowed bool
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflowed {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflowed = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// GenerationKey holds the counter bumped by every successful write.
func GenerationKey(prefix string) string { return prefix + ":gen" }

// cacheKey namespaces entries by generation so a write invalidates every
// cached list at once without scanning keys.
func cacheKey(prefix, gen, method, path, rawQuery string) string {
	sum := sha1.Sum([]byte(method + " " + path + "?" + rawQuery))
	return fmt.Sprintf("%s:g%s:%x", prefix, gen, sum[:])
}

// cachedHeaders are the response headers replayed on a hit.
var cachedHeaders = []string{echo.HeaderContentType}

// encodePayload packs [4 bytes status][4 bytes headerLen][headerJSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache serves GET responses from Redis and bumps the generation
// counter after any other request that succeeds, so reads issued after a
// write never see stale data. Redis failures degrade to no caching.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	genKey := GenerationKey(cfg.Prefix)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			if req.Method != http.MethodGet {
				if err := next(c); err != nil {
					return err
				}
				if s := c.Response().Status; s >= 200 && s < 300 {
					if err := rdb.Incr(ctx, genKey).Err(); err != nil {
						c.Logger().Warnf("cache: bump generation: %v", err)
					}
				}
				return nil
			}

			gen, err := rdb.Get(ctx, genKey).Result()
			switch {
			case err == redis.Nil:
				gen = "0"
			case err != nil:
				c.Logger().Warnf("cache: read generation: %v", err)
				return next(c)
			}
			key := cacheKey(cfg.Prefix, gen, req.Method, req.URL.Path, req.URL.RawQuery)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					_, err := c.Response().Write(body)
					return err
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if c.Response().Status != http.StatusOK || cw.overflowed {
				return nil
			}
			hdr := make(http.Header, len(cachedHeaders))
			for _, k := range cachedHeaders {
				if v := c.Response().Header().Get(k); v != "" {
					hdr.Set(k, v)
				}
			}
			payload, err := encodePayload(http.StatusOK, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			// the request context may already be cancelled by now
			if err := rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				c.Logger().Warnf("cache: store %s: %v", strings.TrimPrefix(key, cfg.Prefix+":"), err)
			}
			return nil
		}
	}
}
