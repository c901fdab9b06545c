// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/ratelimit"
	"github.com/examgate/examgate/internal/platform/respond"
)

// KeyFunc derives the rate-limit bucket key for a request.
type KeyFunc func(request *http.Request) string

// IPKey buckets by client IP under the given prefix.
func IPKey(prefix string) KeyFunc {
	return func(request *http.Request) string {
		return prefix + RealIP(request)
	}
}

// CredentialKey buckets authentication attempts by client IP plus the
// submitted credential, so one IP attacking many accounts and one account
// probed from many IPs both show up as distinct buckets filling fast.
// The JSON body is restored for the downstream handler.
//
// Requests without a readable credential share one fallback bucket per IP
// rather than bypassing the limit.
func CredentialKey(prefix, field string) KeyFunc {
	return func(request *http.Request) string {
		credential := constants.CredentialFallbackKey

		if request.Body != nil {
			raw, err := io.ReadAll(request.Body)
			_ = request.Body.Close()
			request.Body = io.NopCloser(bytes.NewReader(raw))

			if err == nil {
				var payload map[string]json.RawMessage
				if json.Unmarshal(raw, &payload) == nil {
					var value string
					if json.Unmarshal(payload[field], &value) == nil && value != "" {
						credential = strings.ToLower(strings.TrimSpace(value))
					}
				}
			}
		}

		return prefix + RealIP(request) + ":" + credential
	}
}

// WindowLimit enforces a fixed-window policy keyed by keyFunc.
//
// # Failure posture
//
// A counter-store error (Redis down, network blip) logs a warning and admits
// the request; the throughput guard still caps raw request volume.
func WindowLimit(limiter *ratelimit.Limiter, keyFunc KeyFunc, sink audit.Sink, responder *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key := keyFunc(request)

			decision, err := limiter.Check(request.Context(), key)
			if err != nil {
				ctxutil.GetLogger(request.Context()).Warn("rate limit check failed, allowing request",
					"key", key,
					"error", err,
				)
				next.ServeHTTP(writer, request)
				return
			}

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				sink.Emit(request.Context(), audit.Event{
					Category:  audit.CategoryRateLimited,
					IP:        RealIP(request),
					Path:      request.URL.Path,
					UserAgent: request.UserAgent(),
					Timestamp: time.Now().UTC(),
					Detail:    key,
				})

				responder.Error(writer, request, apperr.RateLimited(limiter.Policy().Message, retryAfter))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// SlowDown adds an escalating delay once a bucket passes a soft threshold,
// taxing brute-force clients without the hard cutoff of WindowLimit.
//
// The delay for the nth request over the threshold is n*step, capped at max.
// Counting reuses the same fixed-window counter machinery as WindowLimit but
// against its own key space, so the two stages never interfere.
type SlowDown struct {
	counter ratelimit.Counter
	window  time.Duration
	after   int64
	step    time.Duration
	max     time.Duration
}

// NewSlowDown builds the delay stage. after is the request count within the
// window at which delays begin.
func NewSlowDown(counter ratelimit.Counter, window time.Duration, after int64, step, max time.Duration) *SlowDown {
	return &SlowDown{counter: counter, window: window, after: after, step: step, max: max}
}

// Throttle delays requests beyond the threshold. The sleep honors request
// cancellation so a disconnected client does not pin a goroutine.
func (s *SlowDown) Throttle(keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			count, _, err := s.counter.Incr(request.Context(), keyFunc(request), s.window)
			if err != nil || count <= s.after {
				next.ServeHTTP(writer, request)
				return
			}

			delay := time.Duration(count-s.after) * s.step
			if delay > s.max {
				delay = s.max
			}

			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-request.Context().Done():
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
