package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// KeyFunc extracts the subject a rule counts against. An empty subject
// skips the rule for that request.
type KeyFunc func(r *http.Request) (string, error)

// RateRule is one fixed-window counter.
type RateRule struct {
	Scope string
	Limit int
	Key   KeyFunc
}

// RateLimitPolicy groups rules sharing a window. A request must pass every
// rule to reach the handler.
type RateLimitPolicy struct {
	Name   string
	Window time.Duration
	Rules  []RateRule
}

// ByClientIP counts per remote address. Run chi's RealIP first when the
// service sits behind a proxy.
func ByClientIP(r *http.Request) (string, error) {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host, nil
	}
	return r.RemoteAddr, nil
}

// ByJSONField counts per value of a top-level string field in the JSON
// body. The body is restored for the handler.
func ByJSONField(field string) KeyFunc {
	return func(r *http.Request) (string, error) {
		if r.Body == nil {
			return "", nil
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(bytes.NewReader(raw))

		var body map[string]json.RawMessage
		if json.Unmarshal(raw, &body) != nil {
			return "", nil
		}
		var value string
		if json.Unmarshal(body[field], &value) != nil {
			return "", nil
		}
		return strings.ToLower(strings.TrimSpace(value)), nil
	}
}

func (p RateLimitPolicy) key(rule RateRule, subject string) string {
	return "rl:" + rule.Scope + ":" + p.Name + ":" + subject
}

// RateLimit rejects with 429 and Retry-After once any rule's counter passes
// its limit. Counter store failures are dependency errors.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	var rules []RateRule
	for _, rule := range policy.Rules {
		if rule.Limit > 0 && rule.Key != nil {
			rules = append(rules, rule)
		}
	}
	return func(next http.Handler) http.Handler {
		if policy.Window <= 0 || len(rules) == 0 || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, rule := range rules {
				subject, err := rule.Key(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				if subject == "" {
					continue
				}
				count, err := store.IncrWithTTL(ctx, policy.key(rule, subject), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(rule.Limit) {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":   policy.Name,
							"scope":    rule.Scope,
							"subject":  subject,
							"attempts": count,
							"limit":    rule.Limit,
						}), "rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
