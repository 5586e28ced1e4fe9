package middleware

import (
	"context"
	"net/http"
	"strings"

	"lot-auction/internal/domain"

	"github.com/labstack/echo/v4"
)

type contextKey string

const callerCtxKey contextKey = "caller"

// TokenParser turns a bearer token into the caller it names.
type TokenParser interface {
	Parse(token string) (domain.Caller, error)
}

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey, caller)
}

// CallerFrom returns the caller stored by the middleware, or a guest.
func CallerFrom(ctx context.Context) domain.Caller {
	if caller, ok := ctx.Value(callerCtxKey).(domain.Caller); ok {
		return caller
	}
	return domain.Guest()
}

// resolve reads the Authorization header. No header means a guest; a header
// that does not carry a valid bearer token is an error.
func resolve(parser TokenParser, header string) (domain.Caller, bool) {
	if header == "" {
		return domain.Guest(), true
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return domain.Caller{}, false
	}
	caller, err := parser.Parse(strings.TrimSpace(token))
	if err != nil {
		return domain.Caller{}, false
	}
	return caller, true
}

// Caller is the net/http form used by the mux router.
func Caller(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := resolve(parser, r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"status":401,"message":"invalid token"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// EchoCaller is the echo form of Caller.
func EchoCaller(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := resolve(parser, c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"status":  http.StatusUnauthorized,
					"message": "invalid token",
				})
			}
			req := c.Request()
			c.SetRequest(req.WithContext(WithCaller(req.Context(), caller)))
			return next(c)
		}
	}
}
