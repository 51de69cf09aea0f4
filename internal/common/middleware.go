package common

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenValidator is satisfied by *TokenManager.
type TokenValidator interface {
	ValidToken(tokenString string) (*Claims, error)
}

// bearerToken extracts <token> from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthInterceptor validates the bearer token in the "authorization" metadata and
// injects the caller identity into the context. Methods in public skip the check.
func AuthInterceptor(tokens TokenValidator, public map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if public[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		vals := md["authorization"]
		if len(vals) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization required")
		}

		tokenString, ok := bearerToken(vals[0])
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid auth header")
		}

		claims, err := tokens.ValidToken(tokenString)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(WithIdentity(ctx, claims.UserID, claims.Handle), req)
	}
}

// HTTPAuthMiddleware is the REST counterpart of AuthInterceptor.
func HTTPAuthMiddleware(tokens TokenValidator, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeUnauthorized(w, "authorization required")
				return
			}
			claims, err := tokens.ValidToken(tokenString)
			if err != nil {
				log.Debug("rejected token", zap.String("path", r.URL.Path), zap.Error(err))
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.UserID, claims.Handle)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
