package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"printshop/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 12 * time.Hour

type authClaimsKey struct{}

// AuthClaims holds the authenticated staff member's identity extracted from the JWT.
type AuthClaims struct {
	StaffID int
	Role    string
}

// authFromContext returns the auth claims stored in ctx, or nil.
func authFromContext(ctx context.Context) *AuthClaims {
	v, _ := ctx.Value(authClaimsKey{}).(*AuthClaims)
	return v
}

// staffID returns the caller's staff id, or 0 when the request is unauthenticated.
func staffID(r *http.Request) int {
	if c := authFromContext(r.Context()); c != nil {
		return c.StaffID
	}
	return 0
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	StaffID int    `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) signToken(staffID int, role string, now time.Time) (string, error) {
	claims := &jwtClaims{
		StaffID: staffID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func (h *Handler) parseToken(raw string) (*AuthClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.StaffID <= 0 {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &AuthClaims{StaffID: claims.StaffID, Role: claims.Role}, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth is chi middleware that validates the bearer token and injects
// AuthClaims into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		claims, err := h.parseToken(raw)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), authClaimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAPIKey checks the apikey header when an API key is configured.
func (h *Handler) RequireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("apikey")), []byte(h.apiKey)) != 1 {
			writeError(w, r, "invalid api key", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := authFromContext(r.Context()); c == nil || c.Role != core.RoleAdmin {
			writeError(w, r, "admin role required", "FORBIDDEN", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// login handles POST /api/auth/login.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, "email and password are required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	session, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	signed, err := h.signToken(session.StaffID, session.Role, time.Now())
	if err != nil {
		writeError(w, r, "token generation failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type loginResponse struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
		sessionView
	}
	writeJSON(w, loginResponse{
		Token:       signed,
		ExpiresIn:   int(tokenTTL.Seconds()),
		sessionView: sessionView{StaffID: session.StaffID, Name: session.Name, Email: session.Email, Role: session.Role},
	})
}

type sessionView struct {
	StaffID int    `json:"staff_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

// me handles GET /api/auth/me and returns the current staff member's profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	staff, err := h.svc.GetStaff(r.Context(), claims.StaffID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, sessionView{StaffID: staff.ID, Name: staff.Name, Email: staff.Email, Role: staff.Role})
}

// listStaff handles GET /api/staff (admin only).
func (h *Handler) listStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.svc.ListStaff(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"staff": staff})
}
