package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"makemybill/m/domain"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

const minPasswordLength = 6

type authClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(user domain.User) (string, error) {
	now := h.clock.Now()
	claims := authClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Kind: domain.KindUnauthorized})
			return
		}
		tokenString := strings.TrimSpace(header[len("bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		}, jwt.WithTimeFunc(h.clock.Now))
		if err != nil || !token.Valid {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token", Kind: domain.KindUnauthorized})
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token claims", Kind: domain.KindUnauthorized})
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user, or "" on public routes.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserID).(string)
	return id
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	for _, err := range []error{required("name", req.Name), required("email", req.Email), required("password", req.Password)} {
		if err != nil {
			h.respondDomainError(w, r, err)
			return
		}
	}
	if !strings.Contains(req.Email, "@") {
		h.respondDomainError(w, r, &domain.ValidationError{Field: "email", Err: errors.New("must be a valid address")})
		return
	}
	if len(req.Password) < minPasswordLength {
		h.respondDomainError(w, r, &domain.ValidationError{Field: "password", Err: errors.New("must be at least 6 characters")})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	user, err := h.store.Users.Create(ctx, domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         domain.RoleAdmin,
		CreatedAt:    h.clock.Now(),
	})
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to issue token")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	user, err := h.store.Users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		h.respondDomainError(w, r, domain.ErrInvalidCredential)
		return
	}
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.respondDomainError(w, r, domain.ErrInvalidCredential)
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to issue token")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
