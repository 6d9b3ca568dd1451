package clinictest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sgcsalud/portal/usuarios"
)

// Token lifetimes, matching the backend's simplejwt configuration.
const (
	accessTokenTTL  = 60 * time.Minute
	refreshTokenTTL = 24 * time.Hour
)

type ctxKey string

const ctxKeyUsuario ctxKey = "usuario"

// MintTokens returns a simplejwt-shaped access/refresh pair for u.
func (b *Backend) MintTokens(u usuarios.Usuario) (access, refresh string) {
	return b.mintToken(u.ID, "access", accessTokenTTL), b.mintToken(u.ID, "refresh", refreshTokenTTL)
}

// MintExpiredAccess returns an access token that is already past its exp
// claim, which is how tests drive the refresh-then-retry path.
func (b *Backend) MintExpiredAccess(u usuarios.Usuario) string {
	return b.mintToken(u.ID, "access", -time.Minute)
}

func (b *Backend) mintToken(userID int, tokenType string, ttl time.Duration) string {
	now := b.now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic("clinictest: sign token: " + err.Error())
	}
	return signed
}

// parseToken validates signature, expiry and token_type, and returns the
// subject's user id and jti.
func (b *Backend) parseToken(raw, wantType string) (userID int, jti string, ok bool) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, isHMAC := t.Method.(*jwt.SigningMethodHMAC); !isHMAC {
			return nil, jwt.ErrSignatureInvalid
		}
		return b.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}

	claims, isMap := token.Claims.(jwt.MapClaims)
	if !isMap {
		return 0, "", false
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		return 0, "", false
	}
	rawID, isNumber := claims["user_id"].(float64)
	if !isNumber {
		return 0, "", false
	}
	jti, _ = claims["jti"].(string)
	return int(rawID), jti, true
}

// requireAccessToken is the bearer-auth middleware: a missing, malformed or
// expired token yields the simplejwt 401 body the real backend sends.
func (b *Backend) requireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Las credenciales de autenticación no se proveyeron.",
			})
			return
		}

		userID, _, ok := b.parseToken(parts[1], "access")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "El token dado no es válido para ningún tipo de token",
				"code":   "token_not_valid",
			})
			return
		}

		b.mu.Lock()
		c := b.cuentaPorID(userID)
		b.mu.Unlock()
		if c == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Usuario no encontrado"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUsuario, c.usuario)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUsuario(r *http.Request) usuarios.Usuario {
	u, _ := r.Context().Value(ctxKeyUsuario).(usuarios.Usuario)
	return u
}
