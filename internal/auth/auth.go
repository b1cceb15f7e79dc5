package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vidtube/vidtube/internal/database"
	"github.com/vidtube/vidtube/internal/httputil"
	"github.com/vidtube/vidtube/internal/validate"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	db            database.DBTX
	jwtSecret     string
	secureCookies bool
}

func NewHandler(db database.DBTX, jwtSecret string, secureCookies bool) *Handler {
	return &Handler{db: db, jwtSecret: jwtSecret, secureCookies: secureCookies}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User User `json:"user"`
	tokenResponse
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httputil.BadRequest("invalid request body")
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		return httputil.BadRequest("All fields are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return httputil.BadRequest("invalid email address")
	}
	for _, msg := range []string{
		validate.Username(req.Username),
		validate.Email(req.Email),
		validate.FullName(req.FullName),
		validate.Password(req.Password),
	} {
		if msg != "" {
			return httputil.BadRequest(msg)
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return httputil.Internal("failed to hash password", err)
	}

	user, err := ScanUser(h.db.QueryRow(r.Context(),
		`INSERT INTO users (username, email, full_name, password) VALUES ($1, $2, $3, $4) RETURNING `+UserColumns,
		req.Username, req.Email, req.FullName, string(hashedPassword),
	))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return httputil.Conflict("User with email or username already exists")
		}
		return httputil.Internal("Something went wrong while registering the user", err)
	}

	httputil.WriteData(w, http.StatusCreated, user, "User registered successfully")
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httputil.BadRequest("invalid request body")
	}

	identifier := strings.ToLower(strings.TrimSpace(req.Email))
	if identifier == "" {
		identifier = strings.ToLower(strings.TrimSpace(req.Username))
	}
	if identifier == "" {
		return httputil.BadRequest("username or email is required")
	}
	if req.Password == "" {
		return httputil.BadRequest("password is required")
	}

	var hashedPassword string
	user, err := ScanUser(h.db.QueryRow(r.Context(),
		`SELECT `+UserColumns+`, password FROM users WHERE email = $1 OR username = $1`,
		identifier,
	), &hashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.Unauthorized("invalid user credentials")
		}
		return httputil.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		return httputil.Unauthorized("invalid user credentials")
	}

	tokens, err := h.issueTokens(r.Context(), user.ID)
	if err != nil {
		return httputil.Internal("failed to generate tokens", err)
	}

	h.setTokenCookies(w, tokens)
	httputil.WriteData(w, http.StatusOK, loginResponse{User: user, tokenResponse: tokens}, "User logged in successfully")
	return nil
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) error {
	incoming := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			incoming = req.RefreshToken
		}
	}
	if incoming == "" {
		return httputil.Unauthorized("Unauthorized request")
	}

	claims, err := ValidateToken(h.jwtSecret, incoming)
	if err != nil || claims.TokenType != "refresh" || claims.ID == "" {
		return httputil.Unauthorized("Invalid refresh token")
	}

	if err := h.validateStoredRefreshToken(r.Context(), claims.UserID, claims.ID); err != nil {
		return httputil.Unauthorized("Refresh token is expired or used")
	}

	if err := h.revokeRefreshToken(r.Context(), claims.ID); err != nil {
		return httputil.Internal("failed to revoke refresh token", err)
	}

	tokens, err := h.issueTokens(r.Context(), claims.UserID)
	if err != nil {
		return httputil.Internal("failed to generate tokens", err)
	}

	h.setTokenCookies(w, tokens)
	httputil.WriteData(w, http.StatusOK, tokens, "Access token refreshed")
	return nil
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		if claims, err := ValidateToken(h.jwtSecret, cookie.Value); err == nil && claims.TokenType == "refresh" && claims.ID != "" {
			_ = h.revokeRefreshToken(r.Context(), claims.ID)
		}
	}
	h.clearTokenCookies(w)
	httputil.WriteData(w, http.StatusOK, httputil.Empty, "User logged out")
	return nil
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) error {
	userID := UserIDFromContext(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httputil.BadRequest("invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return httputil.BadRequest("oldPassword and newPassword are required")
	}
	if msg := validate.Password(req.NewPassword); msg != "" {
		return httputil.BadRequest(msg)
	}

	var hashedPassword string
	err := h.db.QueryRow(r.Context(), `SELECT password FROM users WHERE id = $1`, userID).Scan(&hashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("User does not exist")
		}
		return httputil.Internal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.OldPassword)); err != nil {
		return httputil.BadRequest("Invalid old password")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return httputil.Internal("failed to hash password", err)
	}

	if _, err := h.db.Exec(r.Context(),
		`UPDATE users SET password = $1, updated_at = now() WHERE id = $2`,
		string(newHash), userID,
	); err != nil {
		return httputil.Internal("failed to update password", err)
	}

	// Existing sessions end with the old password.
	if _, err := h.db.Exec(r.Context(),
		`UPDATE refresh_tokens SET revoked = true, revoked_at = now() WHERE user_id = $1 AND revoked = false`,
		userID,
	); err != nil {
		return httputil.Internal("failed to revoke sessions", err)
	}

	httputil.WriteData(w, http.StatusOK, httputil.Empty, "Password changed successfully")
	return nil
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, err := LoadUser(r.Context(), h.db, UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httputil.NotFound("User does not exist")
		}
		return httputil.Internal("failed to fetch user", err)
	}

	httputil.WriteData(w, http.StatusOK, user, "User fetched successfully")
	return nil
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, tokens tokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(AccessTokenDuration / time.Second),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/api/v1/users",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(RefreshTokenDuration / time.Second),
	})
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	for name, path := range map[string]string{accessTokenCookie: "/", refreshTokenCookie: "/api/v1/users"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   -1,
		})
	}
}

func (h *Handler) issueTokens(ctx context.Context, userID string) (tokenResponse, error) {
	tokenID, err := newTokenID()
	if err != nil {
		return tokenResponse{}, err
	}

	expiresAt := time.Now().Add(RefreshTokenDuration)
	if _, err := h.db.Exec(ctx,
		"INSERT INTO refresh_tokens (token_id, user_id, expires_at, revoked) VALUES ($1, $2, $3, false)",
		tokenID, userID, expiresAt,
	); err != nil {
		return tokenResponse{}, err
	}

	accessToken, err := GenerateAccessToken(h.jwtSecret, userID)
	if err != nil {
		return tokenResponse{}, err
	}

	refreshToken, err := GenerateRefreshToken(h.jwtSecret, userID, tokenID)
	if err != nil {
		return tokenResponse{}, err
	}

	return tokenResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (h *Handler) validateStoredRefreshToken(ctx context.Context, userID, tokenID string) error {
	var revoked bool
	var expiresAt time.Time
	err := h.db.QueryRow(ctx, "SELECT revoked, expires_at FROM refresh_tokens WHERE token_id = $1 AND user_id = $2", tokenID, userID).Scan(&revoked, &expiresAt)
	if err != nil {
		return err
	}
	if revoked || time.Now().After(expiresAt) {
		return errors.New("token revoked or expired")
	}
	return nil
}

func (h *Handler) revokeRefreshToken(ctx context.Context, tokenID string) error {
	_, err := h.db.Exec(ctx, "UPDATE refresh_tokens SET revoked = true, revoked_at = now() WHERE token_id = $1", tokenID)
	return err
}

func newTokenID() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
