// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_trader/internal/api"
	"stock_trader/internal/feature/auth/domain"
	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
	jwtmw "stock_trader/internal/platform/jwt"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Signup(ctx context.Context, in usecase.SignupInput) (*entity.User, error)
	Login(ctx context.Context, email, password string, client usecase.ClientInfo) (*usecase.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string, client usecase.ClientInfo) (*usecase.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uint) (*entity.User, error)
	UpdateRiskProfile(ctx context.Context, userID uint, profile string) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func clientInfo(c *gin.Context) usecase.ClientInfo {
	return usecase.ClientInfo{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時は201を返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req api.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	user, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		RiskProfile: req.RiskProfile,
	})
	switch {
	case errors.Is(err, domain.ErrWeakPassword), errors.Is(err, domain.ErrInvalidRiskProfile):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrUserAlreadyExists):
		slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "signup failed"})
		return
	case err != nil:
		slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusCreated, api.MessageResponse{Message: "ok"})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 認証失敗時は存在しないユーザーかパスワード誤りかを区別せず401を返します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if errors.Is(err, domain.ErrInvalidCredentials) {
		slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid email or password"})
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Info("user login successful", "user_id", pair.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, toTokenResponse(pair))
}

// Refresh はリフレッシュトークンをローテーションします。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, clientInfo(c))
	switch {
	case errors.Is(err, usecase.ErrInvalidRefreshToken),
		errors.Is(err, usecase.ErrSessionRevoked),
		errors.Is(err, usecase.ErrSessionExpired),
		errors.Is(err, domain.ErrUserNotFound):
		slog.Warn("refresh rejected", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid refresh token"})
		return
	case err != nil:
		slog.Error("refresh failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(pair))
}

// Logout はリフレッシュトークンを失効させます。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req api.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		slog.Error("logout failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}

// Me は認証済みユーザーの情報を返します。
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	user, err := h.auth.Me(c.Request.Context(), userID)
	h.writeUser(c, user, err)
}

// UpdateRiskProfile はリスク許容度を変更します。
func (h *AuthHandler) UpdateRiskProfile(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	var req api.RiskProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	user, err := h.auth.UpdateRiskProfile(c.Request.Context(), userID, req.RiskProfile)
	if errors.Is(err, domain.ErrInvalidRiskProfile) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	h.writeUser(c, user, err)
}

func (h *AuthHandler) writeUser(c *gin.Context, user *entity.User, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
		return
	}
	if err != nil {
		slog.Error("user lookup failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *entity.User) api.UserResponse {
	return api.UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		RiskProfile: string(u.RiskProfile),
		Balance:     u.Balance.InexactFloat64(),
	}
}

func toTokenResponse(p *usecase.TokenPair) api.TokenResponse {
	return api.TokenResponse{
		Token:        p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
		User:         toUserResponse(p.User),
	}
}
