// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"stock_trader/internal/feature/auth/domain"
	"stock_trader/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
	// refreshTokenBytes はリフレッシュトークンの乱数バイト数です（hexで64文字）。
	refreshTokenBytes = 32
	// dummyPasswordHash は存在しないユーザーのログイン時にも比較を行うためのハッシュです。
	dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化し、IDと作成日時を設定します。
	// 同じメールアドレスのユーザーが既に存在する場合、domain.ErrUserAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// UpdateRiskProfile はユーザーのリスク許容度を更新します。
	UpdateRiskProfile(ctx context.Context, id uint, profile entity.RiskProfile) error
}

// TokenGenerator はアクセストークン生成のインターフェースを定義します。
type TokenGenerator interface {
	GenerateToken(userID uint, username string) (string, error)
}

// Config はトークンの有効期限とセッション数の上限を保持します。
type Config struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	MaxSessions int
	// InitialBalance は新規ユーザーの初期残高です。
	InitialBalance decimal.Decimal
}

// DefaultMaxSessions はユーザーあたりの有効セッション数の上限です。
const DefaultMaxSessions = 5

// SignupInput は新規登録の入力です。
type SignupInput struct {
	Username    string
	Email       string
	Password    string
	RiskProfile string
}

// ClientInfo はセッションに記録する接続元情報です。
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// TokenPair はログイン・リフレッシュの結果です。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         *entity.User
}

// AuthUsecase は認証ビジネスロジックを実装します。
type AuthUsecase struct {
	users    UserRepository
	sessions SessionRepository
	tokens   TokenGenerator
	cfg      Config

	now      func() time.Time
	newToken func() (string, error)
}

// NewAuthUsecase はAuthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, tokens TokenGenerator, cfg Config) *AuthUsecase {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &AuthUsecase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		cfg:      cfg,
		now:      time.Now,
		newToken: randomToken,
	}
}

func randomToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録します。
// ユーザー名が空の場合はメールアドレスのローカル部を使います。
func (u *AuthUsecase) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	profile, ok := entity.ParseRiskProfile(in.RiskProfile)
	if !ok {
		return nil, domain.ErrInvalidRiskProfile
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		RiskProfile:  profile,
		Balance:      u.cfg.InitialBalance,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login はユーザーを認証し、アクセストークンとリフレッシュトークンを発行します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *AuthUsecase) Login(ctx context.Context, email, password string, client ClientInfo) (*TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	passwordHash := dummyPasswordHash
	if err == nil {
		passwordHash = user.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return u.issue(ctx, user, client)
}

// Refresh はリフレッシュトークンをローテーションし、新しいトークンペアを発行します。
// 失効済みトークンが再利用された場合は、そのユーザーの全セッションを失効させます。
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	session, err := u.sessions.FindByID(ctx, refreshToken)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session.IsRevoked() {
		slog.Warn("revoked refresh token reused, revoking all sessions", "user_id", session.UserID)
		if err := u.sessions.RevokeAllByUserID(ctx, session.UserID); err != nil {
			slog.Error("failed to revoke sessions", "error", err, "user_id", session.UserID)
		}
		return nil, ErrSessionRevoked
	}
	if session.IsExpired(u.now()) {
		return nil, ErrSessionExpired
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return u.issue(ctx, user, client)
}

// Logout はリフレッシュトークンを失効させます。既に存在しないトークンはエラーにしません。
func (u *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	err := u.sessions.Revoke(ctx, refreshToken)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// Me は認証済みユーザーの情報を返します。
func (u *AuthUsecase) Me(ctx context.Context, userID uint) (*entity.User, error) {
	return u.users.FindByID(ctx, userID)
}

// UpdateRiskProfile はユーザーのリスク許容度を変更し、更新後のユーザーを返します。
func (u *AuthUsecase) UpdateRiskProfile(ctx context.Context, userID uint, raw string) (*entity.User, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrInvalidRiskProfile
	}
	profile, ok := entity.ParseRiskProfile(raw)
	if !ok {
		return nil, domain.ErrInvalidRiskProfile
	}
	if err := u.users.UpdateRiskProfile(ctx, userID, profile); err != nil {
		return nil, err
	}
	return u.users.FindByID(ctx, userID)
}

// CleanupSessions は期限切れのセッションを削除します。スケジューラから定期的に呼ばれます。
func (u *AuthUsecase) CleanupSessions(ctx context.Context) (int64, error) {
	return u.sessions.DeleteExpired(ctx)
}

// issue はセッション上限を超えないよう古いセッションを削除してから新しいトークンを発行します。
func (u *AuthUsecase) issue(ctx context.Context, user *entity.User, client ClientInfo) (*TokenPair, error) {
	access, err := u.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	count, err := u.sessions.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	for ; count >= int64(u.cfg.MaxSessions); count-- {
		if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("evict session: %w", err)
		}
	}

	refresh, err := u.newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := u.now()
	session := &entity.Session{
		ID:        refresh,
		UserID:    user.ID,
		UserAgent: truncate(client.UserAgent, 512),
		IPAddress: truncate(client.IPAddress, 45),
		CreatedAt: now,
		ExpiresAt: now.Add(u.cfg.RefreshTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    u.cfg.AccessTTL,
		User:         user,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
