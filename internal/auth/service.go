// Package auth は登録・ログイン・セッションライフサイクルのドメインロジックを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/repository"
)

// ErrInvalidCredentials は認証失敗を表す。
// ユーザー不在とパスワード不一致のどちらでも同一のエラーを返し、
// ユーザー名の列挙を防ぐ。
var ErrInvalidCredentials = errors.New("invalid username or password")

// decoyPlaintext はダミーハッシュの生成に使う固定平文。値自体に意味はない。
// 起動時に設定済みコストでハッシュ化することで、ユーザー不在時の照合コストを
// 実在ユーザーの照合コストと一致させる。固定コストのハッシュを埋め込むと
// 設定コストとずれて応答時間からユーザーの有無を推測できてしまう。
const decoyPlaintext = "miniblog-decoy-credential"

// fallbackDecoyHash はダミーハッシュの生成に失敗した場合の予備。
const fallbackDecoyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードをハッシュ化する。失敗するのは内部エラーの場合のみ。
	Hash(plaintext string) (string, error)
	// Verify は平文パスワードを保存済みハッシュと照合する。不一致はfalse。
	Verify(plaintext, hash string) bool
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	config      ServiceConfig
	decoyHash   string
}

// NewService はServiceを生成する。
// ユーザー不在時に照合するダミーハッシュをこの時点で生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	config ServiceConfig,
) *Service {
	decoy, err := hasher.Hash(decoyPlaintext)
	if err != nil {
		decoy = fallbackDecoyHash
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
		decoyHash:   decoy,
	}
}

// Register は新規ユーザーを登録し、採番されたIDを返す。
// 入力検証はストア呼び出しの前に行い、最初に失敗したルールのみを報告する。
// 登録成功してもセッションは発行しない。ログインは別途行う設計。
// ユーザー名重複はストアのUNIQUE制約違反から検出し、model.ErrDuplicateUsernameを返す。
func (s *Service) Register(ctx context.Context, username, plainPassword string) (int64, error) {
	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if err := validatePassword(plainPassword); err != nil {
		return 0, err
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.userRepo.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", userID),
	)

	return userID, nil
}

// Login は資格情報を検証し、認証済みセッションを発行する。
// ユーザー不在とパスワード不一致は区別せず、同一のErrInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, username, plainPassword string) (*model.Session, error) {
	if username == "" || plainPassword == "" {
		return nil, model.NewValidationError("credentials", "Username and password are required.")
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil {
		// ユーザー不在でもハッシュ検証のコストを支払う
		s.hasher.Verify(plainPassword, s.decoyHash)
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(plainPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
	)

	return session, nil
}

// Logout はセッションをストア側から削除する。
// Cookieのクリアだけでは無効化にならないため、必ずストアの行を消す。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// UpdateProfile はユーザー名と（指定時のみ）パスワードを更新する。
// newPasswordが空の場合は既存ハッシュを変更しない条件付き更新。
// 成功時はセッションのユーザー名スナップショットを必ず更新する。
// 更新しないとセッションは残存期間中ずっと古いユーザー名を表示し続ける。
func (s *Service) UpdateProfile(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error {
	if err := validateUsername(newUsername); err != nil {
		return err
	}

	var newHash *string
	if newPassword != "" {
		if err := validatePassword(newPassword); err != nil {
			return err
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		newHash = &hash
	}

	if err := s.userRepo.UpdateCredentials(ctx, userID, newUsername, newHash); err != nil {
		if errors.Is(err, model.ErrDuplicateUsername) {
			return err
		}
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	if err := s.sessionRepo.UpdateSnapshot(ctx, sessionID, newUsername); err != nil {
		return fmt.Errorf("failed to refresh session snapshot: %w", err)
	}

	slog.Info("profile updated",
		slog.Int64("user_id", userID),
	)

	return nil
}

// DeleteAccount はユーザーを削除し、そのユーザーの全セッションを破棄する。
// セッション破棄はユーザー行の削除結果に関わらず必ず実行する。
// 行が既に存在しない場合もセッションは終了させ、ストアエラーのみを報告する。
func (s *Service) DeleteAccount(ctx context.Context, userID int64) error {
	deleteErr := s.userRepo.Delete(ctx, userID)

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		slog.Error("failed to destroy sessions on account deletion",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		if deleteErr == nil {
			return fmt.Errorf("failed to destroy sessions: %w", err)
		}
	}

	if deleteErr != nil {
		if errors.Is(deleteErr, model.ErrNotFound) {
			return deleteErr
		}
		return fmt.Errorf("failed to delete user: %w", deleteErr)
	}

	slog.Info("account deleted",
		slog.Int64("user_id", userID),
	)

	return nil
}

// CurrentUser はユーザーIDからユーザーレコードを取得する。
// 見つからない場合はmodel.ErrNotFoundを返す。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrNotFound
	}
	return user, nil
}

// createSession は認証済みユーザーのセッションを作成し永続化する。
// スナップショット（id, username, role）はログイン時点の値を1回だけ書き込む。
func (s *Service) createSession(ctx context.Context, user *model.User) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validateUsername はユーザー名の入力ルールを検証する。
func validateUsername(username string) error {
	if len(username) < minUsernameLength {
		return model.NewValidationError("username",
			fmt.Sprintf("Username must be at least %d characters.", minUsernameLength))
	}
	return nil
}

// validatePassword はパスワードの入力ルールを検証する。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return model.NewValidationError("password",
			fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}
	return nil
}
