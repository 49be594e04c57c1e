package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleUser は一般ユーザー。登録時のデフォルト。
	RoleUser Role = "user"
	// RoleAdmin は管理者ユーザー。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュのみを格納する。平文パスワードは保持しない。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
// IDは暗号的に安全な乱数から生成する不透明トークン。
// Username/Roleはログイン時点のスナップショットであり、
// ユーザー名変更時はハンドラーが明示的に更新する責務を持つ。
type Session struct {
	ID        string
	UserID    int64
	Username  string
	Role      Role
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Snapshot はセッションに埋め込むユーザースナップショットを表す。
// テンプレートやハンドラーに渡す最小限のユーザー情報。
type Snapshot struct {
	UserID   int64
	Username string
	Role     Role
}

// Snapshot はセッションからユーザースナップショットを取り出す。
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		UserID:   s.UserID,
		Username: s.Username,
		Role:     s.Role,
	}
}
