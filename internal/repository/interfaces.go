// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/miniblog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDを返す。
	// ユーザー名が既に存在する場合はmodel.ErrDuplicateUsernameを返す。
	// 重複はストアのUNIQUE制約違反から検出する。事前チェックは競合するため行わない。
	Create(ctx context.Context, username, passwordHash string) (int64, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// UpdateCredentials はユーザー名と、newPasswordHashが非nilの場合のみパスワードハッシュを更新する。
	// ユーザー名が既に存在する場合はmodel.ErrDuplicateUsernameを返す。
	UpdateCredentials(ctx context.Context, id int64, newUsername string, newPasswordHash *string) error

	// Delete は指定IDのユーザーを削除する。
	// 行が存在しない場合はmodel.ErrNotFoundを返す。
	Delete(ctx context.Context, id int64) error
}

// PostRepository は記事データの永続化インターフェース。
type PostRepository interface {
	// Create は記事を作成し、採番されたIDを返す。
	Create(ctx context.Context, title, content string, userID int64) (int64, error)

	// ListWithAuthor は全記事を作成者ユーザー名付きで新しい順に返す。
	ListWithAuthor(ctx context.Context) ([]model.PostWithAuthor, error)

	// FindByID は指定IDの記事を作成者ユーザー名付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error)

	// Search はタイトルまたは本文が部分一致する記事を新しい順に返す。
	Search(ctx context.Context, query string) ([]model.PostWithAuthor, error)
}

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成し、採番されたIDを返す。
	// 参照先の記事が存在しない場合はmodel.ErrNotFoundを返す。
	Create(ctx context.Context, postID int64, content, authorName string) (int64, error)

	// ListByPostID は指定記事のコメントを古い順に返す。
	ListByPostID(ctx context.Context, postID int64) ([]model.Comment, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。期限切れまたは未存在の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// UpdateSnapshot はセッションに埋め込まれたユーザー名スナップショットを更新する。
	UpdateSnapshot(ctx context.Context, id string, username string) error

	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error

	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
