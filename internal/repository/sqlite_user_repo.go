package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/miniblog/internal/model"
)

// SQLiteUserRepo はSQLiteを使用したユーザーリポジトリ。
type SQLiteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo はSQLiteUserRepoを生成する。
func NewSQLiteUserRepo(db *sql.DB) *SQLiteUserRepo {
	return &SQLiteUserRepo{db: db}
}

// Create はユーザーを作成し、採番されたIDを返す。
// ユーザー名が既に存在する場合はmodel.ErrDuplicateUsernameを返す。
func (r *SQLiteUserRepo) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return 0, model.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted user ID: %w", err)
	}
	return id, nil
}

// FindByUsername は指定ユーザー名のユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLiteUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLiteUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// UpdateCredentials はユーザー名と、newPasswordHashが非nilの場合のみパスワードハッシュを更新する。
// パスワード未指定時は既存ハッシュを維持する条件付き更新であり、全フィールド上書きではない。
func (r *SQLiteUserRepo) UpdateCredentials(ctx context.Context, id int64, newUsername string, newPasswordHash *string) error {
	var err error
	if newPasswordHash != nil {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET username = ?, password_hash = ? WHERE id = ?`,
			newUsername, *newPasswordHash, id,
		)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET username = ? WHERE id = ?`,
			newUsername, id,
		)
	}

	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return model.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to update credentials: %w", err)
	}

	return nil
}

// Delete は指定IDのユーザーを削除する。行が存在しない場合はmodel.ErrNotFoundを返す。
func (r *SQLiteUserRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// isUniqueViolation はSQLiteのUNIQUE制約違反かどうかを判定する。
// go-sqlite3はcgoビルドに依存せず判定できる型を公開していないため、
// エラーメッセージの制約名で判定する。
func isUniqueViolation(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+constraint)
}

// compile-time interface check
var _ UserRepository = (*SQLiteUserRepo)(nil)
