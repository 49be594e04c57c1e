package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/miniblog/internal/model"
)

// SQLiteCommentRepo はSQLiteを使用したコメントリポジトリ。
type SQLiteCommentRepo struct {
	db *sql.DB
}

// NewSQLiteCommentRepo はSQLiteCommentRepoを生成する。
func NewSQLiteCommentRepo(db *sql.DB) *SQLiteCommentRepo {
	return &SQLiteCommentRepo{db: db}
}

// Create はコメントを作成し、採番されたIDを返す。
// 参照先の記事が存在しない場合は外部キー制約違反からmodel.ErrNotFoundを返す。
func (r *SQLiteCommentRepo) Create(ctx context.Context, postID int64, content, authorName string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, content, author_name) VALUES (?, ?, ?)`,
		postID, content, authorName,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return 0, model.ErrNotFound
		}
		return 0, fmt.Errorf("failed to insert comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted comment ID: %w", err)
	}
	return id, nil
}

// ListByPostID は指定記事のコメントを古い順に返す。
func (r *SQLiteCommentRepo) ListByPostID(ctx context.Context, postID int64) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, content, author_name, created_at
		 FROM comments
		 WHERE post_id = ?
		 ORDER BY created_at ASC, id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}

	return comments, nil
}

// compile-time interface check
var _ CommentRepository = (*SQLiteCommentRepo)(nil)
