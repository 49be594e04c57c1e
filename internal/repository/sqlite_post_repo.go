package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/miniblog/internal/model"
)

// escapeLikePattern はLIKEパターンのメタ文字をエスケープする。
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// SQLitePostRepo はSQLiteを使用した記事リポジトリ。
type SQLitePostRepo struct {
	db *sql.DB
}

// NewSQLitePostRepo はSQLitePostRepoを生成する。
func NewSQLitePostRepo(db *sql.DB) *SQLitePostRepo {
	return &SQLitePostRepo{db: db}
}

// Create は記事を作成し、採番されたIDを返す。
func (r *SQLitePostRepo) Create(ctx context.Context, title, content string, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (title, content, user_id) VALUES (?, ?, ?)`,
		title, content, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted post ID: %w", err)
	}
	return id, nil
}

// ListWithAuthor は全記事を作成者ユーザー名付きで新しい順に返す。
// 作成者が退会済みの記事も一覧に含める（Authorは空文字列）。
func (r *SQLitePostRepo) ListWithAuthor(ctx context.Context) ([]model.PostWithAuthor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT posts.id, posts.title, posts.content, posts.user_id, posts.created_at,
		        COALESCE(users.username, '') AS author
		 FROM posts
		 LEFT JOIN users ON posts.user_id = users.id
		 ORDER BY posts.created_at DESC, posts.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	return scanPostsWithAuthor(rows)
}

// FindByID は指定IDの記事を作成者ユーザー名付きで取得する。見つからない場合はnilを返す。
func (r *SQLitePostRepo) FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	post := &model.PostWithAuthor{}
	err := r.db.QueryRowContext(ctx,
		`SELECT posts.id, posts.title, posts.content, posts.user_id, posts.created_at,
		        COALESCE(users.username, '') AS author
		 FROM posts
		 LEFT JOIN users ON posts.user_id = users.id
		 WHERE posts.id = ?`,
		id,
	).Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt, &post.Author)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post by ID: %w", err)
	}

	return post, nil
}

// Search はタイトルまたは本文が部分一致する記事を新しい順に返す。
// 検索語はLIKEパターンとしてバインドする。クエリ文字列への連結は行わない。
// 検索語に含まれる%や_はワイルドカードではなくリテラルとして扱う。
func (r *SQLitePostRepo) Search(ctx context.Context, query string) ([]model.PostWithAuthor, error) {
	pattern := "%" + escapeLikePattern(query) + "%"
	rows, err := r.db.QueryContext(ctx,
		`SELECT posts.id, posts.title, posts.content, posts.user_id, posts.created_at,
		        COALESCE(users.username, '') AS author
		 FROM posts
		 LEFT JOIN users ON posts.user_id = users.id
		 WHERE posts.title LIKE ? ESCAPE '\' OR posts.content LIKE ? ESCAPE '\'
		 ORDER BY posts.created_at DESC, posts.id DESC`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	defer rows.Close()

	return scanPostsWithAuthor(rows)
}

// scanPostsWithAuthor は結果セットをPostWithAuthorのスライスに変換する。
func scanPostsWithAuthor(rows *sql.Rows) ([]model.PostWithAuthor, error) {
	var posts []model.PostWithAuthor
	for rows.Next() {
		var post model.PostWithAuthor
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.UserID, &post.CreatedAt, &post.Author); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post rows: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*SQLitePostRepo)(nil)
