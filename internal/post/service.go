// Package post は記事・コメント・検索のドメインロジックを提供する。
package post

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/repository"
)

// PostDetail は記事詳細とコメント一覧をまとめた表示用構造体。
type PostDetail struct {
	Post     model.PostWithAuthor
	Comments []model.Comment
}

// Service は記事とコメントに関するビジネスロジックを提供する。
// ユーザー入力はすべて保存前にHTMLマークアップを除去する。
// テンプレート側のエスケープと合わせた二段構えでXSSを防ぐ。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	sanitizer   *bluemonday.Policy
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository, commentRepo repository.CommentRepository) *Service {
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

// sanitize はHTMLタグを除去し、平文として保存する形に正規化する。
// ポリシーの出力は実体参照にエンコードされるため平文へデコードして戻す。
// エンコードされたまま保存すると`&`や引用符を含むタイトルの検索が
// 一致しなくなり、テンプレートの出力エスケープと二重になる。
func (s *Service) sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(input)))
}

// CreatePost は認証済みユーザーの記事を作成し、採番されたIDを返す。
// タイトルと本文は必須。空白のみの入力は空とみなす。
func (s *Service) CreatePost(ctx context.Context, userID int64, title, content string) (int64, error) {
	title = s.sanitize(title)
	content = s.sanitize(content)

	if title == "" {
		return 0, model.NewValidationError("title", "Title is required.")
	}
	if content == "" {
		return 0, model.NewValidationError("content", "Content is required.")
	}

	id, err := s.postRepo.Create(ctx, title, content, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.Int64("post_id", id),
		slog.Int64("user_id", userID),
	)

	return id, nil
}

// ListPosts は全記事を作成者名付きで新しい順に返す。
func (s *Service) ListPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	posts, err := s.postRepo.ListWithAuthor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// GetPost は記事詳細をコメント一覧付きで返す。
// 記事が存在しない場合はmodel.ErrNotFoundを返す。
func (s *Service) GetPost(ctx context.Context, postID int64) (*PostDetail, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	if post == nil {
		return nil, model.ErrNotFound
	}

	comments, err := s.commentRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &PostDetail{
		Post:     *post,
		Comments: comments,
	}, nil
}

// AddComment は記事に匿名コメントを追加する。認証は不要。
// 本文と表示名は必須。参照先の記事が存在しない場合はmodel.ErrNotFoundを返す。
// 参照チェックはストアの外部キー制約に委ねる。
func (s *Service) AddComment(ctx context.Context, postID int64, content, authorName string) (int64, error) {
	content = s.sanitize(content)
	authorName = s.sanitize(authorName)

	if content == "" {
		return 0, model.NewValidationError("content", "Comment content is required.")
	}
	if authorName == "" {
		return 0, model.NewValidationError("author_name", "Author name is required.")
	}

	id, err := s.commentRepo.Create(ctx, postID, content, authorName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to create comment: %w", err)
	}

	slog.Info("comment added",
		slog.Int64("post_id", postID),
		slog.Int64("comment_id", id),
	)

	return id, nil
}

// Search はタイトルまたは本文が部分一致する記事を新しい順に返す。
// 検索語が空の場合はストアに問い合わせず空の結果を返す。
func (s *Service) Search(ctx context.Context, query string) ([]model.PostWithAuthor, error) {
	if strings.TrimSpace(query) == "" {
		return []model.PostWithAuthor{}, nil
	}

	posts, err := s.postRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}
