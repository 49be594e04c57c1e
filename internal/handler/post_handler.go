package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/post"
	"github.com/hitoshi/miniblog/internal/render"
)

// PostServiceInterface は記事ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	CreatePost(ctx context.Context, userID int64, title, content string) (int64, error)
	ListPosts(ctx context.Context) ([]model.PostWithAuthor, error)
	GetPost(ctx context.Context, postID int64) (*post.PostDetail, error)
	AddComment(ctx context.Context, postID int64, content, authorName string) (int64, error)
	Search(ctx context.Context, query string) ([]model.PostWithAuthor, error)
}

// PostMetrics は記事・コメント作成のメトリクス記録インターフェース。
type PostMetrics interface {
	RecordPostCreated()
	RecordCommentCreated()
}

// searchView は検索ページのテンプレートデータ。
type searchView struct {
	Query   string
	Results []model.PostWithAuthor
}

// PostHandler は記事・コメント・検索のHTTPハンドラー。
type PostHandler struct {
	service  PostServiceInterface
	renderer *render.Renderer
	metrics  PostMetrics
}

// NewPostHandler はPostHandlerを生成する。metricsはnil可。
func NewPostHandler(service PostServiceInterface, renderer *render.Renderer, metrics PostMetrics) *PostHandler {
	return &PostHandler{
		service:  service,
		renderer: renderer,
		metrics:  metrics,
	}
}

// List は全記事の一覧を表示する。認証不要。
// GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		renderInternalError(h.renderer, w, r, err)
		return
	}

	data := baseData(r, "All Posts")
	data.Content = posts
	h.renderer.Render(w, http.StatusOK, "posts", data)
}

// ShowNew は記事作成フォームを表示する。要認証。
// GET /posts/new
func (h *PostHandler) ShowNew(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "new_post", baseData(r, "New Post"))
}

// Create は記事を作成する。要認証。
// POST /posts/new
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	title := r.PostFormValue("title")
	content := r.PostFormValue("content")

	_, err = h.service.CreatePost(r.Context(), session.UserID, title, content)
	if err != nil {
		if msg := validationMessage(err); msg != "" {
			data := baseData(r, "New Post")
			data.Error = msg
			h.renderer.Render(w, http.StatusBadRequest, "new_post", data)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPostCreated()
	}

	http.Redirect(w, r, "/posts", http.StatusSeeOther)
}

// Show は記事詳細とコメント一覧を表示する。認証不要。
// GET /posts/{id}
func (h *PostHandler) Show(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		renderBadRequest(h.renderer, w, r, "Invalid post ID.")
		return
	}

	detail, err := h.service.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			renderNotFound(h.renderer, w, r)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	data := baseData(r, detail.Post.Title)
	data.Content = detail
	h.renderer.Render(w, http.StatusOK, "post_detail", data)
}

// AddComment は記事に匿名コメントを追加する。認証不要。
// POST /posts/{id}/comments
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	postID, err := parsePostID(r)
	if err != nil {
		renderBadRequest(h.renderer, w, r, "Invalid post ID.")
		return
	}

	content := r.PostFormValue("content")
	authorName := r.PostFormValue("author_name")

	_, err = h.service.AddComment(r.Context(), postID, content, authorName)
	if err != nil {
		if validationMessage(err) != "" {
			http.Redirect(w, r,
				fmt.Sprintf("/posts/%d?msg=%s", postID, url.QueryEscape("Invalid comment")),
				http.StatusSeeOther)
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			renderNotFound(h.renderer, w, r)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCommentCreated()
	}

	http.Redirect(w, r,
		fmt.Sprintf("/posts/%d?msg=%s", postID, url.QueryEscape("Comment added")),
		http.StatusSeeOther)
}

// Search は記事のタイトル・本文を部分一致検索する。認証不要。
// GET /search?q=
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.service.Search(r.Context(), query)
	if err != nil {
		renderInternalError(h.renderer, w, r, err)
		return
	}

	data := baseData(r, "Search")
	data.Content = searchView{
		Query:   query,
		Results: results,
	}
	h.renderer.Render(w, http.StatusOK, "search", data)
}

// parsePostID はルートパラメータから記事IDを取り出す。
// 数値でない場合はエラーを返す。
func parsePostID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post ID %q: %w", raw, err)
	}
	return id, nil
}
