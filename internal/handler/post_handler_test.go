package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/post"
)

type mockPostService struct {
	createPostFn func(ctx context.Context, userID int64, title, content string) (int64, error)
	listPostsFn  func(ctx context.Context) ([]model.PostWithAuthor, error)
	getPostFn    func(ctx context.Context, postID int64) (*post.PostDetail, error)
	addCommentFn func(ctx context.Context, postID int64, content, authorName string) (int64, error)
	searchFn     func(ctx context.Context, query string) ([]model.PostWithAuthor, error)
}

func (m *mockPostService) CreatePost(ctx context.Context, userID int64, title, content string) (int64, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, userID, title, content)
	}
	return 1, nil
}
func (m *mockPostService) ListPosts(ctx context.Context) ([]model.PostWithAuthor, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx)
	}
	return nil, nil
}
func (m *mockPostService) GetPost(ctx context.Context, postID int64) (*post.PostDetail, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, postID)
	}
	return nil, model.ErrNotFound
}
func (m *mockPostService) AddComment(ctx context.Context, postID int64, content, authorName string) (int64, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, postID, content, authorName)
	}
	return 1, nil
}
func (m *mockPostService) Search(ctx context.Context, query string) ([]model.PostWithAuthor, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, nil
}

type mockPostMetrics struct {
	postsCreated    int
	commentsCreated int
}

func (m *mockPostMetrics) RecordPostCreated()    { m.postsCreated++ }
func (m *mockPostMetrics) RecordCommentCreated() { m.commentsCreated++ }

// newPostRouter はルートパラメータ解決のためchi経由でハンドラーを配線する。
func newPostRouter(h *PostHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/posts", h.List)
	r.Get("/posts/{id}", h.Show)
	r.Post("/posts/{id}/comments", h.AddComment)
	r.Get("/search", h.Search)
	return r
}

// --- List ---

func TestPostHandler_List_RendersPosts(t *testing.T) {
	svc := &mockPostService{
		listPostsFn: func(ctx context.Context) ([]model.PostWithAuthor, error) {
			return []model.PostWithAuthor{
				{Post: model.Post{ID: 1, Title: "Hello"}, Author: "alice"},
			}, nil
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Hello") {
		t.Error("post title should be rendered")
	}
	if !strings.Contains(rec.Body.String(), "alice") {
		t.Error("author should be rendered")
	}
}

func TestPostHandler_List_Empty_RendersPlaceholder(t *testing.T) {
	h := NewPostHandler(&mockPostService{}, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	if !strings.Contains(rec.Body.String(), "No posts yet.") {
		t.Error("empty list placeholder should be rendered")
	}
}

// --- Create ---

func TestPostHandler_Create_Success_RedirectsToPosts(t *testing.T) {
	var gotUserID int64
	svc := &mockPostService{
		createPostFn: func(ctx context.Context, userID int64, title, content string) (int64, error) {
			gotUserID = userID
			return 3, nil
		},
	}
	metrics := &mockPostMetrics{}
	h := NewPostHandler(svc, newTestRenderer(t), metrics)

	form := url.Values{"title": {"Hello"}, "content": {"World"}}
	rec := httptest.NewRecorder()
	h.Create(rec, withSession(postForm("/posts/new", form)))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/posts" {
		t.Errorf("Location = %q, want /posts", loc)
	}
	if gotUserID != 7 {
		t.Errorf("userID = %d, want 7", gotUserID)
	}
	if metrics.postsCreated != 1 {
		t.Errorf("postsCreated metric = %d, want 1", metrics.postsCreated)
	}
}

func TestPostHandler_Create_ValidationError_Returns400(t *testing.T) {
	svc := &mockPostService{
		createPostFn: func(ctx context.Context, userID int64, title, content string) (int64, error) {
			return 0, model.NewValidationError("title", "Title is required.")
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	h.Create(rec, withSession(postForm("/posts/new", url.Values{"content": {"body"}})))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Title is required.") {
		t.Error("validation message should be rendered")
	}
}

// --- Show ---

func TestPostHandler_Show_RendersPostAndComments(t *testing.T) {
	svc := &mockPostService{
		getPostFn: func(ctx context.Context, postID int64) (*post.PostDetail, error) {
			return &post.PostDetail{
				Post: model.PostWithAuthor{
					Post:   model.Post{ID: postID, Title: "Hello", Content: "World"},
					Author: "alice",
				},
				Comments: []model.Comment{
					{ID: 1, PostID: postID, Content: "nice post", AuthorName: "guest"},
				},
			}, nil
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/1", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Hello", "World", "nice post", "guest"} {
		if !strings.Contains(body, want) {
			t.Errorf("body should contain %q", want)
		}
	}
}

func TestPostHandler_Show_NotFound_Returns404(t *testing.T) {
	h := NewPostHandler(&mockPostService{}, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/9999", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPostHandler_Show_NonNumericID_Returns400(t *testing.T) {
	h := NewPostHandler(&mockPostService{}, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- AddComment ---

func TestPostHandler_AddComment_Success_RedirectsBack(t *testing.T) {
	metrics := &mockPostMetrics{}
	h := NewPostHandler(&mockPostService{}, newTestRenderer(t), metrics)

	form := url.Values{"content": {"hello"}, "author_name": {"guest"}}
	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, postForm("/posts/5/comments", form))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/posts/5") {
		t.Errorf("Location = %q, want /posts/5...", loc)
	}
	if metrics.commentsCreated != 1 {
		t.Errorf("commentsCreated metric = %d, want 1", metrics.commentsCreated)
	}
}

func TestPostHandler_AddComment_MissingPost_Returns404(t *testing.T) {
	svc := &mockPostService{
		addCommentFn: func(ctx context.Context, postID int64, content, authorName string) (int64, error) {
			return 0, model.ErrNotFound
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	form := url.Values{"content": {"hello"}, "author_name": {"guest"}}
	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, postForm("/posts/9999/comments", form))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPostHandler_AddComment_ValidationError_RedirectsWithMessage(t *testing.T) {
	svc := &mockPostService{
		addCommentFn: func(ctx context.Context, postID int64, content, authorName string) (int64, error) {
			return 0, model.NewValidationError("content", "Comment content is required.")
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, postForm("/posts/5/comments", url.Values{"author_name": {"guest"}}))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "msg=") {
		t.Errorf("Location = %q, want redirect with msg", loc)
	}
}

// --- Search ---

func TestPostHandler_Search_RendersResults(t *testing.T) {
	var gotQuery string
	svc := &mockPostService{
		searchFn: func(ctx context.Context, query string) ([]model.PostWithAuthor, error) {
			gotQuery = query
			return []model.PostWithAuthor{
				{Post: model.Post{ID: 1, Title: "Go tips"}, Author: "alice"},
			}, nil
		},
	}
	h := NewPostHandler(svc, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=Go", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotQuery != "Go" {
		t.Errorf("query = %q, want Go", gotQuery)
	}
	if !strings.Contains(rec.Body.String(), "Go tips") {
		t.Error("search result should be rendered")
	}
}

func TestPostHandler_Search_NoQuery_RendersEmptyPage(t *testing.T) {
	h := NewPostHandler(&mockPostService{}, newTestRenderer(t), nil)

	rec := httptest.NewRecorder()
	newPostRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
