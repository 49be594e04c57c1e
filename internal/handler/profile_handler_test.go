package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/model"
)

type mockProfileService struct {
	updateProfileFn func(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error
	deleteAccountFn func(ctx context.Context, userID int64) error
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, sessionID, userID, newUsername, newPassword)
	}
	return nil
}
func (m *mockProfileService) DeleteAccount(ctx context.Context, userID int64) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, userID)
	}
	return nil
}

// withSession は認証済みセッションをリクエストコンテキストに注入する。
func withSession(req *http.Request) *http.Request {
	ctx := middleware.ContextWithSession(req.Context(), &model.Session{
		ID:       "sess-1",
		UserID:   7,
		Username: "alice",
		Role:     model.RoleUser,
	})
	return req.WithContext(ctx)
}

func TestProfileHandler_Update_Success_RedirectsWithMessage(t *testing.T) {
	var gotSessionID string
	var gotUserID int64
	svc := &mockProfileService{
		updateProfileFn: func(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error {
			gotSessionID = sessionID
			gotUserID = userID
			return nil
		},
	}
	h := NewProfileHandler(svc, newTestRenderer(t), AuthHandlerConfig{})

	form := url.Values{"username": {"alice2"}, "password": {""}}
	rec := httptest.NewRecorder()
	h.Update(rec, withSession(postForm("/profile", form)))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/profile?msg=") {
		t.Errorf("Location = %q, want /profile?msg=...", loc)
	}
	if gotSessionID != "sess-1" {
		t.Errorf("sessionID = %q, want sess-1", gotSessionID)
	}
	if gotUserID != 7 {
		t.Errorf("userID = %d, want 7", gotUserID)
	}
}

// パスワード欄が空の場合、空文字列がそのままサービスへ渡ること（条件付き更新の判断はサービス側）
func TestProfileHandler_Update_EmptyPassword_PassedThrough(t *testing.T) {
	var gotPassword string
	svc := &mockProfileService{
		updateProfileFn: func(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error {
			gotPassword = newPassword
			return nil
		},
	}
	h := NewProfileHandler(svc, newTestRenderer(t), AuthHandlerConfig{})

	form := url.Values{"username": {"alice2"}}
	h.Update(httptest.NewRecorder(), withSession(postForm("/profile", form)))

	if gotPassword != "" {
		t.Errorf("password = %q, want empty", gotPassword)
	}
}

func TestProfileHandler_Update_ValidationError_Returns400(t *testing.T) {
	svc := &mockProfileService{
		updateProfileFn: func(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error {
			return model.NewValidationError("username", "Username must be at least 3 characters.")
		},
	}
	h := NewProfileHandler(svc, newTestRenderer(t), AuthHandlerConfig{})

	rec := httptest.NewRecorder()
	h.Update(rec, withSession(postForm("/profile", url.Values{"username": {"ab"}})))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Username must be at least 3 characters.") {
		t.Error("validation message should be rendered")
	}
}

func TestProfileHandler_Update_NoSession_RedirectsToLogin(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{}, newTestRenderer(t), AuthHandlerConfig{})

	rec := httptest.NewRecorder()
	h.Update(rec, postForm("/profile", url.Values{"username": {"alice2"}}))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestProfileHandler_Delete_Success_ClearsCookieAndRedirects(t *testing.T) {
	var deletedUserID int64
	svc := &mockProfileService{
		deleteAccountFn: func(ctx context.Context, userID int64) error {
			deletedUserID = userID
			return nil
		},
	}
	h := NewProfileHandler(svc, newTestRenderer(t), AuthHandlerConfig{})

	rec := httptest.NewRecorder()
	h.Delete(rec, withSession(postForm("/profile/delete", url.Values{})))

	if deletedUserID != 7 {
		t.Errorf("deleted userID = %d, want 7", deletedUserID)
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie should be cleared")
	}
}

// ストアエラー時もCookieはクリアされた上でエラーが報告されること
func TestProfileHandler_Delete_StoreError_StillClearsCookie(t *testing.T) {
	svc := &mockProfileService{
		deleteAccountFn: func(ctx context.Context, userID int64) error {
			return errors.New("store failure")
		},
	}
	h := NewProfileHandler(svc, newTestRenderer(t), AuthHandlerConfig{})

	rec := httptest.NewRecorder()
	h.Delete(rec, withSession(postForm("/profile/delete", url.Values{})))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie must be cleared even when the store fails")
	}
	if strings.Contains(rec.Body.String(), "store failure") {
		t.Error("store error detail must not leak into the response")
	}
}
