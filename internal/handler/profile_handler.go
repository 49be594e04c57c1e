package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/render"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// UpdateProfile はユーザー名と（指定時のみ）パスワードを更新し、
	// セッションのスナップショットを更新する。
	UpdateProfile(ctx context.Context, sessionID string, userID int64, newUsername, newPassword string) error

	// DeleteAccount はユーザーを削除し、全セッションを破棄する。
	DeleteAccount(ctx context.Context, userID int64) error
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
// 全ルートがアクセスガード（RequireLogin）の内側に配置される。
type ProfileHandler struct {
	service  ProfileServiceInterface
	renderer *render.Renderer
	config   AuthHandlerConfig
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, renderer *render.Renderer, config AuthHandlerConfig) *ProfileHandler {
	return &ProfileHandler{
		service:  service,
		renderer: renderer,
		config:   config,
	}
}

// Show はプロフィール画面を表示する。
// GET /profile
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "profile", baseData(r, "Profile"))
}

// Update はユーザー名と（入力時のみ）パスワードを更新する。
// POST /profile
// パスワード欄が空の場合は既存のハッシュを変更しない。
// 成功時はセッションのユーザー名スナップショットが更新済みの状態でリダイレクトする。
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	newUsername := r.PostFormValue("username")
	newPassword := r.PostFormValue("password")

	err = h.service.UpdateProfile(r.Context(), session.ID, session.UserID, newUsername, newPassword)
	if err != nil {
		if msg := validationMessage(err); msg != "" {
			data := baseData(r, "Profile")
			data.Error = msg
			h.renderer.Render(w, http.StatusBadRequest, "profile", data)
			return
		}
		if errors.Is(err, model.ErrDuplicateUsername) {
			http.Redirect(w, r, "/profile?msg="+url.QueryEscape(msgDuplicateUsername), http.StatusSeeOther)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/profile?msg="+url.QueryEscape("Profile updated."), http.StatusSeeOther)
}

// ShowDeleteConfirm はアカウント削除の確認画面を表示する。
// GET /profile/delete
func (h *ProfileHandler) ShowDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "profile_delete", baseData(r, "Delete account"))
}

// Delete はアカウントを削除する。
// POST /profile/delete
// セッションの破棄はストアの結果に関わらず必ず行われる（サービス層の責務）ため、
// ストアエラー時もCookieはクリアした上でエラーを報告する。
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, err := middleware.SessionFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	deleteErr := h.service.DeleteAccount(r.Context(), session.UserID)

	clearSessionCookieWith(w, h.config)

	if deleteErr != nil {
		renderInternalError(h.renderer, w, r, deleteErr)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clearSessionCookieWith はセッションCookieを削除する。
func clearSessionCookieWith(w http.ResponseWriter, config AuthHandlerConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
