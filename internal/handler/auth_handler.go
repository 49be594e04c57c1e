package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/miniblog/internal/auth"
	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/render"
)

const (
	// msgInvalidCredentials は認証失敗時のメッセージ。
	// ユーザー不在とパスワード不一致で必ず同一のバイト列を返す。
	msgInvalidCredentials = "Invalid username or password."

	// msgDuplicateUsername はユーザー名重複時のメッセージ。
	// ストアのエラー詳細は含めない。
	msgDuplicateUsername = "Username already exists."
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, username, password string) (int64, error)
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthMetrics は認証イベントのメトリクス記録インターフェース。
type AuthMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordRegistration()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は登録・ログイン・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer *render.Renderer
	metrics  AuthMetrics
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(service AuthServiceInterface, renderer *render.Renderer, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		metrics:  metrics,
		config:   config,
	}
}

// ShowRegister は登録フォームを表示する。
// GET /register
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register", baseData(r, "Register"))
}

// Register は新規ユーザーを登録する。
// POST /register
// 成功時はログイン画面へリダイレクトする。登録しただけでは認証済みにしない。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	_, err := h.service.Register(r.Context(), username, password)
	if err != nil {
		if msg := validationMessage(err); msg != "" {
			data := baseData(r, "Register")
			data.Error = msg
			h.renderer.Render(w, http.StatusBadRequest, "register", data)
			return
		}
		if errors.Is(err, model.ErrDuplicateUsername) {
			data := baseData(r, "Register")
			data.Error = msgDuplicateUsername
			h.renderer.Render(w, http.StatusBadRequest, "register", data)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRegistration()
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin はログインフォームを表示する。
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login", baseData(r, "Login"))
}

// Login は資格情報を検証し、セッションCookieを設定する。
// POST /login
// 失敗理由を問わず同一のメッセージを返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	session, err := h.service.Login(r.Context(), username, password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordLoginFailure()
		}
		if msg := validationMessage(err); msg != "" {
			data := baseData(r, "Login")
			data.Error = msg
			h.renderer.Render(w, http.StatusBadRequest, "login", data)
			return
		}
		if errors.Is(err, auth.ErrInvalidCredentials) {
			data := baseData(r, "Login")
			data.Error = msgInvalidCredentials
			h.renderer.Render(w, http.StatusUnauthorized, "login", data)
			return
		}
		renderInternalError(h.renderer, w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はセッションをストアとCookieの両方から破棄する。
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		// ストア側の削除に失敗してもCookieはクリアする
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.clearSessionCookie(w)
			renderInternalError(h.renderer, w, r, logoutErr)
			return
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie はHTTP OnlyのセッションCookieを設定する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
