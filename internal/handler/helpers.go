// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/model"
	"github.com/hitoshi/miniblog/internal/render"
)

// genericErrorMessage は内部エラー時にユーザーへ返す汎用メッセージ。
// ストアエラーの内容やスタックはレスポンスに決して含めない。
const genericErrorMessage = "Something went wrong. Please try again later."

// baseData はリクエストからテンプレート共通データを組み立てる。
// セッションスナップショット・CSRFトークン・?msg= の通知を含む。
func baseData(r *http.Request, title string) render.Data {
	data := render.Data{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromRequest(r),
		Message:   r.URL.Query().Get("msg"),
	}

	if session, err := middleware.SessionFromContext(r.Context()); err == nil {
		snapshot := session.Snapshot()
		data.Session = &snapshot
	}

	return data
}

// renderInternalError は内部エラーをログに記録し、汎用の500ページを描画する。
// 詳細（route, method, request_id, 匿名化されたuser_id）はログのみに残す。
func renderInternalError(renderer *render.Renderer, w http.ResponseWriter, r *http.Request, err error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if requestID := middleware.RequestIDFromContext(r.Context()); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if session, sErr := middleware.SessionFromContext(r.Context()); sErr == nil {
		attrs = append(attrs, slog.Int64("user_id", session.UserID))
	}
	slog.Error("request failed", attrs...)

	data := baseData(r, "Error")
	data.Error = genericErrorMessage
	renderer.Render(w, http.StatusInternalServerError, "error", data)
}

// renderNotFound は404ページを描画する。
func renderNotFound(renderer *render.Renderer, w http.ResponseWriter, r *http.Request) {
	data := baseData(r, "Not Found")
	data.Error = "The page you are looking for does not exist."
	renderer.Render(w, http.StatusNotFound, "error", data)
}

// renderBadRequest は400ページを描画する。
func renderBadRequest(renderer *render.Renderer, w http.ResponseWriter, r *http.Request, message string) {
	data := baseData(r, "Bad Request")
	data.Error = message
	renderer.Render(w, http.StatusBadRequest, "error", data)
}

// validationMessage はエラーチェーンからユーザー向け検証メッセージを取り出す。
// ValidationErrorでない場合は空文字列を返す。
func validationMessage(err error) string {
	if ve := model.AsValidationError(err); ve != nil {
		return ve.Message
	}
	return ""
}
