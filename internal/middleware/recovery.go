package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/hitoshi/miniblog/internal/render"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// 共通のエラーページを500で返すミドルウェアを生成する。
// rendererがnilの場合はプレーンテキストで応答する。
// スタックトレースはログのみに記録し、レスポンスには含めない。
func NewRecoveryMiddleware(renderer *render.Renderer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					if renderer != nil {
						data := render.Data{
							Title: "Error",
							Error: "Something went wrong. Please try again later.",
						}
						renderer.Render(w, http.StatusInternalServerError, "error", data)
						return
					}
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
