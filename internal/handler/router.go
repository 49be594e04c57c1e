package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/miniblog/internal/metrics"
	"github.com/hitoshi/miniblog/internal/middleware"
	"github.com/hitoshi/miniblog/internal/render"
)

// AuthAndProfileService は認証系ハンドラーが必要とするサービスの合成インターフェース。
type AuthAndProfileService interface {
	AuthServiceInterface
	ProfileServiceInterface
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig

	// サービス
	AuthService AuthAndProfileService
	PostService PostServiceInterface

	// 表示
	Renderer *render.Renderer

	// 観測
	Logger     *slog.Logger
	Metrics    *metrics.Collector
	Gatherer   prometheus.Gatherer
	HealthPing *sql.DB

	// Cookie設定
	AuthConfig AuthHandlerConfig
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → RequestID → Metrics → Logging → SessionLoader → CSRF
//
// 保護ルート（/profile*, /posts/new）にはさらにRequireLoginを適用する。
// 認証試行（POST /login, POST /register）にはIPごとのレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Renderer))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	if deps.Metrics != nil {
		r.Use(metrics.NewHTTPMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSessionLoaderMiddleware(deps.SessionFinder))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	// nilの*metrics.Collectorを非nilインターフェースとして渡さないための変換
	var authMetrics AuthMetrics
	var postMetrics PostMetrics
	if deps.Metrics != nil {
		authMetrics = deps.Metrics
		postMetrics = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, authMetrics, deps.AuthConfig)
	profileHandler := NewProfileHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService, deps.Renderer, postMetrics)

	// --- 認証不要のルート ---

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		deps.Renderer.Render(w, http.StatusOK, "index", baseData(req, "Home"))
	})

	r.Get("/register", authHandler.ShowRegister)
	r.Get("/login", authHandler.ShowLogin)
	r.Get("/logout", authHandler.Logout)

	// 認証試行はIPごとのレート制限を通す
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.LoginAttemptMiddleware()).Post("/register", authHandler.Register)
		r.With(deps.RateLimiter.LoginAttemptMiddleware()).Post("/login", authHandler.Login)
	} else {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	}

	r.Get("/posts", postHandler.List)
	r.Get("/posts/{id}", postHandler.Show)
	r.Post("/posts/{id}/comments", postHandler.AddComment)
	r.Get("/search", postHandler.Search)

	r.Get("/health", newHealthHandler(deps.HealthPing))

	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	// --- 認証が必要なルート ---
	// 拒否は常に/loginへのリダイレクト。ルートの有無を応答から区別させない。
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireLogin)

		r.Get("/posts/new", postHandler.ShowNew)
		r.Post("/posts/new", postHandler.Create)

		r.Get("/profile", profileHandler.Show)
		r.Post("/profile", profileHandler.Update)
		r.Get("/profile/delete", profileHandler.ShowDeleteConfirm)
		r.Post("/profile/delete", profileHandler.Delete)
	})

	return r
}

// newHealthHandler はデータストア到達性を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
