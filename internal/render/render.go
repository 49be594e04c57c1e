// Package render はHTMLテンプレートの描画を提供する。
// テンプレートはバイナリに埋め込み、起動時に1回だけパースする。
// 出力はhtml/templateの自動エスケープに任せる。
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/miniblog/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pages は描画対象のページテンプレート一覧。
// それぞれbase.htmlのlayoutにcontentを埋め込む。
var pages = []string{
	"index",
	"register",
	"login",
	"profile",
	"profile_delete",
	"posts",
	"new_post",
	"post_detail",
	"search",
	"error",
}

// Data はテンプレートに渡す共通データ。
type Data struct {
	Title     string
	Session   *model.Snapshot // 未ログインの場合はnil
	CSRFToken string
	Message   string // リダイレクト経由の通知メッセージ
	Error     string // ユーザー向けエラーメッセージ
	Content   any    // ページ固有のデータ
}

// Renderer はページ名からテンプレートを引いて描画する。
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
// テンプレートの不備は起動時に検出する。
func NewRenderer() (*Renderer, error) {
	templates := make(map[string]*template.Template, len(pages))

	for _, page := range pages {
		t, err := template.ParseFS(templatesFS,
			"templates/base.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", page, err)
		}
		templates[page] = t
	}

	return &Renderer{templates: templates}, nil
}

// Render は指定ページを描画し、ステータスコードとともに書き込む。
// 部分出力を避けるため、バッファに描画してから一括で書き込む。
// 描画エラーの詳細はログのみに記録する。
func (r *Renderer) Render(w http.ResponseWriter, statusCode int, page string, data Data) {
	t, ok := r.templates[page]
	if !ok {
		slog.Error("unknown template page", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	buf.WriteTo(w)
}
