// Package password はパスワードの一方向ハッシュ化と検証を提供する。
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/miniblog/internal/model"
)

// DefaultCost はbcryptのデフォルトコストファクター。
// 対話的ログインのレイテンシを数十ms程度に抑えつつ、
// オフライン総当たりに耐える値として固定する。
const DefaultCost = 12

// maxPasswordBytes はbcryptが受け付ける平文の上限バイト数。
const maxPasswordBytes = 72

// Hasher はbcryptによるパスワードハッシュ化と検証を提供する。
// bcryptはソルト付きの適応型ハッシュであり、可逆暗号や高速ハッシュは使用しない。
type Hasher struct {
	cost int
}

// NewHasher は指定コストのHasherを生成する。
// コストが範囲外の場合はDefaultCostに丸める。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードをハッシュ化する。
// bcryptの上限を超える長さの平文はmodel.ValidationErrorを返す。
// それ以外で失敗するのは内部エラー（リソース枯渇等）の場合のみ。
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", model.NewValidationError("password",
				fmt.Sprintf("Password must be no longer than %d characters.", maxPasswordBytes))
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードを保存済みハッシュと照合する。
// 不一致の場合はfalseを返し、エラーにはしない。
// 整形式のハッシュに対しては決して失敗しない。
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
