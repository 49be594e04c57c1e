// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateUsername はユーザー名の一意制約違反を表す。
// ストアのUNIQUE違反から検出する。事前チェックでは競合を防げない。
var ErrDuplicateUsername = errors.New("username already exists")

// ErrNotFound は参照先エンティティが存在しないことを表す。
var ErrNotFound = errors.New("not found")

// ValidationError は入力が宣言済みルールに違反したことを表す。
// Messageは最初に失敗したルールのユーザー向けメッセージ。
type ValidationError struct {
	Field   string
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError はエラーチェーンからValidationErrorを取り出す。
// 見つからない場合はnilを返す。
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
