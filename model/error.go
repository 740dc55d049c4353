// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import "errors"

// センチネルエラー - リソースが見つからない場合など
var (
	ErrWeeklyPlanNotFound = errors.New("weekly plan not found")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrWeekReadOnly       = errors.New("week is read-only")
)

// ValidationError はバリデーションエラーを表す型
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
