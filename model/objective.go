// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ObjectiveStatus は週次目標の達成状態です。
type ObjectiveStatus string

const (
	StatusPending   ObjectiveStatus = "pending"
	StatusCompleted ObjectiveStatus = "completed"
)

// IsValid は定義済みの状態かどうかを返します。
func (s ObjectiveStatus) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// MetricField は UpdateMetric で更新するフィールド名です。
type MetricField string

const (
	FieldTarget  MetricField = "target"
	FieldCurrent MetricField = "current"
	FieldUnit    MetricField = "unit"
)

// WeeklyObjective は週に3つまで設定できる目標を表すモデルです。
type WeeklyObjective struct {
	ID      uuid.UUID       `json:"id"`
	Content string          `json:"content"`
	Status  ObjectiveStatus `json:"status"`
	Target  *float64        `json:"target"`  // 目標値（未設定ならnil）
	Current *float64        `json:"current"` // 現在値（未設定ならnil）
	Unit    *string         `json:"unit"`    // 単位ラベル
}

// NewWeeklyObjective は空の目標を生成します。IDはここで採番します。
func NewWeeklyObjective() WeeklyObjective {
	return WeeklyObjective{
		ID:     uuid.New(),
		Status: StatusPending,
	}
}

// Validate は目標のデータバリデーションを行います。
func (o WeeklyObjective) Validate() error {
	if o.ID == uuid.Nil {
		return errors.New("objective id is required")
	}
	if !o.Status.IsValid() {
		return fmt.Errorf("invalid objective status: %q", o.Status)
	}
	return nil
}

// MetricUpdate は数値トラッキングの1フィールド分の変更を表します。
// target/current は Number、unit は Text を使います。nil はクリアを意味します。
type MetricUpdate struct {
	Field  MetricField
	Number *float64
	Text   *string
}

// UpdateMetric は指定フィールドを更新し、current の変更時のみ状態を再計算します。
//
// current が target 以上になった場合は completed にし、pending からの遷移であれば
// celebrate に true を返します。current が target を下回り、直前が completed であれば
// pending に戻します。負の current はここでは丸めません（呼び出し側の責務）。
// 永続化は行いません。
func UpdateMetric(o WeeklyObjective, u MetricUpdate) (WeeklyObjective, bool, error) {
	switch u.Field {
	case FieldTarget:
		o.Target = cloneFloat(u.Number)
		return o, false, nil
	case FieldUnit:
		if u.Text == nil {
			o.Unit = nil
		} else {
			unit := *u.Text
			o.Unit = &unit
		}
		return o, false, nil
	case FieldCurrent:
		o.Current = cloneFloat(u.Number)
	default:
		return o, false, NewValidationError(fmt.Sprintf("unknown metric field: %q", u.Field))
	}

	if o.Target == nil || o.Current == nil {
		return o, false, nil
	}

	celebrate := false
	if *o.Current >= *o.Target {
		celebrate = o.Status != StatusCompleted
		o.Status = StatusCompleted
	} else if o.Status == StatusCompleted {
		o.Status = StatusPending
	}
	return o, celebrate, nil
}

// Step は current を delta だけ増減させます。結果は0未満にならないよう丸めます。
// 未設定の current は0として扱います。
func Step(o WeeklyObjective, delta float64) (WeeklyObjective, bool) {
	var current float64
	if o.Current != nil {
		current = *o.Current
	}
	next := max(current+delta, 0)
	// FieldCurrent はエラーにならない
	updated, celebrate, _ := UpdateMetric(o, MetricUpdate{Field: FieldCurrent, Number: &next})
	return updated, celebrate
}

// SetStatus はチェックボックス操作などによる手動の状態変更です。
func SetStatus(o WeeklyObjective, status ObjectiveStatus) (WeeklyObjective, error) {
	if !status.IsValid() {
		return o, NewValidationError(fmt.Sprintf("invalid objective status: %q", status))
	}
	o.Status = status
	return o, nil
}

// SetContent は目標の本文を更新します。
func SetContent(o WeeklyObjective, content string) WeeklyObjective {
	o.Content = content
	return o
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
