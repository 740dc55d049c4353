// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObjectiveSlots は1週間あたりの目標枠の数です。可変長にはしません。
const ObjectiveSlots = 3

// Retrospective は週の振り返りです。
type Retrospective struct {
	Wins       string `json:"wins"`
	Challenges string `json:"challenges"`
	Lessons    string `json:"lessons"`
}

// WeeklyPlan はISO週ごとの目標と振り返りを表すモデルです。
type WeeklyPlan struct {
	ID            uuid.UUID                       `json:"id"`
	Week          ISOWeek                         `json:"week"`
	Objectives    [ObjectiveSlots]WeeklyObjective `json:"objectives"`
	Retrospective Retrospective                   `json:"retrospective"`
	CreatedAt     time.Time                       `json:"created_at"`
	UpdatedAt     time.Time                       `json:"updated_at"`
}

// NewWeeklyPlan は空の3枠を持つ新しいWeeklyPlanを作成します。
func NewWeeklyPlan(week ISOWeek) (*WeeklyPlan, error) {
	now := time.Now()
	p := &WeeklyPlan{
		ID:        uuid.New(),
		Week:      week,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range p.Objectives {
		p.Objectives[i] = NewWeeklyObjective()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// LoadWeeklyPlan は既存のWeeklyPlanインスタンスを作成します。
func LoadWeeklyPlan(id uuid.UUID, week ISOWeek, objectives [ObjectiveSlots]WeeklyObjective, retro Retrospective, createdAt, updatedAt time.Time) (*WeeklyPlan, error) {
	p := &WeeklyPlan{
		ID:            id,
		Week:          week,
		Objectives:    objectives,
		Retrospective: retro,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate はWeeklyPlanのデータバリデーションを行います。
func (p *WeeklyPlan) Validate() error {
	if p.ID == uuid.Nil {
		return errors.New("id is required")
	}
	if err := p.Week.Validate(); err != nil {
		return err
	}
	for i, o := range p.Objectives {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("objective %d: %w", i, err)
		}
	}
	if p.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}
	if p.UpdatedAt.IsZero() {
		return errors.New("updated_at is required")
	}
	return nil
}

// Objective はスロット番号の目標を返します。
func (p *WeeklyPlan) Objective(slot int) (WeeklyObjective, error) {
	if err := ValidateSlot(slot); err != nil {
		return WeeklyObjective{}, err
	}
	return p.Objectives[slot], nil
}

// CompletedCount は completed の目標数を返します。
func (p *WeeklyPlan) CompletedCount() int {
	n := 0
	for _, o := range p.Objectives {
		if o.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// IsPast は週が now の時点で終了しているかを返します。
func (p *WeeklyPlan) IsPast(now time.Time) bool {
	return p.Week.IsPast(now)
}

// ValidateSlot はスロット番号が範囲内かを検証します。
func ValidateSlot(slot int) error {
	if slot < 0 || slot >= ObjectiveSlots {
		return NewValidationError(fmt.Sprintf("slot must be between 0 and %d", ObjectiveSlots-1))
	}
	return nil
}
