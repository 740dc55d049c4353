// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Phase はAIが生成したプランの1フェーズです。
type Phase struct {
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Tasks    []string `json:"tasks"`
}

// Goal は確定済みのAI生成プランを表すモデルです。
type Goal struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Deadline    string    `json:"deadline"`      // YYYY-MM-DD
	HoursPerDay float64   `json:"hours_per_day"` // 1日あたりの作業時間
	Language    string    `json:"language"`
	Phases      []Phase   `json:"phases"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewGoal は生成済みプランを確定して新しいGoalを作成します。
func NewGoal(title, deadline string, hoursPerDay float64, language Language, phases []Phase) (*Goal, error) {
	g := &Goal{
		ID:          uuid.New(),
		Title:       title,
		Deadline:    deadline,
		HoursPerDay: hoursPerDay,
		Language:    language.String(),
		Phases:      phases,
		CreatedAt:   time.Now(),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGoal は既存のGoalインスタンスを作成します。
func LoadGoal(id uuid.UUID, title, deadline string, hoursPerDay float64, language string, phases []Phase, createdAt time.Time) (*Goal, error) {
	g := &Goal{
		ID:          id,
		Title:       title,
		Deadline:    deadline,
		HoursPerDay: hoursPerDay,
		Language:    language,
		Phases:      phases,
		CreatedAt:   createdAt,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate はGoalのデータバリデーションを行います。
func (g *Goal) Validate() error {
	if g.ID == uuid.Nil {
		return errors.New("id is required")
	}
	if g.Title == "" {
		return NewValidationError("title is required")
	}
	if g.Deadline != "" {
		if _, err := time.Parse("2006-01-02", g.Deadline); err != nil {
			return NewValidationError("deadline must be YYYY-MM-DD")
		}
	}
	if g.HoursPerDay <= 0 || g.HoursPerDay > 24 {
		return NewValidationError("hours_per_day must be greater than 0 and at most 24")
	}
	if len(g.Phases) == 0 {
		return NewValidationError("at least one phase is required")
	}
	if g.CreatedAt.IsZero() {
		return errors.New("created_at is required")
	}
	return nil
}
