package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stsysd/shuukan/model"
)

// Message はチャット履歴の1件です。Role は "user" または "assistant" です。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// InterviewContext はプラン生成に渡すインタビューの記録です。
// 文字列、または Message の配列のどちらでも受け付けます。
type InterviewContext []Message

// UnmarshalJSON は文字列形式と配列形式の両方を受け付けます。
func (c *InterviewContext) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == "" {
			*c = nil
		} else {
			*c = InterviewContext{{Role: RoleUser, Content: text}}
		}
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return errors.New("interviewContext must be a string or an array of messages")
	}
	*c = msgs
	return nil
}

// DeepDiveData は詳細ヒアリングの回答です。
type DeepDiveData struct {
	Domain          string `json:"domain"`
	ExperienceLevel string `json:"experienceLevel"`
	Availability    string `json:"availability"`
	Blockers        string `json:"blockers"`
}

func (d *DeepDiveData) isEmpty() bool {
	return d == nil || (d.Domain == "" && d.ExperienceLevel == "" && d.Availability == "" && d.Blockers == "")
}

// GoalRequest はプラン生成の入力です。
type GoalRequest struct {
	Goal             string
	Deadline         string
	HoursPerDay      float64
	InterviewContext InterviewContext
	DeepDive         *DeepDiveData
	Language         model.Language
}

var languageNames = map[string]string{
	"en": "English",
	"ja": "Japanese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"ko": "Korean",
	"zh": "Chinese",
	"pt": "Portuguese",
}

// LanguageName はプロンプトで使う言語名を返します。未知のコードはそのまま返します。
func LanguageName(lang model.Language) string {
	if name, ok := languageNames[lang.String()]; ok {
		return name
	}
	return lang.String()
}

// BuildGoalPrompt はプラン生成用のプロンプトを組み立てます。
func BuildGoalPrompt(req GoalRequest) (string, error) {
	goal := strings.TrimSpace(req.Goal)
	if goal == "" {
		return "", errors.New("goal is required")
	}
	if req.HoursPerDay < 0 || req.HoursPerDay > 24 {
		return "", fmt.Errorf("hoursPerDay out of range: %v", req.HoursPerDay)
	}
	if req.Deadline != "" {
		if _, err := time.Parse("2006-01-02", req.Deadline); err != nil {
			return "", fmt.Errorf("invalid deadline %q: %w", req.Deadline, err)
		}
	}

	var sb strings.Builder
	sb.WriteString("You are an expert coach who turns a personal goal into a realistic, phased action plan.\n\n")
	fmt.Fprintf(&sb, "Goal: %s\n", goal)
	if req.Deadline != "" {
		fmt.Fprintf(&sb, "Deadline: %s\n", req.Deadline)
	}
	if req.HoursPerDay > 0 {
		fmt.Fprintf(&sb, "Time available per day: %g hours\n", req.HoursPerDay)
	}

	if !req.DeepDive.isEmpty() {
		sb.WriteString("\nBackground from the intake questionnaire:\n")
		writeField(&sb, "Domain", req.DeepDive.Domain)
		writeField(&sb, "Experience level", req.DeepDive.ExperienceLevel)
		writeField(&sb, "Availability", req.DeepDive.Availability)
		writeField(&sb, "Blockers", req.DeepDive.Blockers)
	}

	if len(req.InterviewContext) > 0 {
		sb.WriteString("\nInterview transcript:\n")
		for _, m := range req.InterviewContext {
			fmt.Fprintf(&sb, "%s: %s\n", speaker(m.Role), strings.TrimSpace(m.Content))
		}
	}

	if req.Language.String() == "ja" {
		writeJapaneseInstructions(&sb)
	} else {
		writeInstructions(&sb, LanguageName(req.Language))
	}
	sb.WriteString(planShape)
	sb.WriteString("\n")
	return sb.String(), nil
}

// planShape はモデルに返させるJSONの形です。
const planShape = `{"phases":[{"title":"string","duration":"string","tasks":["string"]}]}`

func writeInstructions(sb *strings.Builder, language string) {
	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Split the plan into 3 to 5 sequential phases.\n")
	sb.WriteString("- Each phase has a short title, a duration (for example \"2 weeks\") and 3 to 5 concrete tasks.\n")
	sb.WriteString("- Fit the plan into the deadline and the daily time budget.\n")
	fmt.Fprintf(sb, "- Write every title, duration and task in %s.\n", language)
	sb.WriteString("- Return ONLY a JSON object, with no Markdown and no commentary, in exactly this shape:\n")
}

// writeJapaneseInstructions は日本語の指示を書き込みます。
func writeJapaneseInstructions(sb *strings.Builder) {
	sb.WriteString("\n指示:\n")
	sb.WriteString("- 計画を3〜5個の連続したフェーズに分けてください。\n")
	sb.WriteString("- 各フェーズには短いタイトル、期間（例: \"2週間\"）、3〜5個の具体的なタスクを含めてください。\n")
	sb.WriteString("- 締め切りと1日あたりの作業時間に収まる計画にしてください。\n")
	sb.WriteString("- タイトル、期間、タスクはすべて日本語で書いてください。\n")
	sb.WriteString("- Markdownや説明文は付けず、次の形式のJSONオブジェクトだけを返してください:\n")
}

func writeField(sb *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(sb, "- %s: %s\n", label, value)
	}
}

func speaker(role string) string {
	if role == RoleAssistant {
		return "Coach"
	}
	return "User"
}
