// Package ai は生成AIとのやり取り（プロンプト構築、応答の解析）を提供します。
package ai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/stsysd/shuukan/model"
)

// GeneratedPlan はモデル出力から取り出したプランです。確定するまで保存しません。
type GeneratedPlan struct {
	Phases []model.Phase `json:"phases"`
}

// ExtractionError はモデル出力のJSON解析に失敗したことを表します。
// 診断表示のために元の出力をそのまま保持します。
type ExtractionError struct {
	Err error
	Raw string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to parse AI response: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractPlanJSON はモデルの自由形式の出力からプランのJSONを取り出します。
//
// コードフェンスを取り除き、最初の '{' から最後の '}' までを切り出して厳密に解析します。
// エラーになるのはJSONとして解析できない場合だけです。失敗しても修復や再試行はしません。
// 形の検証も行わず、型の合わないフィールドは読み飛ばします。
func ExtractPlanJSON(raw string) (*GeneratedPlan, error) {
	text := stripCodeFences(raw)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}

	// any へのデコードは構文エラーでのみ失敗する
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ExtractionError{Err: err, Raw: raw}
	}

	plan := &GeneratedPlan{Phases: []model.Phase{}}
	obj, _ := doc.(map[string]any)
	items, _ := obj["phases"].([]any)
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := scalarString(fields["title"])
		duration, _ := scalarString(fields["duration"])
		plan.Phases = append(plan.Phases, model.Phase{
			Title:    title,
			Duration: duration,
			Tasks:    taskList(fields["tasks"]),
		})
	}
	return plan, nil
}

// scalarString は文字列と数値を文字列として取り出します。
func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// taskList はタスクの配列を取り出します。単独の文字列は1件のタスクとして扱います。
func taskList(v any) []string {
	switch v := v.(type) {
	case []any:
		tasks := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := scalarString(t); ok {
				tasks = append(tasks, s)
			}
		}
		return tasks
	case nil:
		return nil
	default:
		if s, ok := scalarString(v); ok {
			return []string{s}
		}
		return nil
	}
}

// stripCodeFences は ```json と ``` をすべて取り除きます。
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
