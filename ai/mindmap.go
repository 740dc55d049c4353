package ai

import (
	"context"
	"strings"
	"time"
)

// MindmapNode はマインドマップのノードです。
type MindmapNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Children []*MindmapNode `json:"children,omitempty"`
}

// DefaultMindmapTopic はトピック未指定時のルートラベルです。
const DefaultMindmapTopic = "Central Topic"

// MockMindmap は固定の階層を返すだけのスタブです。モデルには接続していません。
// delay だけ待ってから返し、その間に ctx が終了すればエラーを返します。
func MockMindmap(ctx context.Context, topic string, delay time.Duration) (*MindmapNode, error) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultMindmapTopic
	}

	return &MindmapNode{
		ID:    "root",
		Label: topic,
		Children: []*MindmapNode{
			{
				ID:    "1",
				Label: "Research",
				Children: []*MindmapNode{
					{ID: "1-1", Label: "Gather resources"},
					{ID: "1-2", Label: "Find examples"},
				},
			},
			{
				ID:    "2",
				Label: "Plan",
				Children: []*MindmapNode{
					{ID: "2-1", Label: "Set milestones"},
					{ID: "2-2", Label: "Estimate time"},
				},
			},
			{
				ID:    "3",
				Label: "Execute",
				Children: []*MindmapNode{
					{ID: "3-1", Label: "Daily practice"},
					{ID: "3-2", Label: "Weekly review"},
				},
			},
		},
	}, nil
}
