package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// TextGenerator は生成AIのテキスト生成を抽象化したインターフェースです。
type TextGenerator interface {
	// Generate は単発のプロンプトに対する応答を返します。
	Generate(ctx context.Context, prompt string) (string, error)
	// Chat はシステムプロンプトと会話履歴から次の応答を返します。
	Chat(ctx context.Context, system string, history []Message) (string, error)
}

// ErrEmptyResponse はモデルが空の応答を返したことを表します。
var ErrEmptyResponse = errors.New("empty response from model")

// DefaultModel は設定がない場合に使うモデル名です。
const DefaultModel = "gemini-2.0-flash"

// GenAIGenerator はGoogle Gemini APIを使ったTextGeneratorの実装です。
type GenAIGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIGenerator は新しいGenAIGeneratorを生成します。
// timeout が0の場合、呼び出し元のcontext以外による打ち切りはしません。
func NewGenAIGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate は単発のプロンプトに対する応答を返します。
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	return g.generate(ctx, contents, nil)
}

// Chat はシステムプロンプトと会話履歴から次の応答を返します。
func (g *GenAIGenerator) Chat(ctx context.Context, system string, history []Message) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	// 履歴が空でも最初の質問を出させる
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("Let's start.", genai.RoleUser))
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	return g.generate(ctx, contents, config)
}

func (g *GenAIGenerator) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model はモデル名を返します。
func (g *GenAIGenerator) Model() string {
	return g.model
}
