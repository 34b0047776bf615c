package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/model"
)

// Completer is the completion backend as the handlers see it: slow, fallible,
// and replaceable with a double in tests.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, transcript []model.Message) (string, error)
	GenerateQuiz(ctx context.Context, subject, conceptName string, gradeLevel, count int) (*Quiz, error)
}

// CompletionClient talks to an OpenAI-compatible chat completions endpoint.
type CompletionClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewCompletionClient(baseURL, apiKey, modelName string, timeout time.Duration) *CompletionClient {
	return &CompletionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system prompt plus the transcript and returns the
// assistant text. Failures and timeouts surface as retryable dependency
// errors; nothing is persisted on this path.
func (c *CompletionClient) Complete(ctx context.Context, systemPrompt string, transcript []model.Message) (string, error) {
	messages := make([]chatMessage, 0, len(transcript)+1)
	messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range transcript {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	text, err := c.call(ctx, chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDependency, "tutoring service is unavailable, try again", err)
	}
	return text, nil
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// GenerateQuiz asks for multiple-choice questions as JSON. Models wrap the
// payload in markdown fences often enough that the body is extracted before
// parsing.
func (c *CompletionClient) GenerateQuiz(ctx context.Context, subject, conceptName string, gradeLevel, count int) (*Quiz, error) {
	prompt := quizPrompt(subject, conceptName, gradeLevel, count)

	text, err := c.call(ctx, chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   2048,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "quiz generation is unavailable, try again", err)
	}

	var quiz Quiz
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &quiz); err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "quiz generation returned an unreadable result, try again", err)
	}
	if len(quiz.Questions) == 0 {
		return nil, apperr.New(apperr.ErrDependency, "quiz generation returned no questions, try again")
	}
	return &quiz, nil
}

func (c *CompletionClient) call(ctx context.Context, reqBody chatRequest) (string, error) {
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("completion backend returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

// ExtractJSON strips markdown code fences around a JSON payload. If no fence
// is found the text is returned trimmed, falling back to the first '{'..'}'
// span when leading prose precedes the object.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		return strings.TrimSpace(trimmed)
	}

	if !strings.HasPrefix(trimmed, "{") {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start >= 0 && end > start {
			return trimmed[start : end+1]
		}
	}
	return trimmed
}
