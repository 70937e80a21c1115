package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/project-collab-api/internal/models"
)

// AIService extracts task suggestions from free text using OpenAI.
type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// GeneratedTask is one task suggestion returned by the model.
type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// NewAIService returns nil when apiKey is empty.
func NewAIService(apiKey string) *AIService {
	if apiKey == "" {
		return nil
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

const taskPrompt = `You are a task extraction assistant. Extract concrete tasks from the text below.

Current time: %s

Text:
%s

Return a JSON array of the extracted tasks in this shape:
[
  {
    "title": "short task title",
    "description": "task details",
    "priority": "LOW, MEDIUM or HIGH",
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Turn relative deadlines such as "tomorrow" or "next week" into concrete timestamps
- due_date must be an ISO8601 string or null
- Return JSON only, with no surrounding prose`

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(taskPrompt, s.now().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks decodes the model output, tolerating a markdown code fence.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
		body = strings.TrimSpace(body)
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	for i := range tasks {
		tasks[i].Priority = models.TaskPriority(strings.ToUpper(string(tasks[i].Priority)))
	}

	return tasks, nil
}
