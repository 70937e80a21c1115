package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-collab-api/internal/models"
)

func TestParseGeneratedTasks(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{name: "plain array", content: `[{"title":"Write docs","priority":"high","due_date":null}]`, want: 1},
		{name: "fenced", content: "```json\n[{\"title\":\"A\"},{\"title\":\"B\"}]\n```", want: 2},
		{name: "empty", content: `[]`, want: 0},
		{name: "prose", content: "Sure! Here are your tasks.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := parseGeneratedTasks(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tasks, tt.want)
		})
	}

	tasks, err := parseGeneratedTasks(`[{"title":"Write docs","priority":"high","due_date":"2030-01-02T15:04:05Z"}]`)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskPriorityHigh, tasks[0].Priority)
	require.NotNil(t, tasks[0].DueDate)
	assert.Equal(t, 2030, tasks[0].DueDate.Year())
}

func TestNewAIService_WithoutKey(t *testing.T) {
	assert.Nil(t, NewAIService(""))

	var svc *AIService
	_, err := svc.GenerateTasksFromText(context.Background(), "anything")
	assert.Error(t, err)
}
