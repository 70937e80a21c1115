package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
)

func TestCommentLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := seedTaskProject(t, env)
	task := env.task(t, f.alice.ID, f.project.ID, "Discuss")

	comment, err := env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID, "  Looks good  ", "update")
	require.NoError(t, err)
	assert.Equal(t, "Looks good", comment.Content)
	assert.Equal(t, "UPDATE", comment.ContentType)
	assert.Equal(t, f.bobMember.ID, comment.MemberID)

	_, err = env.comments.UpdateComment(ctx, f.alice.ID, f.project.ID, task.ID, comment.ID, "Hijacked")
	assert.ErrorIs(t, err, policy.ErrCommentNotAuthor)
	_, err = env.comments.UpdateComment(ctx, f.owner.ID, f.project.ID, task.ID, comment.ID, "Hijacked")
	assert.ErrorIs(t, err, policy.ErrCommentNotAuthor)

	edited, err := env.comments.UpdateComment(ctx, f.bob.ID, f.project.ID, task.ID, comment.ID, "Looks great")
	require.NoError(t, err)
	assert.Equal(t, "Looks great", edited.Content)

	assert.ErrorIs(t, env.comments.DeleteComment(ctx, f.alice.ID, f.project.ID, task.ID, comment.ID), policy.ErrCommentDeleteDenied)
	require.NoError(t, env.comments.DeleteComment(ctx, f.admin.ID, f.project.ID, task.ID, comment.ID))
	assert.ErrorIs(t, env.comments.DeleteComment(ctx, f.bob.ID, f.project.ID, task.ID, comment.ID), ErrCommentNotFound)
}

func TestAddComment_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := seedTaskProject(t, env)
	task := env.task(t, f.alice.ID, f.project.ID, "Discuss")

	_, err := env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID, "   ", "")
	assert.ErrorIs(t, err, ErrCommentEmpty)

	_, err = env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID, "Hi", "RANT")
	assert.ErrorIs(t, err, ErrInvalidCommentType)

	_, err = env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID+100, "Hi", "")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, env.tasks.DeleteTask(ctx, f.alice.ID, f.project.ID, task.ID))
	_, err = env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID, "Hi", "")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRemovedMemberKeepsAuthoredWork(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	f := seedTaskProject(t, env)
	task := env.task(t, f.bob.ID, f.project.ID, "Bob's task")
	_, err := env.comments.AddComment(ctx, f.bob.ID, f.project.ID, task.ID, "Note", "")
	require.NoError(t, err)
	_, _, err = env.tasks.AssignMember(ctx, f.owner.ID, f.project.ID, task.ID, f.bobMember.ID)
	require.NoError(t, err)

	require.NoError(t, env.members.RemoveMember(ctx, f.owner.ID, f.project.ID, f.bobMember.ID))

	detail, _, err := env.tasks.GetTask(ctx, f.alice.ID, f.project.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Creator)
	assert.Empty(t, detail.Assignments)
	require.Len(t, detail.Comments, 1)
	assert.Nil(t, detail.Comments[0].Author)

	page, err := env.tasks.ListTasks(ctx, f.alice.ID, repository.TaskListQuery{ProjectID: f.project.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
