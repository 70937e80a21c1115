package services

import (
	"context"
	"strings"

	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrCommentNotFound    = apierrors.New(apierrors.KindNotFound, "Comment not found")
	ErrCommentEmpty       = apierrors.Invalid("Comment content is required", apierrors.FieldError{Field: "content", Message: "is required"})
	ErrInvalidCommentType = apierrors.Invalid("Invalid comment type", apierrors.FieldError{Field: "content_type", Message: "must be one of: GENERAL QUESTION UPDATE"})
)

var commentTypes = map[string]struct{}{
	"GENERAL":  {},
	"QUESTION": {},
	"UPDATE":   {},
}

// CommentService handles task comments.
type CommentService struct {
	store    repository.Store
	resolver *MembershipResolver
	logger   *zap.Logger
}

func NewCommentService(store repository.Store, resolver *MembershipResolver, logger *zap.Logger) *CommentService {
	return &CommentService{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

// AddComment posts a comment on a live task as the caller's membership.
func (s *CommentService) AddComment(ctx context.Context, userID, projectID, taskID uint64, content, contentType string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentEmpty
	}
	contentType, err := commentType(contentType)
	if err != nil {
		return nil, err
	}

	_, actor, err := s.resolver.Access(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	task, err := s.store.Tasks().FindByID(ctx, projectID, taskID)
	if err != nil {
		return nil, lookupError(err, ErrTaskNotFound, "failed to find task")
	}

	comment := &models.Comment{
		TaskID:      task.ID,
		MemberID:    actor.ID,
		Content:     content,
		ContentType: contentType,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, apierrors.FromStore(err, "failed to create comment")
	}
	comment.Author = actor

	s.logger.Info("comment added",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("comment_id", comment.ID),
	)
	return comment, nil
}

// UpdateComment edits a comment. Only its author may do so.
func (s *CommentService) UpdateComment(ctx context.Context, userID, projectID, taskID, commentID uint64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrCommentEmpty
	}

	comment, actor, err := s.findComment(ctx, userID, projectID, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanEditComment(actor, comment); err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.store.Comments().Update(ctx, comment, "content"); err != nil {
		return nil, apierrors.FromStore(err, "failed to update comment")
	}
	comment.Author = actor

	s.logger.Info("comment updated",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("comment_id", commentID),
	)
	return comment, nil
}

// DeleteComment removes a comment. Its author, an ADMIN or the OWNER may do so.
func (s *CommentService) DeleteComment(ctx context.Context, userID, projectID, taskID, commentID uint64) error {
	comment, actor, err := s.findComment(ctx, userID, projectID, taskID, commentID)
	if err != nil {
		return err
	}
	if err := policy.CanDeleteComment(actor, comment); err != nil {
		return err
	}

	if err := s.store.Comments().Delete(ctx, comment.ID); err != nil {
		return apierrors.FromStore(err, "failed to delete comment")
	}

	s.logger.Info("comment deleted",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("comment_id", commentID),
	)
	return nil
}

func (s *CommentService) findComment(ctx context.Context, userID, projectID, taskID, commentID uint64) (*models.Comment, *models.Member, error) {
	_, actor, err := s.resolver.Access(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.store.Tasks().FindByID(ctx, projectID, taskID); err != nil {
		return nil, nil, lookupError(err, ErrTaskNotFound, "failed to find task")
	}
	comment, err := s.store.Comments().FindByID(ctx, taskID, commentID)
	if err != nil {
		return nil, nil, lookupError(err, ErrCommentNotFound, "failed to find comment")
	}
	return comment, actor, nil
}

func commentType(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return "GENERAL", nil
	}
	if _, ok := commentTypes[t]; !ok {
		return "", ErrInvalidCommentType
	}
	return t, nil
}
