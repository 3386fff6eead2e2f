package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

type CommentService struct {
	commentRepo *repository.CommentRepository
	reviews     *ReviewService
}

func NewCommentService(commentRepo *repository.CommentRepository, reviews *ReviewService) *CommentService {
	return &CommentService{commentRepo: commentRepo, reviews: reviews}
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID uint, req PageRequest) (*Page[models.Comment], error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	req = req.Normalize()

	comments, total, err := s.commentRepo.ListByReview(ctx, reviewID, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return newPage(comments, total, req), nil
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.find(ctx, reviewID, commentID)
}

func (s *CommentService) Create(ctx context.Context, actor *models.User, titleID, reviewID uint, text *string) (*models.Comment, error) {
	if err := policy.Check(policy.OwnerModeratorAdminOrReadOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}
	if _, err := s.reviews.Get(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateCommentText(text, true); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     *text,
		ReviewID: reviewID,
		AuthorID: actor.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.String("author", actor.Username),
	)
	return s.find(ctx, reviewID, comment.ID)
}

func (s *CommentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID uint, text *string) (*models.Comment, error) {
	comment, err := s.authorized(ctx, http.MethodPatch, actor, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := validateCommentText(text, false); err != nil {
		return nil, err
	}
	if text == nil {
		return comment, nil
	}

	comment.Text = *text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	logger.Log.Info("Comment updated",
		zap.Uint("comment_id", commentID),
		zap.String("editor", actor.Username),
	)
	return comment, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID uint) error {
	if _, err := s.authorized(ctx, http.MethodDelete, actor, titleID, reviewID, commentID); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.String("actor", actor.Username),
	)
	return nil
}

func (s *CommentService) authorized(ctx context.Context, method string, actor *models.User, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if err := policy.Check(policy.OwnerModeratorAdminOrReadOnly, method, actor); err != nil {
		return nil, err
	}

	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.OwnerModeratorAdminOrReadOnly, method, actor, policy.Resource{AuthorID: comment.AuthorID}); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) find(ctx context.Context, reviewID, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if comment == nil {
		return nil, notFound("comment", commentID)
	}
	return comment, nil
}

func validateCommentText(text *string, required bool) error {
	if text == nil {
		if required {
			return validators.NewError("text", "This field is required.")
		}
		return nil
	}
	if strings.TrimSpace(*text) == "" {
		return validators.NewError("text", "This field may not be blank.")
	}
	return nil
}
