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

// ReviewFields carries a review write. Nil fields are left unchanged.
type ReviewFields struct {
	Text  *string
	Score *int
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, titleRepo *repository.TitleRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, titleRepo: titleRepo}
}

func (s *ReviewService) List(ctx context.Context, titleID uint, req PageRequest) (*Page[models.Review], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	req = req.Normalize()

	reviews, total, err := s.reviewRepo.ListByTitle(ctx, titleID, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return newPage(reviews, total, req), nil
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.find(ctx, titleID, reviewID)
}

// Create adds actor's review of the title. An author reviews a title once;
// a second attempt fails with ErrConflict.
func (s *ReviewService) Create(ctx context.Context, actor *models.User, titleID uint, fields ReviewFields) (*models.Review, error) {
	if err := policy.Check(policy.OwnerModeratorAdminOrReadOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	ve := &validators.ValidationError{}
	if fields.Text == nil {
		ve.Add("text", "This field is required.")
	}
	if fields.Score == nil {
		ve.Add("score", "This field is required.")
	}
	if !ve.Empty() {
		return nil, ve
	}
	if err := validateReview(fields); err != nil {
		return nil, err
	}

	exists, err := s.reviewRepo.ExistsForAuthor(ctx, titleID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("review of title %d by %s: %w", titleID, actor.Username, ErrConflict)
	}

	review := &models.Review{
		Text:     *fields.Text,
		Score:    *fields.Score,
		TitleID:  titleID,
		AuthorID: actor.ID,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("review of title %d by %s: %w", titleID, actor.Username, ErrConflict)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.String("author", actor.Username),
		zap.Int("score", review.Score),
	)
	return s.find(ctx, titleID, review.ID)
}

func (s *ReviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID uint, fields ReviewFields) (*models.Review, error) {
	review, err := s.authorized(ctx, http.MethodPatch, actor, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := validateReview(fields); err != nil {
		return nil, err
	}

	if fields.Text != nil {
		review.Text = *fields.Text
	}
	if fields.Score != nil {
		review.Score = *fields.Score
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	logger.Log.Info("Review updated",
		zap.Uint("review_id", reviewID),
		zap.String("editor", actor.Username),
	)
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID uint) error {
	if _, err := s.authorized(ctx, http.MethodDelete, actor, titleID, reviewID); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	logger.Log.Info("Review deleted",
		zap.Uint("review_id", reviewID),
		zap.String("actor", actor.Username),
	)
	return nil
}

// authorized loads the review and applies the object-level check.
func (s *ReviewService) authorized(ctx context.Context, method string, actor *models.User, titleID, reviewID uint) (*models.Review, error) {
	if err := policy.Check(policy.OwnerModeratorAdminOrReadOnly, method, actor); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review, err := s.find(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.OwnerModeratorAdminOrReadOnly, method, actor, policy.Resource{AuthorID: review.AuthorID}); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) requireTitle(ctx context.Context, titleID uint) error {
	exists, err := s.titleRepo.Exists(ctx, titleID)
	if err != nil {
		return fmt.Errorf("get title: %w", err)
	}
	if !exists {
		return notFound("title", titleID)
	}
	return nil
}

func (s *ReviewService) find(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, notFound("review", reviewID)
	}
	return review, nil
}

func validateReview(fields ReviewFields) error {
	ve := &validators.ValidationError{}
	if fields.Text != nil && strings.TrimSpace(*fields.Text) == "" {
		ve.Add("text", "This field may not be blank.")
	}
	if fields.Score != nil {
		if v, ok := validators.Score(*fields.Score).(*validators.ValidationError); ok {
			ve.Merge(v)
		}
	}
	return ve.OrNil()
}
