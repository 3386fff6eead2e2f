package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts review. A second review of the same title by the same
// author fails with gorm.ErrDuplicatedKey.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Model(review).Updates(map[string]interface{}{
		"text":  review.Text,
		"score": review.Score,
	}).Error
}

// GetByID returns the review only if it belongs to titleID. The author and
// title are preloaded. nil, nil means not found.
func (r *ReviewRepository) GetByID(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Title").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// ExistsForAuthor reports whether authorID already reviewed titleID.
func (r *ReviewRepository) ExistsForAuthor(ctx context.Context, titleID uint, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	return count > 0, err
}

// ListByTitle returns the title's reviews, newest first.
func (r *ReviewRepository) ListByTitle(ctx context.Context, titleID uint, page, pageSize int) ([]models.Review, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ?", titleID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err = r.db.WithContext(ctx).
		Preload("Author").
		Preload("Title").
		Where("title_id = ?", titleID).
		Order("pub_date DESC").Order("id DESC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Delete removes the review and its comments.
func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Review{}, id).Error
	})
}
