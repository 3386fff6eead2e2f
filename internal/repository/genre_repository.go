package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
)

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) Create(ctx context.Context, genre *models.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

// GetBySlug returns nil, nil when the slug is unknown.
func (r *GenreRepository) GetBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &genre, nil
}

// GetBySlugs returns the genres matching slugs. Unknown slugs are simply
// absent from the result.
func (r *GenreRepository) GetBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var genres []models.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&genres).Error
	return genres, err
}

func (r *GenreRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Genre, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Genre{})
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where(containsClause("name"), containsPattern(search))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []models.Genre
	err := query.Order("name").Order("id").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&genres).Error
	if err != nil {
		return nil, 0, err
	}
	return genres, total, nil
}

// Delete removes the genre and its title links. Titles stay.
func (r *GenreRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("genre_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Genre{}, id).Error
	})
}
