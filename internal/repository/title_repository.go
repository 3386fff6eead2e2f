package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Baaaki/yamdb/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	Genre    string
	Category string
	Name     string
	Year     *int
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

// Create inserts title and links it to genreIDs in one transaction.
func (r *TitleRepository) Create(ctx context.Context, title *models.Title, genreIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(title).Error; err != nil {
			return err
		}
		return linkGenres(tx, title.ID, genreIDs)
	})
}

// Update writes the scalar columns of title. When genreIDs is non-nil the
// genre links are replaced by it.
func (r *TitleRepository) Update(ctx context.Context, title *models.Title, genreIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(title).Updates(map[string]interface{}{
			"name":        title.Name,
			"year":        title.Year,
			"description": title.Description,
			"category_id": title.CategoryID,
		}).Error
		if err != nil {
			return err
		}
		if genreIDs == nil {
			return nil
		}
		if err := tx.Where("title_id = ?", title.ID).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return linkGenres(tx, title.ID, genreIDs)
	})
}

func linkGenres(tx *gorm.DB, titleID uint, genreIDs []uint) error {
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]models.GenreTitle, 0, len(genreIDs))
	seen := make(map[uint]bool, len(genreIDs))
	for _, id := range genreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, models.GenreTitle{GenreID: id, TitleID: titleID})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

// GetByID returns the title with its category, genres and rating, or
// nil, nil when it does not exist.
func (r *TitleRepository) GetByID(ctx context.Context, id uint) (*models.Title, error) {
	db := r.db.WithContext(ctx)

	var title models.Title
	err := db.Preload("Category").Where("id = ?", id).First(&title).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	titles := []models.Title{title}
	if err := r.enrich(db, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

// Exists reports whether a title with id is stored.
func (r *TitleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns titles ordered by name matching filter.
func (r *TitleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&models.Title{})

	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where(containsClause("titles.name"), containsPattern(name))
	}
	if filter.Year != nil {
		query = query.Where("titles.year = ?", *filter.Year)
	}
	if filter.Category != "" {
		query = query.Where("titles.category_id IN (?)",
			db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.Category))
	}
	if filter.Genre != "" {
		query = query.Where("titles.id IN (?)",
			db.Table("genre_titles").
				Select("genre_titles.title_id").
				Joins("JOIN genres ON genres.id = genre_titles.genre_id").
				Where("genres.slug = ?", filter.Genre))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err := query.Preload("Category").
		Order("titles.name").Order("titles.id").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.enrich(db, titles); err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

type titleGenreRow struct {
	TitleID uint
	ID      uint
	Name    string
	Slug    string
}

type titleRatingRow struct {
	TitleID uint
	Rating  float64
}

// enrich fills Genres and Rating of titles in place.
func (r *TitleRepository) enrich(db *gorm.DB, titles []models.Title) error {
	if len(titles) == 0 {
		return nil
	}

	ids := make([]uint, len(titles))
	index := make(map[uint]int, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
		index[titles[i].ID] = i
		titles[i].Genres = []models.Genre{}
		titles[i].Rating = nil
	}

	var genreRows []titleGenreRow
	err := db.Table("genre_titles").
		Select("genre_titles.title_id, genres.id, genres.name, genres.slug").
		Joins("JOIN genres ON genres.id = genre_titles.genre_id").
		Where("genre_titles.title_id IN ?", ids).
		Order("genres.name").Order("genres.id").
		Scan(&genreRows).Error
	if err != nil {
		return err
	}
	for _, row := range genreRows {
		i := index[row.TitleID]
		titles[i].Genres = append(titles[i].Genres, models.Genre{ID: row.ID, Name: row.Name, Slug: row.Slug})
	}

	var ratingRows []titleRatingRow
	err = db.Model(&models.Review{}).
		Select("title_id, AVG(score) AS rating").
		Where("title_id IN ?", ids).
		Group("title_id").
		Scan(&ratingRows).Error
	if err != nil {
		return err
	}
	for _, row := range ratingRows {
		rating := row.Rating
		titles[index[row.TitleID]].Rating = &rating
	}
	return nil
}

// Delete removes the title with its reviews, their comments and its genre
// links.
func (r *TitleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviews).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Title{}, id).Error
	})
}
