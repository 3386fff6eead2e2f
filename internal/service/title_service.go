package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/Baaaki/yamdb/pkg/logger"
	"go.uber.org/zap"
)

// TitleFields carries a title write. Nil fields are left unchanged.
// Genre replaces the whole genre set; an empty, non-nil slice clears it.
// Category names a category slug; an empty string clears the category.
type TitleFields struct {
	Name        *string
	Year        *int
	Description *string
	Genre       []string
	Category    *string
}

type TitleService struct {
	titleRepo    *repository.TitleRepository
	genreRepo    *repository.GenreRepository
	categoryRepo *repository.CategoryRepository
}

func NewTitleService(
	titleRepo *repository.TitleRepository,
	genreRepo *repository.GenreRepository,
	categoryRepo *repository.CategoryRepository,
) *TitleService {
	return &TitleService{
		titleRepo:    titleRepo,
		genreRepo:    genreRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *TitleService) List(ctx context.Context, filter repository.TitleFilter, req PageRequest) (*Page[models.Title], error) {
	req = req.Normalize()
	titles, total, err := s.titleRepo.List(ctx, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	return newPage(titles, total, req), nil
}

func (s *TitleService) Get(ctx context.Context, id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get title: %w", err)
	}
	if title == nil {
		return nil, notFound("title", id)
	}
	return title, nil
}

func (s *TitleService) Create(ctx context.Context, actor *models.User, fields TitleFields) (*models.Title, error) {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}

	ve := &validators.ValidationError{}
	if fields.Name == nil {
		ve.Add("name", "This field is required.")
	}
	if fields.Year == nil {
		ve.Add("year", "This field is required.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	title := &models.Title{}
	genreIDs, err := s.apply(ctx, title, fields)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Create(ctx, title, genreIDs); err != nil {
		return nil, fmt.Errorf("create title: %w", err)
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
	)
	return s.Get(ctx, title.ID)
}

func (s *TitleService) Update(ctx context.Context, actor *models.User, id uint, fields TitleFields) (*models.Title, error) {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodPatch, actor); err != nil {
		return nil, err
	}

	title, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	genreIDs, err := s.apply(ctx, title, fields)
	if err != nil {
		return nil, err
	}

	if err := s.titleRepo.Update(ctx, title, genreIDs); err != nil {
		return nil, fmt.Errorf("update title: %w", err)
	}

	logger.Log.Info("Title updated", zap.Uint("title_id", id))
	return s.Get(ctx, id)
}

func (s *TitleService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodDelete, actor); err != nil {
		return err
	}

	exists, err := s.titleRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("get title: %w", err)
	}
	if !exists {
		return notFound("title", id)
	}

	if err := s.titleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete title: %w", err)
	}

	logger.Log.Info("Title deleted", zap.Uint("title_id", id))
	return nil
}

// apply validates fields, resolves slugs and copies the result onto title.
// The returned genre ids are nil when the genre set is left unchanged.
func (s *TitleService) apply(ctx context.Context, title *models.Title, fields TitleFields) ([]uint, error) {
	ve := &validators.ValidationError{}
	merge := func(err error) {
		if v, ok := err.(*validators.ValidationError); ok {
			ve.Merge(v)
		}
	}

	if fields.Name != nil {
		merge(validators.Name(*fields.Name))
	}
	if fields.Year != nil {
		merge(validators.TitleYear(*fields.Year))
	}

	var genreIDs []uint
	if fields.Genre != nil {
		genres, err := s.genreRepo.GetBySlugs(ctx, fields.Genre)
		if err != nil {
			return nil, fmt.Errorf("resolve genres: %w", err)
		}
		bySlug := make(map[string]uint, len(genres))
		for _, g := range genres {
			bySlug[g.Slug] = g.ID
		}
		genreIDs = make([]uint, 0, len(fields.Genre))
		for _, slug := range fields.Genre {
			id, ok := bySlug[slug]
			if !ok {
				ve.Add("genre", fmt.Sprintf("Genre with slug %q does not exist.", slug))
				continue
			}
			genreIDs = append(genreIDs, id)
		}
	}

	var category *models.Category
	if fields.Category != nil && *fields.Category != "" {
		var err error
		category, err = s.categoryRepo.GetBySlug(ctx, *fields.Category)
		if err != nil {
			return nil, fmt.Errorf("resolve category: %w", err)
		}
		if category == nil {
			ve.Add("category", fmt.Sprintf("Category with slug %q does not exist.", *fields.Category))
		}
	}

	if !ve.Empty() {
		return nil, ve
	}

	if fields.Name != nil {
		title.Name = *fields.Name
	}
	if fields.Year != nil {
		title.Year = *fields.Year
	}
	if fields.Description != nil {
		title.Description = *fields.Description
	}
	if fields.Category != nil {
		title.Category = category
		title.CategoryID = nil
		if category != nil {
			title.CategoryID = &category.ID
		}
	}
	return genreIDs, nil
}
