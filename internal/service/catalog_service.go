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

type CategoryService struct {
	categoryRepo *repository.CategoryRepository
}

func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) List(ctx context.Context, search string, req PageRequest) (*Page[models.Category], error) {
	req = req.Normalize()
	categories, total, err := s.categoryRepo.List(ctx, search, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return newPage(categories, total, req), nil
}

func (s *CategoryService) Create(ctx context.Context, actor *models.User, name, slug string) (*models.Category, error) {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}
	if err := validators.Collect(validators.Name(name), validators.Slug(slug)); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("category slug %q already exists: %w", slug, ErrConflict)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	logger.Log.Info("Category created", zap.String("slug", slug))
	return category, nil
}

func (s *CategoryService) Delete(ctx context.Context, actor *models.User, slug string) error {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodDelete, actor); err != nil {
		return err
	}

	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return notFound("category", slug)
	}

	if err := s.categoryRepo.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	logger.Log.Info("Category deleted", zap.String("slug", slug))
	return nil
}

type GenreService struct {
	genreRepo *repository.GenreRepository
}

func NewGenreService(genreRepo *repository.GenreRepository) *GenreService {
	return &GenreService{genreRepo: genreRepo}
}

func (s *GenreService) List(ctx context.Context, search string, req PageRequest) (*Page[models.Genre], error) {
	req = req.Normalize()
	genres, total, err := s.genreRepo.List(ctx, search, req.Page, req.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return newPage(genres, total, req), nil
}

func (s *GenreService) Create(ctx context.Context, actor *models.User, name, slug string) (*models.Genre, error) {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodPost, actor); err != nil {
		return nil, err
	}
	if err := validators.Collect(validators.Name(name), validators.Slug(slug)); err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.Create(ctx, genre); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("genre slug %q already exists: %w", slug, ErrConflict)
		}
		return nil, fmt.Errorf("create genre: %w", err)
	}

	logger.Log.Info("Genre created", zap.String("slug", slug))
	return genre, nil
}

func (s *GenreService) Delete(ctx context.Context, actor *models.User, slug string) error {
	if err := policy.Check(policy.AdminOrReadOnly, http.MethodDelete, actor); err != nil {
		return err
	}

	genre, err := s.genreRepo.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("get genre: %w", err)
	}
	if genre == nil {
		return notFound("genre", slug)
	}

	if err := s.genreRepo.Delete(ctx, genre.ID); err != nil {
		return fmt.Errorf("delete genre: %w", err)
	}

	logger.Log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}
