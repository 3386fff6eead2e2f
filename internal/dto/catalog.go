package dto

import "github.com/Baaaki/yamdb/internal/models"

// CatalogRequest creates a category or a genre.
type CatalogRequest struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,slug"`
}

type CatalogResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func ToCategoryResponse(c *models.Category) CatalogResponse {
	return CatalogResponse{Name: c.Name, Slug: c.Slug}
}

func ToGenreResponse(g *models.Genre) CatalogResponse {
	return CatalogResponse{Name: g.Name, Slug: g.Slug}
}
