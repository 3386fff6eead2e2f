package dto

import "github.com/Baaaki/yamdb/internal/models"

// TitleRequest serves both create and partial update. Genre and Category
// carry slugs; a null genre list leaves the genres unchanged.
type TitleRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=256"`
	Year        *int     `json:"year" binding:"omitempty,title_year"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre" binding:"omitempty,dive,slug"`
	Category    *string  `json:"category"`
}

type TitleResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description string            `json:"description"`
	Genre       []CatalogResponse `json:"genre"`
	Category    *CatalogResponse  `json:"category"`
}

func ToTitleResponse(t *models.Title) TitleResponse {
	genres := make([]CatalogResponse, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, ToGenreResponse(&t.Genres[i]))
	}

	var category *CatalogResponse
	if t.Category != nil {
		c := ToCategoryResponse(t.Category)
		category = &c
	}

	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
