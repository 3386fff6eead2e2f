package dto

import (
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginated(t *testing.T) {
	items := []models.Genre{{Name: "Drama", Slug: "drama"}, {Name: "Crime", Slug: "crime"}}

	page := NewPaginated(items, 5, 1, 2, ToGenreResponse)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.TotalPages)
	assert.EqualValues(t, 5, page.Total)

	empty := NewPaginated([]models.Genre(nil), 0, 4, 20, ToGenreResponse)
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestToUserResponse_SuperuserReadsAsAdmin(t *testing.T) {
	resp := ToUserResponse(&models.User{Username: "root", Role: models.RoleUser, IsSuperuser: true})
	assert.Equal(t, models.RoleAdmin, resp.Role)

	resp = ToUserResponse(&models.User{Username: "mod", Role: models.RoleModerator})
	assert.Equal(t, models.RoleModerator, resp.Role)
}

func TestToTitleResponse(t *testing.T) {
	rating := 7.5
	title := &models.Title{
		ID:       3,
		Name:     "Heat",
		Year:     1995,
		Genres:   []models.Genre{{Name: "Crime", Slug: "crime"}},
		Category: &models.Category{Name: "Films", Slug: "films"},
		Rating:   &rating,
	}

	resp := ToTitleResponse(title)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "films", resp.Category.Slug)
	assert.Equal(t, []CatalogResponse{{Name: "Crime", Slug: "crime"}}, resp.Genre)
	assert.Equal(t, &rating, resp.Rating)

	bare := ToTitleResponse(&models.Title{ID: 4, Name: "Dune", Year: 1965})
	assert.Nil(t, bare.Category)
	assert.Nil(t, bare.Rating)
	assert.NotNil(t, bare.Genre)
}

func TestToReviewAndCommentResponse(t *testing.T) {
	now := time.Now()
	author := &models.User{Username: "alice"}

	review := ToReviewResponse(&models.Review{
		ID: 1, Text: "Great", Score: 9, PubDate: now,
		Author: author, Title: &models.Title{Name: "Heat"},
	})
	assert.Equal(t, "alice", review.Author)
	assert.Equal(t, "Heat", review.Title)

	comment := ToCommentResponse(&models.Comment{ID: 2, Text: "Agreed", PubDate: now, Author: author})
	assert.Equal(t, "alice", comment.Author)
	assert.Equal(t, now, comment.PubDate)
}
