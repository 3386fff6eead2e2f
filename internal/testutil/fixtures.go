package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/mail"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TestSecret is the JWT secret used across tests.
const TestSecret = "test-secret-key-for-yamdb-testing-0123456789"

// Keys derives the signing keys for TestSecret.
func Keys(t *testing.T) *utils.Keys {
	t.Helper()
	keys, err := utils.NewKeys(TestSecret)
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}
	return keys
}

// CreateUser inserts a user with the given role; email is derived from the
// username.
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// CreateSuperuser inserts a superuser whose stored role is user.
func CreateSuperuser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Role:        models.RoleUser,
		IsSuperuser: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create superuser %s: %v", username, err)
	}
	return user
}

// AccessToken issues a bearer token for user.
func AccessToken(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(user, Keys(t).Access, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

func CreateCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category %s: %v", slug, err)
	}
	return category
}

func CreateGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	t.Helper()
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create genre %s: %v", slug, err)
	}
	return genre
}

// CreateTitle inserts a title in category (may be nil) linked to genres.
func CreateTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	if err := db.Omit(clause.Associations).Create(title).Error; err != nil {
		t.Fatalf("Failed to create title %s: %v", name, err)
	}
	for _, g := range genres {
		link := &models.GenreTitle{GenreID: g.ID, TitleID: title.ID}
		if err := db.Omit(clause.Associations).Create(link).Error; err != nil {
			t.Fatalf("Failed to link genre %s: %v", g.Slug, err)
		}
	}
	return title
}

func CreateReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, score int) *models.Review {
	t.Helper()
	review := &models.Review{
		Text:     fmt.Sprintf("%s rates %s", author.Username, title.Name),
		Score:    score,
		TitleID:  title.ID,
		AuthorID: author.ID,
	}
	if err := db.Omit(clause.Associations).Create(review).Error; err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}
	return review
}

func CreateComment(t *testing.T, db *gorm.DB, review *models.Review, author *models.User, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{Text: text, ReviewID: review.ID, AuthorID: author.ID}
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		t.Fatalf("Failed to create comment: %v", err)
	}
	return comment
}

// CaptureMailer keeps sent messages in memory.
type CaptureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	Err      error
}

func (m *CaptureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *CaptureMailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// LastCodeFor returns the confirmation code of the latest message sent to
// email, or "" when there is none.
func (m *CaptureMailer) LastCodeFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if len(msg.To) == 1 && msg.To[0] == email {
			return extractCode(msg.Body)
		}
	}
	return ""
}

// extractCode returns the last word of a confirmation email body.
func extractCode(body string) string {
	words := strings.Fields(body)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}
