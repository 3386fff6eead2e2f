package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/server"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// APIIntegrationTestSuite drives the full router over an in-memory database.
type APIIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	mailer *testutil.CaptureMailer
	router *gin.Engine

	admin     *models.User
	moderator *models.User
	alice     *models.User
	bob       *models.User
}

func (s *APIIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

func (s *APIIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *APIIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.mailer = &testutil.CaptureMailer{}

	cfg := &config.Config{
		Environment:         "test",
		JWTExpiry:           time.Hour,
		ConfirmationCodeTTL: time.Hour,
		MailFrom:            "noreply@yamdb.test",
		CORSOrigins:         []string{"http://localhost:3000"},
		MetricsEnabled:      true,
	}
	router, err := server.NewRouter(server.Dependencies{
		Config:  cfg,
		DB:      s.testDB.DB,
		Keys:    testutil.Keys(s.T()),
		Mailer:  s.mailer,
		Limiter: middleware.NewMemoryLimiter(middleware.RateLimiterConfig{MaxRequests: 10000, Window: time.Minute}),
	})
	s.Require().NoError(err)
	s.router = router

	db := s.testDB.DB
	s.admin = testutil.CreateUser(s.T(), db, "admin", models.RoleAdmin)
	s.moderator = testutil.CreateUser(s.T(), db, "mod", models.RoleModerator)
	s.alice = testutil.CreateUser(s.T(), db, "alice", models.RoleUser)
	s.bob = testutil.CreateUser(s.T(), db, "bob", models.RoleUser)
}

// do sends body as JSON. user may be nil for anonymous requests.
func (s *APIIntegrationTestSuite) do(method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+testutil.AccessToken(s.T(), user))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APIIntegrationTestSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (s *APIIntegrationTestSuite) fields(w *httptest.ResponseRecorder) map[string]interface{} {
	s.Require().Equal(http.StatusBadRequest, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal("validation failed", body["error"])
	fields, ok := body["fields"].(map[string]interface{})
	s.Require().True(ok, w.Body.String())
	return fields
}

func (s *APIIntegrationTestSuite) TestSignupAndTokenFlow() {
	w := s.do(http.MethodPost, "/auth/signup", nil, map[string]string{
		"email":    "carol@example.com",
		"username": "carol",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(map[string]interface{}{"email": "carol@example.com", "username": "carol"}, s.decode(w))

	code := s.mailer.LastCodeFor("carol@example.com")
	s.Require().NotEmpty(code)

	w = s.do(http.MethodPost, "/auth/token", nil, map[string]string{"username": "carol", "confirmation_code": "wrong"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid confirmation_code.", s.decode(w)["message"])

	w = s.do(http.MethodPost, "/auth/token", nil, map[string]string{"username": "carol", "confirmation_code": code})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	token, _ := s.decode(w)["token"].(string)
	s.Require().NotEmpty(token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)
	s.Require().Equal(http.StatusOK, me.Code)
	s.Equal("user", s.decode(me)["role"])

	w = s.do(http.MethodPost, "/auth/token", nil, map[string]string{"username": "carol", "confirmation_code": code})
	s.Equal(http.StatusBadRequest, w.Code, "a code is single use")

	w = s.do(http.MethodPost, "/auth/signup", nil, map[string]string{"email": "carol@example.com", "username": "carol"})
	s.Equal(http.StatusOK, w.Code, "repeating signup re-sends the code")
	s.Len(s.mailer.Messages(), 2)
}

func (s *APIIntegrationTestSuite) TestSignupValidation() {
	fields := s.fields(s.do(http.MethodPost, "/auth/signup", nil, map[string]string{"email": "me@example.com", "username": "me"}))
	s.Contains(fields, "username")

	fields = s.fields(s.do(http.MethodPost, "/auth/signup", nil, map[string]string{"username": "dave"}))
	s.Contains(fields, "email")

	fields = s.fields(s.do(http.MethodPost, "/auth/signup", nil, map[string]string{"email": "alice@example.com", "username": "someone"}))
	s.Contains(fields, "email")

	w := s.do(http.MethodPost, "/auth/token", nil, map[string]string{"username": "ghost", "confirmation_code": "x"})
	s.Equal(http.StatusNotFound, w.Code)

	fields = s.fields(s.do(http.MethodPost, "/auth/token", nil, map[string]string{"username": "alice"}))
	s.Contains(fields, "confirmation_code")
}

func (s *APIIntegrationTestSuite) TestInvalidBearerToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APIIntegrationTestSuite) TestUsersEndpoints() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/users", nil, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/users", s.alice, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/users", s.moderator, nil).Code)

	w := s.do(http.MethodGet, "/users?search=ali", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	page := s.decode(w)
	s.EqualValues(1, page["total"])
	s.EqualValues(1, page["total_pages"])

	w = s.do(http.MethodPost, "/users", s.admin, map[string]string{
		"username": "erin", "email": "erin@example.com", "role": "moderator",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("moderator", s.decode(w)["role"])

	w = s.do(http.MethodPost, "/users", s.admin, map[string]string{"username": "erin", "email": "other@example.com"})
	s.Equal(http.StatusConflict, w.Code)

	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodPut, "/users/alice", s.admin, map[string]string{}).Code)

	w = s.do(http.MethodPatch, "/users/alice", s.admin, map[string]string{"bio": "hello"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("hello", s.decode(w)["bio"])

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/users/bob", s.admin, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/users/bob", s.admin, nil).Code)
}

func (s *APIIntegrationTestSuite) TestUsersMe() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/users/me", nil, nil).Code)

	w := s.do(http.MethodPatch, "/users/me", s.alice, map[string]string{"role": "admin", "first_name": "Alice"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := s.decode(w)
	s.Equal("user", body["role"])
	s.Equal("Alice", body["first_name"])

	for _, method := range []string{http.MethodPut, http.MethodPost, http.MethodDelete} {
		s.Equal(http.StatusMethodNotAllowed, s.do(method, "/users/me", s.alice, nil).Code, method)
	}

	w = s.do(http.MethodGet, "/users/me", s.admin, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("admin", s.decode(w)["username"])
}

func (s *APIIntegrationTestSuite) TestCatalogAndTitles() {
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/categories", s.moderator, map[string]string{"name": "Films", "slug": "films"}).Code)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/categories", s.admin, map[string]string{"name": "Films", "slug": "films"}).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/categories", s.admin, map[string]string{"name": "Other", "slug": "films"}).Code)
	s.Contains(s.fields(s.do(http.MethodPost, "/genres", s.admin, map[string]string{"name": "Bad", "slug": "bad slug"})), "slug")
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/genres", s.admin, map[string]string{"name": "Drama", "slug": "drama"}).Code)

	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodGet, "/categories/films", nil, nil).Code)
	s.Equal(http.StatusMethodNotAllowed, s.do(http.MethodPatch, "/genres/drama", s.admin, map[string]string{"name": "x"}).Code)

	w := s.do(http.MethodPost, "/titles", s.admin, map[string]interface{}{
		"name": "Heat", "year": 1995, "genre": []string{"drama"}, "category": "films",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	title := s.decode(w)
	s.Nil(title["rating"])
	s.Equal(map[string]interface{}{"name": "Films", "slug": "films"}, title["category"])
	s.Len(title["genre"], 1)
	id := int(title["id"].(float64))

	writes := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPost, "/categories", map[string]string{"name": "Books", "slug": "books"}},
		{http.MethodDelete, "/categories/films", nil},
		{http.MethodPost, "/genres", map[string]string{"name": "Comedy", "slug": "comedy"}},
		{http.MethodDelete, "/genres/drama", nil},
		{http.MethodPost, "/titles", map[string]interface{}{"name": "Ronin", "year": 1998}},
		{http.MethodPatch, fmt.Sprintf("/titles/%d", id), map[string]interface{}{"name": "Renamed"}},
		{http.MethodDelete, fmt.Sprintf("/titles/%d", id), nil},
	}
	for _, role := range []*models.User{s.alice, s.moderator} {
		for _, tc := range writes {
			w := s.do(tc.method, tc.path, role, tc.body)
			s.Equal(http.StatusForbidden, w.Code, "%s %s as %s", tc.method, tc.path, role.Role)
		}
	}
	for _, path := range []string{"/categories", "/genres", "/titles", fmt.Sprintf("/titles/%d", id)} {
		s.Equal(http.StatusOK, s.do(http.MethodGet, path, nil, nil).Code, path)
		s.Equal(http.StatusOK, s.do(http.MethodGet, path, s.alice, nil).Code, path)
	}

	s.Contains(s.fields(s.do(http.MethodPost, "/titles", s.admin, map[string]interface{}{
		"name": "Later", "year": time.Now().Year() + 1,
	})), "year")
	s.Contains(s.fields(s.do(http.MethodPost, "/titles", s.admin, map[string]interface{}{
		"name": "Ghost", "year": 2000, "genre": []string{"nope"},
	})), "genre")

	w = s.do(http.MethodGet, "/titles?genre=drama&year=1995", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.decode(w)["total"])

	w = s.do(http.MethodPatch, fmt.Sprintf("/titles/%d", id), s.admin, map[string]interface{}{"category": ""})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := s.decode(w)
	s.Nil(updated["category"])
	s.Len(updated["genre"], 1, "genres are kept when absent from the body")

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/titles/abc", nil, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/categories/films", s.admin, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, fmt.Sprintf("/titles/%d", id), s.admin, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/titles/%d", id), nil, nil).Code)
}

func (s *APIIntegrationTestSuite) TestReviewsAndComments() {
	title := testutil.CreateTitle(s.T(), s.testDB.DB, "Heat", 1995, nil)
	base := fmt.Sprintf("/titles/%d/reviews", title.ID)

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, base, nil, map[string]interface{}{"text": "x", "score": 5}).Code)

	w := s.do(http.MethodPost, base, s.alice, map[string]interface{}{"text": "Great", "score": 9})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	review := s.decode(w)
	s.Equal("alice", review["author"])
	s.Equal("Heat", review["title"])
	s.NotEmpty(review["pub_date"])
	reviewPath := fmt.Sprintf("%s/%d", base, int(review["id"].(float64)))

	s.Equal(http.StatusConflict, s.do(http.MethodPost, base, s.alice, map[string]interface{}{"text": "Again", "score": 1}).Code)
	s.Contains(s.fields(s.do(http.MethodPost, base, s.bob, map[string]interface{}{"text": "x", "score": 11})), "score")
	s.Equal(http.StatusCreated, s.do(http.MethodPost, base, s.bob, map[string]interface{}{"text": "Fine", "score": 8}).Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/titles/%d", title.ID), nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.InDelta(8.5, s.decode(w)["rating"], 0.0001)

	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, reviewPath, s.bob, map[string]interface{}{"score": 1}).Code)
	w = s.do(http.MethodPatch, reviewPath, s.moderator, map[string]interface{}{"text": "moderated"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("moderated", s.decode(w)["text"])

	w = s.do(http.MethodPost, reviewPath+"/comments", s.bob, map[string]string{"text": "Agreed"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	comment := s.decode(w)
	s.Equal("bob", comment["author"])
	commentPath := fmt.Sprintf("%s/comments/%d", reviewPath, int(comment["id"].(float64)))

	s.Equal(http.StatusOK, s.do(http.MethodGet, commentPath, nil, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, commentPath, s.alice, nil).Code)

	other := testutil.CreateTitle(s.T(), s.testDB.DB, "Ronin", 1998, nil)
	misplaced := strings.Replace(commentPath, fmt.Sprintf("/titles/%d/", title.ID), fmt.Sprintf("/titles/%d/", other.ID), 1)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, misplaced, nil, nil).Code)

	w = s.do(http.MethodGet, reviewPath+"/comments", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, s.decode(w)["total"])

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, reviewPath, s.admin, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, commentPath, nil, nil).Code)
}

func (s *APIIntegrationTestSuite) TestPagination() {
	for i := 0; i < 3; i++ {
		testutil.CreateGenre(s.T(), s.testDB.DB, fmt.Sprintf("Genre %d", i), fmt.Sprintf("genre-%d", i))
	}

	w := s.do(http.MethodGet, "/genres?page=1&page_size=2", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := s.decode(w)
	s.Len(body["data"], 2)
	s.EqualValues(3, body["total"])
	s.EqualValues(2, body["total_pages"])

	w = s.do(http.MethodGet, "/genres?page=9", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(s.decode(w)["data"])

	s.Contains(s.fields(s.do(http.MethodGet, "/genres?page=abc", nil, nil)), "page")
}

func (s *APIIntegrationTestSuite) TestHealthAndMetrics() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, w.Code)

	s.do(http.MethodGet, "/categories", nil, nil)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "yamdb_http_requests_total")
}

func TestAPIIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(APIIntegrationTestSuite))
}
