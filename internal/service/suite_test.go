package service_test

import (
	"context"
	"time"

	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// serviceSuite wires every service over a private SQLite database.
type serviceSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	db     *gorm.DB
	ctx    context.Context
	mailer *testutil.CaptureMailer

	auth       *service.AuthService
	users      *service.UserService
	categories *service.CategoryService
	genres     *service.GenreService
	titles     *service.TitleService
	reviews    *service.ReviewService
	comments   *service.CommentService
}

func (s *serviceSuite) SetupSuite() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.db = s.testDB.DB
	s.ctx = context.Background()
}

func (s *serviceSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *serviceSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.db)

	userRepo := repository.NewUserRepository(s.db)
	categoryRepo := repository.NewCategoryRepository(s.db)
	genreRepo := repository.NewGenreRepository(s.db)
	titleRepo := repository.NewTitleRepository(s.db)
	reviewRepo := repository.NewReviewRepository(s.db)
	commentRepo := repository.NewCommentRepository(s.db)

	s.mailer = &testutil.CaptureMailer{}
	s.auth = service.NewAuthService(userRepo, s.mailer, testutil.Keys(s.T()), time.Hour, time.Hour, "noreply@yamdb.test")
	s.users = service.NewUserService(userRepo)
	s.categories = service.NewCategoryService(categoryRepo)
	s.genres = service.NewGenreService(genreRepo)
	s.titles = service.NewTitleService(titleRepo, genreRepo, categoryRepo)
	s.reviews = service.NewReviewService(reviewRepo, titleRepo)
	s.comments = service.NewCommentService(commentRepo, s.reviews)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
