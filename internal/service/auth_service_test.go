package service_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/testutil"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/stretchr/testify/suite"
)

type AuthServiceTestSuite struct {
	serviceSuite
}

func (s *AuthServiceTestSuite) signupAndCode(email, username string) string {
	_, err := s.auth.Signup(s.ctx, email, username)
	s.Require().NoError(err)
	code := s.mailer.LastCodeFor(email)
	s.Require().NotEmpty(code)
	return code
}

func (s *AuthServiceTestSuite) TestSignupCreatesUserAndMailsCode() {
	user, err := s.auth.Signup(s.ctx, "alice@example.com", "alice")
	s.Require().NoError(err)

	s.Equal("alice", user.Username)
	s.Equal(models.RoleUser, user.Role)
	s.Require().Len(s.mailer.Messages(), 1)
	s.Equal([]string{"alice@example.com"}, s.mailer.Messages()[0].To)
	s.Equal("noreply@yamdb.test", s.mailer.Messages()[0].From)
}

func (s *AuthServiceTestSuite) TestSignupSamePairIsIdempotent() {
	first, err := s.auth.Signup(s.ctx, "alice@example.com", "alice")
	s.Require().NoError(err)
	second, err := s.auth.Signup(s.ctx, "alice@example.com", "alice")
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.Len(s.mailer.Messages(), 2, "a fresh code is sent each time")

	var count int64
	s.Require().NoError(s.db.Model(&models.User{}).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *AuthServiceTestSuite) TestSignupRejectsMismatchedPairs() {
	testutil.CreateUser(s.T(), s.db, "alice", models.RoleUser)
	testutil.CreateUser(s.T(), s.db, "bob", models.RoleUser)

	tests := []struct {
		name     string
		email    string
		username string
		fields   []string
	}{
		{"username taken", "new@example.com", "alice", []string{"username"}},
		{"email taken", "alice@example.com", "newbie", []string{"email"}},
		{"both taken by different accounts", "bob@example.com", "alice", []string{"username", "email"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.auth.Signup(s.ctx, tt.email, tt.username)
			var ve *validators.ValidationError
			s.Require().True(errors.As(err, &ve), "got %v", err)
			for _, f := range tt.fields {
				s.Contains(ve.Fields, f)
			}
		})
	}
	s.Empty(s.mailer.Messages())
}

func (s *AuthServiceTestSuite) TestSignupValidation() {
	for _, username := range []string{"me", "ME", "bad name", ""} {
		_, err := s.auth.Signup(s.ctx, "x@example.com", username)
		var ve *validators.ValidationError
		s.True(errors.As(err, &ve), username)
	}

	_, err := s.auth.Signup(s.ctx, "not-an-email", "carol")
	var ve *validators.ValidationError
	s.Require().True(errors.As(err, &ve))
	s.Contains(ve.Fields, "email")
}

func (s *AuthServiceTestSuite) TestSignupMailFailure() {
	s.mailer.Err = errors.New("mail server down")

	_, err := s.auth.Signup(s.ctx, "alice@example.com", "alice")
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestTokenExchange() {
	code := s.signupAndCode("alice@example.com", "alice")

	token, err := s.auth.Token(s.ctx, "alice", code)
	s.Require().NoError(err)
	s.NotEmpty(token)

	user, err := s.auth.Authenticate(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
}

func (s *AuthServiceTestSuite) TestTokenCodeIsSingleUse() {
	code := s.signupAndCode("alice@example.com", "alice")

	_, err := s.auth.Token(s.ctx, "alice", code)
	s.Require().NoError(err)

	_, err = s.auth.Token(s.ctx, "alice", code)
	s.ErrorIs(err, service.ErrInvalidConfirmationCode)
}

func (s *AuthServiceTestSuite) TestProfileSaveDoesNotRestoreUsedCode() {
	code := s.signupAndCode("alice@example.com", "alice")

	repo := repository.NewUserRepository(s.db)
	stale, err := repo.GetByUsername(s.ctx, "alice")
	s.Require().NoError(err)

	_, err = s.auth.Token(s.ctx, "alice", code)
	s.Require().NoError(err)

	stale.Bio = "written after the exchange"
	s.Require().NoError(repo.Save(s.ctx, stale))

	_, err = s.auth.Token(s.ctx, "alice", code)
	s.ErrorIs(err, service.ErrInvalidConfirmationCode)
}

func (s *AuthServiceTestSuite) TestTokenConcurrentExchangeIssuesOneToken() {
	code := s.signupAndCode("alice@example.com", "alice")

	const attempts = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.auth.Token(s.ctx, "alice", code); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, success)
}

func (s *AuthServiceTestSuite) TestTokenErrors() {
	code := s.signupAndCode("alice@example.com", "alice")

	_, err := s.auth.Token(s.ctx, "nobody", code)
	s.ErrorIs(err, service.ErrNotFound)

	_, err = s.auth.Token(s.ctx, "alice", "wrong-code")
	s.ErrorIs(err, service.ErrInvalidConfirmationCode)

	s.signupAndCode("bob@example.com", "bob")
	_, err = s.auth.Token(s.ctx, "bob", code)
	s.ErrorIs(err, service.ErrInvalidConfirmationCode, "alice's code does not work for bob")

	_, err = s.auth.Token(s.ctx, "", "")
	var ve *validators.ValidationError
	s.Require().True(errors.As(err, &ve))
	s.Contains(ve.Fields, "username")
	s.Contains(ve.Fields, "confirmation_code")
}

func (s *AuthServiceTestSuite) TestAuthenticateRejectsDeletedUser() {
	user := testutil.CreateUser(s.T(), s.db, "alice", models.RoleUser)
	token := testutil.AccessToken(s.T(), user)

	s.Require().NoError(s.db.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err := s.auth.Authenticate(s.ctx, token)
	s.ErrorIs(err, utils.ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestAuthenticateSeesRoleChanges() {
	user := testutil.CreateUser(s.T(), s.db, "alice", models.RoleAdmin)
	token := testutil.AccessToken(s.T(), user)

	s.Require().NoError(s.db.Model(user).Update("role", models.RoleUser).Error)

	current, err := s.auth.Authenticate(s.ctx, token)
	s.Require().NoError(err)
	s.False(current.IsAdmin())
	s.False(current.IsStaff())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
