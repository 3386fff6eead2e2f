package handler

import (
	"net/http"

	"github.com/Baaaki/yamdb/internal/dto"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/models"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler serves the admin user collection and /users/me.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// List returns users matching ?search= by username.
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	req, err := pageRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), middleware.CurrentUser(c), c.Query("search"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginated(page.Items, page.Total, page.Page, page.PageSize, dto.ToUserResponse))
}

// Create adds a user on behalf of an admin.
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := middleware.CurrentUser(c)
	user, err := h.userService.Create(c.Request.Context(), actor, service.UserFields{
		Username:  &req.Username,
		Email:     &req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      rolePtr(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Admin created user",
		zap.String("admin", actor.Username),
		zap.String("username", user.Username),
	)
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// Get returns one user by username.
// GET /api/v1/users/:username
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// Update partially updates a user, role included.
// PATCH /api/v1/users/:username
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"), updateFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// Delete removes a user with their reviews and comments.
// DELETE /api/v1/users/:username
func (h *UserHandler) Delete(c *gin.Context) {
	actor := middleware.CurrentUser(c)
	username := c.Param("username")

	if err := h.userService.Delete(c.Request.Context(), actor, username); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Admin deleted user",
		zap.String("admin", actor.Username),
		zap.String("username", username),
	)
	c.Status(http.StatusNoContent)
}

// Me returns the caller's own profile.
// GET /api/v1/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.Me(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// UpdateMe edits the caller's own profile. A role in the body is ignored.
// PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), middleware.CurrentUser(c), updateFields(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func updateFields(req dto.UpdateUserRequest) service.UserFields {
	return service.UserFields{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      rolePtr(req.Role),
	}
}

func rolePtr(s *string) *models.Role {
	if s == nil {
		return nil
	}
	role := models.Role(*s)
	return &role
}
