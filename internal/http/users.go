package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/mrlokans/bookkinder/internal/audit"
	"github.com/mrlokans/bookkinder/internal/auth"
	"github.com/mrlokans/bookkinder/internal/database/users"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

// DefaultUserPassword is assigned to every user created through
// POST /users/store. Clients cannot choose it.
const DefaultUserPassword = "password"

type userInput struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=admin user"`
}

func (in userInput) values() map[string]any {
	values := make(map[string]any)
	if in.Name != nil {
		values["name"] = *in.Name
	}
	if in.Email != nil {
		values["email"] = *in.Email
	}
	if in.Role != nil {
		values["role"] = *in.Role
	}
	return values
}

type UsersController struct {
	users       *users.Repository
	authService *auth.Service
	audit       *audit.Service
}

func NewUsersController(repo *users.Repository, authService *auth.Service, auditService *audit.Service) *UsersController {
	return &UsersController{users: repo, authService: authService, audit: auditService}
}

func (uc *UsersController) RegisterRoutes(group *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	group.GET("/users", uc.List)
	group.GET("/users/search/:query", uc.Search)
	group.GET("/users/:id", requireAuth, uc.Show)
	group.POST("/users/store", requireAuth, uc.Store)
	group.PUT("/users/update/:id", requireAuth, uc.Update)
	group.DELETE("/users/delete/:id", requireAuth, uc.Delete)
}

// GET /users
func (uc *UsersController) List(c *gin.Context) {
	q, err := parseListQuery(c)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := uc.users.List(q.Spec, q.Options)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	respondList(c, result)
}

// GET /users/:id
func (uc *UsersController) Show(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.Find(id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /users/search/:query
func (uc *UsersController) Search(c *gin.Context) {
	found, err := uc.users.SearchByName(c.Param("query"))
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, orEmpty(found))
}

// Store creates a user whose password is always DefaultUserPassword; a
// password in the body is ignored.
// POST /users/store
func (uc *UsersController) Store(c *gin.Context) {
	var in userInput
	if err := c.ShouldBindBodyWith(&in, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := uc.authService.CreateUser(deref(in.Name), deref(in.Email), DefaultUserPassword, entities.UserRole(deref(in.Role)))
	switch {
	case errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrInvalidRole):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		respondError(c, err, "user")
		return
	}

	logger.L.Warn().
		Uint("user_id", user.ID).
		Uint("created_by", auth.GetUserID(c)).
		Msg("User created with the default password")

	c.JSON(http.StatusCreated, user)
}

// PUT /users/update/:id
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var in userInput
	if err := c.ShouldBindBodyWith(&in, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}

	affected, err := uc.users.UpdateByID(id, in.values())
	if err != nil {
		respondError(c, err, "user")
		return
	}
	if affected == 0 {
		respondNotFound(c, "user")
		return
	}

	user, err := uc.users.Find(id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes the user together with every session token it owns.
// DELETE /users/delete/:id
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.Find(id)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	// Evicts cached tokens before the rows go away.
	if _, err := uc.authService.Logout(c.Request.Context(), user); err != nil {
		respondError(c, err, "user")
		return
	}
	if _, err := uc.users.Delete(user); err != nil {
		respondError(c, err, "user")
		return
	}

	if uc.audit != nil {
		uc.audit.LogDelete(auth.GetUserID(c), "user", id, user.Email)
	}
	c.Status(http.StatusNoContent)
}
