package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/dto"
	"github.com/yukikurage/construction-pm-api/internal/middleware"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

// AdminHandler serves user administration.
type AdminHandler struct {
	userService *services.UserService
}

func NewAdminHandler(userService *services.UserService) *AdminHandler {
	return &AdminHandler{
		userService: userService,
	}
}

// ListUsers returns every user
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// SearchUsers matches the query in the body against users
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	// a missing query matches everything
	_ = c.ShouldBindJSON(&req)

	users, err := h.userService.SearchUsers(actor, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetUser returns a user by ID
func (h *AdminHandler) GetUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(actor, middleware.GetIDParam(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser creates an account with the given roles
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type CreateUserRequest struct {
		Username string   `json:"username" binding:"required,min=3,max=100"`
		Email    string   `json:"email" binding:"required,email"`
		Password string   `json:"password" binding:"required"`
		FullName string   `json:"fullName" binding:"required"`
		Phone    string   `json:"phone"`
		Position string   `json:"position"`
		Roles    []string `json:"roles"`
	}

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(actor, services.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Position: req.Position,
		Roles:    req.Roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser applies an admin update to any account
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Username     *string  `json:"username"`
		Email        *string  `json:"email" binding:"omitempty,email"`
		FullName     *string  `json:"fullName"`
		Phone        *string  `json:"phone"`
		Position     *string  `json:"position"`
		ProfileImage *string  `json:"profileImage"`
		Password     *string  `json:"password"`
		IsActive     *bool    `json:"isActive"`
		Roles        []string `json:"roles"`
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(actor, middleware.GetIDParam(c), services.AdminUserPatch{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Position:     req.Position,
		ProfileImage: req.ProfileImage,
		Password:     req.Password,
		Active:       req.IsActive,
		Roles:        req.Roles,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUserRoles replaces the roles of a user
func (h *AdminHandler) UpdateUserRoles(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		Roles []string `json:"roles"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUserRoles(actor, middleware.GetIDParam(c), req.Roles)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User roles updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// SetUserStatus activates or deactivates a user
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetUserActive(actor, middleware.GetIDParam(c), *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(actor, middleware.GetIDParam(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// ListManagers returns users holding the manager role
func (h *AdminHandler) ListManagers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	managers, err := h.userService.ListManagers(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserSummaryDTOs(managers))
}
