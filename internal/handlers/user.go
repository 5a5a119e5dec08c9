package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/dto"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

// UserHandler serves the current user's profile and the worker directory.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateProfile applies a self-service update
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		Email        *string `json:"email" binding:"omitempty,email"`
		FullName     *string `json:"fullName"`
		Phone        *string `json:"phone"`
		Position     *string `json:"position"`
		ProfileImage *string `json:"profileImage"`
		Password     *string `json:"password"`
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(actor, services.ProfilePatch{
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Position:     req.Position,
		ProfileImage: req.ProfileImage,
		Password:     req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// UploadProfileImage replaces the avatar of the authenticated user
func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	upload, closeFile, ok := uploadFromForm(c, "image")
	if !ok {
		return
	}
	defer closeFile()

	user, err := h.userService.UpdateProfileImage(actor, upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Profile image updated",
		"profileImage": user.ProfileImage,
	})
}

// CheckToken echoes the identity resolved from the token
func (h *UserHandler) CheckToken(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  true,
		"userId": actor.UserID,
		"roles":  authz.Authorities(actor.Roles),
	})
}

// ListWorkers returns users that can be assigned to tasks
func (h *UserHandler) ListWorkers(c *gin.Context) {
	workers, err := h.userService.ListWorkers()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserSummaryDTOs(workers))
}

// SearchWorkers matches the query parameter against assignable users
func (h *UserHandler) SearchWorkers(c *gin.Context) {
	workers, err := h.userService.SearchWorkers(c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserSummaryDTOs(workers))
}
