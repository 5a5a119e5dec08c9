package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	"github.com/yukikurage/construction-pm-api/internal/dto"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username string   `json:"username" binding:"required,min=3,max=100"`
		Email    string   `json:"email" binding:"required,email"`
		Password string   `json:"password" binding:"required"`
		FullName string   `json:"fullName" binding:"required"`
		Phone    string   `json:"phone"`
		Position string   `json:"position"`
		Roles    []string `json:"roles"`
	}

	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Signup(services.SignupInput{
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

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// Signin authenticates a user and issues an access token.
func (h *AuthHandler) Signin(c *gin.Context) {
	type SigninRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req SigninRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Signin(services.SigninInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"accessToken": nil,
				"code":        apierrors.ErrCodeInvalidCredentials,
				"message":     "Invalid Password!",
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSigninResponse(*result.User, result.Token, result.ExpiresAt, result.Authorities))
}

// RefreshToken reissues a token. The old token may have expired.
// It is read from the x-access-token header, or from refreshToken in the body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := strings.TrimSpace(c.GetHeader(constants.TokenHeader))
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		// an empty or malformed body leaves the token empty
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	result, err := h.authService.RefreshToken(token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken: result.Token,
		TokenExpiry: result.ExpiresAt,
	})
}

// RequestPasswordReset sends a one-time reset code to the account's email.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	type ResetRequest struct {
		Email string `json:"email" binding:"required,email"`
	}

	var req ResetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reset code sent",
	})
}

// ResetPassword sets a new password using a reset code.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	type ResetPasswordRequest struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}

	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.authService.ResetPassword(c.Request.Context(), services.ResetPasswordInput{
		Email:       req.Email,
		Code:        req.Code,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated successfully",
	})
}
