package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/construction-pm-api/internal/auth"
	"github.com/yukikurage/construction-pm-api/internal/authz"
	"github.com/yukikurage/construction-pm-api/internal/constants"
	apierrors "github.com/yukikurage/construction-pm-api/internal/errors"
	"github.com/yukikurage/construction-pm-api/internal/middleware"
	"github.com/yukikurage/construction-pm-api/internal/services"
)

// respondError translates service errors into HTTP responses
func respondError(c *gin.Context, err error) {
	if denial, ok := authz.IsDenial(err); ok {
		switch denial.Kind {
		case authz.DenialUnauthenticated:
			apierrors.Unauthorized(c, denial.Reason)
		case authz.DenialNotOwner:
			apierrors.ForbiddenWithCode(c, apierrors.ErrCodeNotOwner, denial.Reason)
		default:
			apierrors.ForbiddenWithCode(c, apierrors.ErrCodeInsufficientPermissions, denial.Reason)
		}
		return
	}

	switch {
	case errors.Is(err, services.ErrMissingToken):
		apierrors.TokenRejected(c, http.StatusForbidden, "No token provided", "")
	case errors.Is(err, auth.ErrTokenExpired):
		apierrors.TokenRejected(c, http.StatusUnauthorized, "Unauthorized", auth.ErrTokenExpired.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		apierrors.TokenRejected(c, http.StatusUnauthorized, "Unauthorized", auth.ErrInvalidToken.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		apierrors.ForbiddenWithCode(c, apierrors.ErrCodeAccountDisabled, err.Error())
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, authz.ErrSelfDemotion),
		errors.Is(err, services.ErrSelfDeactivation),
		errors.Is(err, services.ErrSelfDeletion):
		apierrors.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, authz.ErrUnknownRole),
		errors.Is(err, authz.ErrIneligibleAssignee),
		errors.Is(err, services.ErrRolesRequired),
		errors.Is(err, services.ErrUnsupportedImage),
		errors.Is(err, services.ErrFileTooLarge),
		errors.Is(err, services.ErrSearchQueryMissing),
		errors.Is(err, services.ErrInvalidResetCode),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrIneligibleManager),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrCommentEmpty),
		errors.Is(err, services.ErrHoursRequired),
		errors.Is(err, services.ErrNegativeHours),
		errors.Is(err, services.ErrAttachmentRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrManagerNotFound),
		errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, err.Error())
	}
}

// requireActor returns the actor resolved by RequireAuth
func requireActor(c *gin.Context) (authz.Actor, bool) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return authz.Actor{}, false
	}
	return actor, true
}

// bindJSON binds the request body and reports failures by kind
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var (
		validationErrs validator.ValidationErrors
		syntaxErr      *json.SyntaxError
		typeErr        *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &validationErrs):
		code := apierrors.ErrCodeInvalidInput
		for _, fe := range validationErrs {
			if fe.Tag() == "required" {
				code = apierrors.ErrCodeMissingField
				break
			}
		}
		apierrors.BadRequestWithCode(c, code, "Invalid request body", err.Error())
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidFormat, "Malformed request body", err.Error())
	default:
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
	}
	return false
}

// optionalUintQuery parses an optional numeric query parameter
func optionalUintQuery(c *gin.Context, key string) (*uint64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+key)
		return nil, false
	}
	return &v, true
}

// uploadFromForm reads a multipart file field
func uploadFromForm(c *gin.Context, field string) (services.Upload, func(), bool) {
	header, err := c.FormFile(field)
	if err != nil {
		apierrors.BadRequest(c, fmt.Sprintf("Multipart field %q is required", field))
		return services.Upload{}, nil, false
	}

	file, err := header.Open()
	if err != nil {
		apierrors.InternalError(c, "Failed to read uploaded file")
		return services.Upload{}, nil, false
	}

	return services.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, func() { file.Close() }, true
}
