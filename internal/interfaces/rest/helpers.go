package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/auth"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

// GetTenantFromContext extracts the verified tenant from gin.Context
func GetTenantFromContext(c *gin.Context) *auth.TenantSession {
	v, exists := c.Get(constants.ContextKeyTenant)
	if !exists {
		return nil
	}
	session, ok := v.(auth.TenantSession)
	if !ok {
		return nil
	}
	return &session
}

// requireTenant returns the caller's tenant or responds 401
func requireTenant(c *gin.Context) (*auth.TenantSession, bool) {
	tenant := GetTenantFromContext(c)
	if tenant == nil || tenant.OrganizationID == "" {
		RespondAppError(c, errors.NewUnauthorizedError("no tenant in request context"))
		return nil, false
	}
	return tenant, true
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		logger.L().Errorw("❌ Request failed",
			"status", code,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"error", message,
		)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  errorCode,
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}

// respondMessage writes { message, [key]: obj }
func respondMessage(c *gin.Context, status int, msg, key string, obj interface{}) {
	response := gin.H{constants.FieldMessage: msg}
	if key != "" {
		response[key] = obj
	}
	c.JSON(status, response)
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		RespondAppError(c, errors.NewValidationError(name, "must be an integer"))
		return 0, false
	}
	return n, true
}

func entityTypeParam(c *gin.Context, name string) (models.EntityType, bool) {
	t, err := models.ParseEntityType(c.Param(name))
	if err != nil {
		RespondAppError(c, err)
		return "", false
	}
	return t, true
}
