package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/teamtime/clockwork/internal/constants"
	"github.com/teamtime/clockwork/pkg/logger"
	"github.com/teamtime/clockwork/pkg/validation"
	"go.uber.org/zap"
)

type ValidationMiddleware struct {
	validate *validator.Validate
}

// NewValidationMiddleware reads the same `binding` tags gin uses so DTOs
// carry a single set of rules.
func NewValidationMiddleware() *ValidationMiddleware {
	validate := validator.New()
	validate.SetTagName("binding")
	return &ValidationMiddleware{validate: validate}
}

// ValidateRequestBody decodes the body into factory() and validates it. On
// success the decoded value is stored under constants.GinKeyPayload.
func (m *ValidationMiddleware) ValidateRequestBody(factory func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		logger.GetLogger().Debug("Middleware: Validation request processing",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", clientIP),
			zap.String("content_type", c.GetHeader(constants.HeaderContentType)),
		)

		var bodyBytes []byte
		if c.Request.Body != nil {
			var err error
			bodyBytes, err = io.ReadAll(c.Request.Body)
			if err != nil {
				logger.GetLogger().Error("Middleware: Failed to read request body",
					zap.String("client_ip", clientIP),
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Unable to read request body", nil))
				return
			}
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		request := factory()
		if err := json.Unmarshal(bodyBytes, request); err != nil {
			logger.GetLogger().Warn("Middleware: JSON unmarshaling failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Int("body_size", len(bodyBytes)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid JSON body", err.Error()))
			return
		}

		if err := m.validate.Struct(request); err != nil {
			var fieldErrors validator.ValidationErrors
			if !errors.As(err, &fieldErrors) {
				c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, err.Error()))
				return
			}

			validationErrors := make([]string, 0, len(fieldErrors))
			for _, e := range fieldErrors {
				validationErrors = append(validationErrors, fieldMessage(e))
			}

			logger.GetLogger().Warn("Middleware: Request validation failed",
				zap.String("client_ip", clientIP),
				zap.String("path", c.Request.URL.Path),
				zap.Strings("validation_errors", validationErrors),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, constants.BuildErrorResponse("Validation failed", validationErrors))
			return
		}

		c.Set(constants.GinKeyPayload, request)
		c.Next()
	}
}

func fieldMessage(e validator.FieldError) string {
	if custom := validation.CustomMessage(e.Field()); custom != nil {
		if msg, ok := custom[e.Tag()]; ok {
			return msg
		}
	}
	return validation.DefaultMessage(e.Field(), e.Tag())
}
