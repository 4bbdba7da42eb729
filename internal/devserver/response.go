package devserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/abhisek/assessly/internal/api"
)

// envelope is the response shape every JSON endpoint returns.
type envelope struct {
	Data     any        `json:"data"`
	Error    *errorBody `json:"error,omitempty"`
	Metadata metadata   `json:"metadata"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

var messages = map[string]string{
	api.CodeInvalidCredentials: "Email or password is incorrect.",
	api.CodeEmailNotVerified:   "Email address has not been verified.",
	api.CodeTokenRequired:      "Authentication token is required.",
	api.CodeTokenInvalid:       "Authentication token is invalid.",
	api.CodeForbidden:          "You do not have access to this resource.",
	api.CodeValidation:         "Validation failed. Check your input.",
	api.CodeNotFound:           "Resource not found.",
	api.CodeConflict:           "Resource already exists.",
	api.CodeAlreadySubmitted:   "This assessment has already been submitted.",
	api.CodeNotEligible:        "A certificate requires a score of at least 75%.",
	api.CodeInternal:           "Internal server error.",
}

func message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return "Unexpected error."
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Data: data, Metadata: buildMetadata(c)})
}

func fail(c *gin.Context, status int, code string) {
	c.JSON(status, envelope{
		Error:    &errorBody{Code: code, Message: message(code)},
		Metadata: buildMetadata(c),
	})
}

func failWithFields(c *gin.Context, status int, code string, fields map[string]string) {
	c.JSON(status, envelope{
		Error:    &errorBody{Code: code, Message: message(code), Fields: fields},
		Metadata: buildMetadata(c),
	})
}

func abortFail(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, envelope{
		Error:    &errorBody{Code: code, Message: message(code)},
		Metadata: buildMetadata(c),
	})
}

func buildMetadata(c *gin.Context) metadata {
	id := c.GetString(contextKeyRequestID)
	if id == "" {
		id = uuid.New().String()
	}
	return metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func notFound(c *gin.Context) {
	fail(c, http.StatusNotFound, api.CodeNotFound)
}
