package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	trans        ut.Translator
)

func setupValidator() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag name for field names in error messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)
}

// validateRequest checks a request struct before it is sent. Failures are
// returned as a local *Error with CodeValidation and translated fields.
func validateRequest(req any) error {
	validateOnce.Do(setupValidator)

	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return &Error{Code: CodeValidation, Message: "request validation failed", Fields: fields}
}

// Register creates an account. The server sends a verification token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	u, err := decodeData[User](data)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &u, nil
}

// VerifyEmail confirms the email address of a registered account.
func (c *Client) VerifyEmail(ctx context.Context, req VerifyRequest) (*User, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/api/auth/verify", req)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	u, err := decodeData[User](data)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	return &u, nil
}

// Login exchanges credentials for a session. The client keeps the token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login", req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s, err := decodeData[Session](data)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if s.Token == "" {
		return nil, fmt.Errorf("login: %w: missing token", ErrInvalidPayload)
	}
	c.SetToken(s.Token)
	return &s, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	u, err := decodeData[User](data)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return &u, nil
}
