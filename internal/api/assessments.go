package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

// StartAssessment begins an attempt server-side.
func (c *Client) StartAssessment(ctx context.Context, studentID string, step int) (*Assessment, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/assessments/start", startRequest{StudentID: studentID, Step: step})
	if err != nil {
		return nil, fmt.Errorf("start assessment: %w", err)
	}
	a, err := decodeData[Assessment](data)
	if err != nil {
		return nil, fmt.Errorf("start assessment: %w", err)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("start assessment: %w: missing id", ErrInvalidPayload)
	}
	return &a, nil
}

// GetQuestionsByAssessment fetches the fixed question list of an attempt.
func (c *Client) GetQuestionsByAssessment(ctx context.Context, assessmentID string) ([]Question, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/assessments/"+url.PathEscape(assessmentID)+"/questions", nil)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	if err := validatePayload("questions", questionsSchema, data); err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	resp, err := decodeData[questionsResponse](data)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	return resp.Questions, nil
}

// SubmitAssessment finalizes an attempt.
func (c *Client) SubmitAssessment(ctx context.Context, assessmentID string, answers []AnswerSubmission) (*SubmitResult, error) {
	if answers == nil {
		answers = []AnswerSubmission{}
	}
	data, err := c.do(ctx, http.MethodPost, "/api/assessments/"+url.PathEscape(assessmentID)+"/submit", submitRequest{Answers: answers})
	if err != nil {
		return nil, fmt.Errorf("submit assessment: %w", err)
	}
	if err := validatePayload("submit_result", submitResultSchema, data); err != nil {
		return nil, fmt.Errorf("submit assessment: %w", err)
	}
	res, err := decodeData[SubmitResult](data)
	if err != nil {
		return nil, fmt.Errorf("submit assessment: %w", err)
	}
	return &res, nil
}

// GenerateCertificate downloads the certificate of a passed attempt.
func (c *Client) GenerateCertificate(ctx context.Context, assessmentID string) (*Certificate, error) {
	raw, err := c.send(ctx, http.MethodGet, "/api/assessments/"+url.PathEscape(assessmentID)+"/certificate", nil, "application/pdf, text/plain;q=0.9, */*;q=0.5")
	if err != nil {
		return nil, fmt.Errorf("generate certificate: %w", err)
	}
	return &Certificate{
		Body:        raw.Body,
		ContentType: raw.ContentType,
		Filename:    certificateFilename(assessmentID, raw.ContentType, raw.Disposition),
	}, nil
}

// ListAssessments returns the server-side attempt history of a student.
func (c *Client) ListAssessments(ctx context.Context, studentID string) ([]Assessment, error) {
	q := url.Values{"student_id": {studentID}}
	data, err := c.do(ctx, http.MethodGet, "/api/assessments?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	list, err := decodeData[[]Assessment](data)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return list, nil
}

func certificateFilename(assessmentID, contentType, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; safeFilename(name) {
				return name
			}
		}
	}

	ext := ".bin"
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/pdf":
			ext = ".pdf"
		case "text/plain":
			ext = ".txt"
		}
	}
	return "certificate-" + strings.Map(filenameRune, assessmentID) + ext
}

// SavePath joins the certificate's file name to dir. Names that would
// resolve outside dir are rejected.
func (c *Certificate) SavePath(dir string) (string, error) {
	if !safeFilename(c.Filename) {
		return "", fmt.Errorf("unsafe certificate filename %q", c.Filename)
	}
	return filepath.Join(dir, c.Filename), nil
}

// safeFilename reports whether name is a bare file name that stays inside
// the directory it is joined to.
func safeFilename(name string) bool {
	switch name {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

func filenameRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return r
	}
	return '_'
}
