package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEnvelope writes a success envelope with data.
func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"data":     data,
		"metadata": map[string]string{"request_id": "srv-req", "timestamp": time.Now().UTC().Format(time.RFC3339)},
	}))
}

func writeEnvelopeError(t *testing.T, w http.ResponseWriter, status int, code, msg string, fields map[string]string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"data":     nil,
		"error":    map[string]any{"code": code, "message": msg, "fields": fields},
		"metadata": map[string]string{"request_id": "srv-req"},
	}))
}

func TestStartAssessment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/assessments/start", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body startRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, startRequest{StudentID: "stu-1", Step: 2}, body)

		writeEnvelope(t, w, http.StatusCreated, map[string]any{
			"id": "asm-9", "student_id": "stu-1", "step": 2, "started_at": "2026-01-02T03:04:05Z",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	a, err := c.StartAssessment(context.Background(), "stu-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "asm-9", a.ID)
	assert.Equal(t, 2, a.Step)
	assert.Equal(t, 2026, a.StartedAt.Year())
}

func TestStartAssessmentMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusCreated, map[string]any{"step": 1})
	}))
	defer srv.Close()

	_, err := New(srv.URL).StartAssessment(context.Background(), "s", 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGetQuestionsByAssessment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assessments/asm-1/questions", r.URL.Path)
		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"questions": []map[string]any{
				{"id": "q1", "competency": "Information literacy", "level": "A1", "question": "Pick A", "options": []string{"A", "B"}, "correct_answer": "A"},
				{"id": "q2", "competency": "Safety", "level": "A2", "question": "Pick B", "options": []string{"A", "B"}, "correct_answer": "B"},
			},
		})
	}))
	defer srv.Close()

	qs, err := New(srv.URL).GetQuestionsByAssessment(context.Background(), "asm-1")
	require.NoError(t, err)
	require.Len(t, qs, 2)

	cq := qs[1].ToCatalog()
	assert.Equal(t, "q2", cq.ID)
	assert.Equal(t, "Pick B", cq.Prompt)
	assert.Equal(t, "B", cq.CorrectAnswer)
	assert.EqualValues(t, "A2", cq.Level)
}

func TestGetQuestionsRejectsBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"questions": []map[string]any{{"id": "q1", "question": "no options"}},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetQuestionsByAssessment(context.Background(), "asm-1")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSubmitAssessment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assessments/asm-1/submit", r.URL.Path)
		var body submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Answers, 2)

		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"score": 67, "certified_level": "Partial Competency", "correct_count": 2, "total_questions": 3,
		})
	}))
	defer srv.Close()

	res, err := New(srv.URL).SubmitAssessment(context.Background(), "asm-1", []AnswerSubmission{
		{QuestionID: "q1", Answer: "A"}, {QuestionID: "q2", Answer: "X"},
	})
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{Score: 67, CertifiedLevel: "Partial Competency", CorrectCount: 2, TotalQuestions: 3}, *res)
}

func TestSubmitAssessmentSendsEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"answers":[]}`, string(raw))
		writeEnvelope(t, w, http.StatusOK, map[string]any{"score": 0, "certified_level": "Needs Improvement"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitAssessment(context.Background(), "asm-1", nil)
	require.NoError(t, err)
}

func TestSubmitAssessmentScoreOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, map[string]any{"score": 140, "certified_level": "x"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitAssessment(context.Background(), "asm-1", nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestEnvelopeErrorBecomesTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelopeError(t, w, http.StatusConflict, CodeAlreadySubmitted, "already submitted", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitAssessment(context.Background(), "asm-1", nil)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, CodeAlreadySubmitted, apiErr.Code)
	assert.Equal(t, "srv-req", apiErr.RequestID)
	assert.True(t, HasCode(err, CodeAlreadySubmitted))
	assert.False(t, IsUnauthorized(err))
}

func TestNonEnvelopeErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).StartAssessment(context.Background(), "s", 1)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelopeError(t, w, http.StatusUnauthorized, CodeTokenInvalid, "invalid token", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Me(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestNoRetryOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitAssessment(context.Background(), "asm-1", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL).StartAssessment(ctx, "s", 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerateCertificate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assessments/asm-1/certificate", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	cert, err := New(srv.URL, WithToken("tok")).GenerateCertificate(context.Background(), "asm-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), cert.Body)
	assert.Equal(t, "certificate-asm-1.pdf", cert.Filename)
}

func TestCertificateFilename(t *testing.T) {
	tests := []struct {
		name, ct, disp, want string
	}{
		{"pdf", "application/pdf", "", "certificate-a.pdf"},
		{"text", "text/plain; charset=utf-8", "", "certificate-a.txt"},
		{"unknown", "application/octet-stream", "", "certificate-a.bin"},
		{"disposition", "application/pdf", `attachment; filename="cert.pdf"`, "cert.pdf"},
		{"path in disposition", "application/pdf", `attachment; filename="../x.pdf"`, "certificate-a.pdf"},
		{"parent dir", "text/plain", `attachment; filename=".."`, "certificate-a.txt"},
		{"current dir", "text/plain", `attachment; filename="."`, "certificate-a.txt"},
		{"empty name", "text/plain", `attachment; filename=""`, "certificate-a.txt"},
		{"backslash", "text/plain", `attachment; filename="..\\x.txt"`, "certificate-a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, certificateFilename("a", tt.ct, tt.disp))
		})
	}
}

func TestCertificateFallbackEscapesID(t *testing.T) {
	for _, id := range []string{"../../etc", "..", `a\b`, "x/y"} {
		name := certificateFilename(id, "text/plain", "")
		assert.True(t, safeFilename(name), name)
		assert.Equal(t, name, filepath.Base(name))
		assert.True(t, strings.HasPrefix(name, "certificate-"), name)
	}
	assert.Equal(t, "certificate-______etc.txt", certificateFilename("../../etc", "text/plain", ""))
}

func TestCertificateSavePath(t *testing.T) {
	dir := t.TempDir()
	path, err := (&Certificate{Filename: "cert.txt"}).SavePath(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cert.txt"), path)

	for _, name := range []string{"..", ".", "", "../cert.txt"} {
		_, err := (&Certificate{Filename: name}).SavePath(dir)
		assert.Error(t, err, name)
	}
}

func TestListAssessments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "stu-1", r.URL.Query().Get("student_id"))
		writeEnvelope(t, w, http.StatusOK, []map[string]any{
			{"id": "a1", "step": 1, "started_at": "2026-01-02T03:04:05Z", "score": 80, "certified_level": "A1/A2 Certified"},
			{"id": "a2", "step": 2, "started_at": "2026-01-03T03:04:05Z"},
		})
	}))
	defer srv.Close()

	list, err := New(srv.URL).ListAssessments(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Score)
	assert.Equal(t, 80, *list[0].Score)
	assert.Nil(t, list[1].Score)
}
