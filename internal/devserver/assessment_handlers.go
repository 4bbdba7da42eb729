package devserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/catalog"
	"github.com/abhisek/assessly/internal/scoring"
)

type startRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Step      int    `json:"step" binding:"required,min=1,max=3"`
}

type submitRequest struct {
	Answers []answerRequest `json:"answers" binding:"omitempty,dive"`
}

type answerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

// GET /api/assessments?student_id=
func (s *Server) listAssessments(c *gin.Context) {
	claims := claimsFrom(c)
	studentID := c.Query("student_id")
	if studentID == "" {
		studentID = claims.Subject
	}
	if studentID != claims.Subject {
		fail(c, http.StatusForbidden, api.CodeForbidden)
		return
	}
	success(c, http.StatusOK, s.attempts.ListByStudent(studentID))
}

// POST /api/assessments/start
func (s *Server) startAssessment(c *gin.Context) {
	var req startRequest
	if fields := bind(c, &req); fields != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, fields)
		return
	}
	claims := claimsFrom(c)
	if req.StudentID != claims.Subject {
		fail(c, http.StatusForbidden, api.CodeForbidden)
		return
	}

	step := catalog.MustLookup(req.Step)
	questions := s.bank.Draw(step)
	if len(questions) == 0 {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, map[string]string{"step": "no questions are available for this step"})
		return
	}

	a := s.attempts.Create(req.StudentID, req.Step, questions)
	s.log.Info().
		Str("assessment_id", a.ID).
		Str("student_id", a.StudentID).
		Int("step", a.Step).
		Int("questions", len(questions)).
		Msg("assessment started")
	success(c, http.StatusCreated, a)
}

// GET /api/assessments/:id/questions
func (s *Server) questions(c *gin.Context) {
	a, err := s.attempts.Get(c.Param("id"), claimsFrom(c).Subject)
	if err != nil {
		notFound(c)
		return
	}

	out := make([]api.Question, len(a.Questions))
	for i, q := range a.Questions {
		out[i] = api.Question{
			ID:            q.ID,
			Competency:    q.Competency,
			Level:         string(q.Level),
			Question:      q.Prompt,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	success(c, http.StatusOK, gin.H{"questions": out})
}

// POST /api/assessments/:id/submit
func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if fields := bind(c, &req); fields != nil {
		failWithFields(c, http.StatusUnprocessableEntity, api.CodeValidation, fields)
		return
	}

	answers := make([]api.AnswerSubmission, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = api.AnswerSubmission{QuestionID: a.QuestionID, Answer: a.Answer}
	}

	id := c.Param("id")
	res, err := s.attempts.Submit(id, claimsFrom(c).Subject, answers)
	switch {
	case errors.Is(err, errAttemptNotFound):
		notFound(c)
		return
	case errors.Is(err, errAlreadySubmitted):
		fail(c, http.StatusConflict, api.CodeAlreadySubmitted)
		return
	case err != nil:
		s.log.Error().Err(err).Str("assessment_id", id).Msg("score submission")
		fail(c, http.StatusInternalServerError, api.CodeInternal)
		return
	}

	s.log.Info().
		Str("assessment_id", id).
		Int("score", res.Score).
		Str("certified_level", res.CertifiedLevel).
		Int("answered", len(answers)).
		Msg("assessment submitted")
	success(c, http.StatusOK, res)
}

// GET /api/assessments/:id/certificate
func (s *Server) certificate(c *gin.Context) {
	claims := claimsFrom(c)
	a, err := s.attempts.Get(c.Param("id"), claims.Subject)
	if err != nil {
		notFound(c)
		return
	}
	if a.Result == nil || !scoring.CertificateEligible(a.Result.Score) {
		fail(c, http.StatusForbidden, api.CodeNotEligible)
		return
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	body := renderCertificate(name, a)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="certificate-%s.txt"`, a.ID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}
