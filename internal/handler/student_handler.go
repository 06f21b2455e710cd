package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/quizdeck/quizdeck-backend/internal/attempt"
	"github.com/quizdeck/quizdeck-backend/internal/middleware"
	"github.com/quizdeck/quizdeck-backend/internal/model"
	"github.com/quizdeck/quizdeck-backend/internal/response"
	"github.com/quizdeck/quizdeck-backend/internal/service"
	"github.com/quizdeck/quizdeck-backend/internal/validator"
)

// StudentHandler handles the student quiz catalog and attempt endpoints.
type StudentHandler struct {
	quizService    *service.QuizService
	attemptService *service.AttemptService
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(quizService *service.QuizService, attemptService *service.AttemptService) *StudentHandler {
	return &StudentHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrQuizNotAvailable):
		response.Fail(c, http.StatusForbidden, response.ErrQuizNotAvailable)
	case errors.Is(err, attempt.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrAttemptInProgress):
		response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
	case errors.Is(err, service.ErrMaxAttemptsReached):
		response.Fail(c, http.StatusForbidden, response.ErrMaxAttemptsReached)
	case errors.Is(err, service.ErrNoActiveAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrAttemptStillOpen):
		response.Fail(c, http.StatusConflict, response.ErrActionForbidden)
	case errors.Is(err, service.ErrEmptyAnswer):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, attempt.ErrAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrAnswerLocked)
	case errors.Is(err, attempt.ErrNavigationLocked):
		response.Fail(c, http.StatusForbidden, response.ErrNavigationDisabled)
	case errors.Is(err, attempt.ErrSessionClosed):
		response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Catalog
// ────────────────────────────────────────────────────────────────────────────

// ListQuizzes godoc
// GET /api/v1/student/quizzes?category=&difficulty=
// Lists active quizzes available to the student.
func (h *StudentHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.ListActive(c.Request.Context(),
		c.Query("category"), model.Difficulty(c.Query("difficulty")))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz godoc
// GET /api/v1/student/quizzes/:quiz_id
// Returns the cached student payload: questions without correctness flags.
func (h *StudentHandler) GetQuiz(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.quizService.GetQuizPayload(c.Request.Context(), quizID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"quiz": payload})
}

// ────────────────────────────────────────────────────────────────────────────
// Attempt lifecycle
// ────────────────────────────────────────────────────────────────────────────

// StartAttempt godoc
// POST /api/v1/student/quizzes/:quiz_id/attempts
// Starts a new timed attempt and returns the initial session view.
func (h *StudentHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.attemptService.Start(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// GetAttemptState godoc
// GET /api/v1/student/attempt
// Returns the live session snapshot.
func (h *StudentHandler) GetAttemptState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attemptService.GetView(claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// SelectAnswer godoc
// POST /api/v1/student/attempt/select
// Stages an answer without committing it. Staged answers are never scored.
func (h *StudentHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attemptService.Select(claims.UserID, &req)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// SubmitAnswer godoc
// POST /api/v1/student/attempt/answer
// Commits an answer on the current question. Submissions are immutable.
func (h *StudentHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	feedback, view, err := h.attemptService.Submit(claims.UserID, &req)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view, "feedback": feedback})
}

// NextQuestion godoc
// POST /api/v1/student/attempt/next
func (h *StudentHandler) NextQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attemptService.Advance(claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// PreviousQuestion godoc
// POST /api/v1/student/attempt/previous
// Rejected when the quiz disables navigation.
func (h *StudentHandler) PreviousQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attemptService.Retreat(claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// JumpToQuestion godoc
// POST /api/v1/student/attempt/jump
func (h *StudentHandler) JumpToQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attemptService.Jump(claims.UserID, req.Index)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// ToggleFlag godoc
// POST /api/v1/student/attempt/flag
// Flips the review flag on the current question.
func (h *StudentHandler) ToggleFlag(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.attemptService.ToggleFlag(claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// FinishAttempt godoc
// POST /api/v1/student/attempt/finish
// Submits the attempt for final scoring and returns the result aggregates.
func (h *StudentHandler) FinishAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	att, err := h.attemptService.Finish(c.Request.Context(), claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": att})
}

// AbandonAttempt godoc
// POST /api/v1/student/attempt/abandon
// Exits the attempt without scoring.
func (h *StudentHandler) AbandonAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.attemptService.Abandon(c.Request.Context(), claims.UserID); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "attempt abandoned"})
}

// ────────────────────────────────────────────────────────────────────────────
// Results
// ────────────────────────────────────────────────────────────────────────────

// GetResult godoc
// GET /api/v1/student/attempts/:attempt_id
// Returns a finalized attempt's result, with question review when allowed.
func (h *StudentHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListAttempts godoc
// GET /api/v1/student/attempts
// Lists the student's attempt history with pagination.
func (h *StudentHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	attempts, pagination, err := h.attemptService.History(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"attempts": attempts}, pagination)
}
