package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gridplay/internal/apperror"
	"gridplay/internal/entity"
	"gridplay/internal/session"
)

type startGameRequest struct {
	SessionID  string `json:"session_id"`
	Difficulty string `json:"difficulty"`
}

type moveRequest struct {
	Cell *int `json:"cell" binding:"required"`
}

func startGameHandler(manager gameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// An empty or missing body is acceptable: defaults apply.
		var req startGameRequest
		_ = c.ShouldBindJSON(&req)

		snap, err := manager.StartGame(c.Request.Context(), req.SessionID, req.Difficulty)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, snap)
	}
}

func getGameHandler(manager gameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := manager.GetSnapshot(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, snap)
	}
}

func moveHandler(manager gameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moveRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cell required"})
			return
		}

		snap, err := manager.PlayerMove(c.Request.Context(), c.Param("id"), *req.Cell)
		if err != nil {
			respondErrorWithState(c, err, snap)
			return
		}

		c.JSON(http.StatusOK, snap)
	}
}

func undoHandler(manager gameManager) gin.HandlerFunc {
	return commandHandler(manager.Undo)
}

func redoHandler(manager gameManager) gin.HandlerFunc {
	return commandHandler(manager.Redo)
}

func resetHandler(manager gameManager) gin.HandlerFunc {
	return commandHandler(manager.ResetGame)
}

func enterReviewHandler(manager gameManager) gin.HandlerFunc {
	return commandHandler(manager.EnterReview)
}

func reviewStepHandler(manager gameManager, forward bool) gin.HandlerFunc {
	if forward {
		return commandHandler(manager.ReviewStepForward)
	}
	return commandHandler(manager.ReviewStepBackward)
}

func resultsHandler(manager gameManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := manager.Results(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

func commandHandler(run func(ctx context.Context, sessionID string) (session.Snapshot, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := run(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErrorWithState(c, err, snap)
			return
		}

		c.JSON(http.StatusOK, snap)
	}
}

// respondErrorWithState reports recoverable rule violations together with
// the unchanged snapshot, so clients can stay in sync after a rejected
// command.
func respondErrorWithState(c *gin.Context, err error, snap session.Snapshot) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondError(c, err)
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "state": snap})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameNotLive),
		errors.Is(err, apperror.ErrGameNotFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNothingToUndo),
		errors.Is(err, apperror.ErrNothingToRedo),
		errors.Is(err, apperror.ErrNoMovesToReview),
		errors.Is(err, entity.ErrUnknownDifficulty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
