package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gridplay/internal/repository"
	"gridplay/internal/session"
)

// gameManager is the command surface the REST layer drives.
type gameManager interface {
	StartGame(ctx context.Context, sessionID, difficulty string) (session.Snapshot, error)
	PlayerMove(ctx context.Context, sessionID string, cell int) (session.Snapshot, error)
	Undo(ctx context.Context, sessionID string) (session.Snapshot, error)
	Redo(ctx context.Context, sessionID string) (session.Snapshot, error)
	EnterReview(ctx context.Context, sessionID string) (session.Snapshot, error)
	ReviewStepForward(ctx context.Context, sessionID string) (session.Snapshot, error)
	ReviewStepBackward(ctx context.Context, sessionID string) (session.Snapshot, error)
	ResetGame(ctx context.Context, sessionID string) (session.Snapshot, error)
	GetSnapshot(ctx context.Context, sessionID string) (session.Snapshot, error)
	Results(ctx context.Context, sessionID string) ([]repository.Result, error)
}

func NewRouter(manager gameManager) *gin.Engine {
	router := gin.Default()

	router.GET("/ping", pingHandler)

	games := router.Group("/games")
	games.POST("", startGameHandler(manager))
	games.GET("/:id", getGameHandler(manager))
	games.POST("/:id/move", moveHandler(manager))
	games.POST("/:id/undo", undoHandler(manager))
	games.POST("/:id/redo", redoHandler(manager))
	games.POST("/:id/reset", resetHandler(manager))
	games.POST("/:id/review", enterReviewHandler(manager))
	games.POST("/:id/review/forward", reviewStepHandler(manager, true))
	games.POST("/:id/review/backward", reviewStepHandler(manager, false))
	games.GET("/:id/results", resultsHandler(manager))

	return router
}

// Serve runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func Serve(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}

		return nil
	}
}

func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
