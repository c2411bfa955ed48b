package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blastkit/blastd/internal/config"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStressTest accepts a RunSpec, executes the run synchronously, and
// returns the assembled result once every request has completed.
func (s *Server) handleStressTest(c *gin.Context) {
	var spec config.RunSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	spec.ApplyDefaults()

	result, err := s.engine.Run(c.Request.Context(), spec)
	if err != nil {
		var validationErr config.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		s.logger.Error().Err(err).Msg("run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
