package handlers

import (
	"net/http"
	"strconv"

	"mashup/services"

	"github.com/gin-gonic/gin"
)

// SearchHandler exposes the source resolver for previewing what a
// query would pull into a mashup.
type SearchHandler struct {
	resolver services.Resolver
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(resolver services.Resolver) *SearchHandler {
	return &SearchHandler{resolver: resolver}
}

// Search resolves a query into candidate videos
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter 'q' is required",
		})
		return
	}

	maxResults := 10
	if raw := c.Query("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "max parameter must be an integer between 1 and 50",
			})
			return
		}
		maxResults = n
	}

	videos, err := h.resolver.Resolve(c.Request.Context(), query, maxResults)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "search failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": videos,
	})
}
