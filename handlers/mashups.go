package handlers

import (
	"log"
	"net/http"

	"mashup/services"
	"mashup/types"
	"mashup/websocket"

	"github.com/gin-gonic/gin"
)

// MashupHandler handles mashup job management endpoints
type MashupHandler struct {
	jobQueue services.JobQueue
	hub      websocket.Hub
}

// NewMashupHandler creates a new mashup handler
func NewMashupHandler(jq services.JobQueue, hub websocket.Hub) *MashupHandler {
	return &MashupHandler{
		jobQueue: jq,
		hub:      hub,
	}
}

// Create validates a mashup request and queues it
func (h *MashupHandler) Create(c *gin.Context) {
	var req types.MashupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid mashup request",
			"details": err.Error(),
		})
		return
	}

	job := h.jobQueue.AddJob(req)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Mashup queued successfully",
		"job":     job,
	})
}

// GetAllJobs returns all mashup jobs
func (h *MashupHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific mashup job by ID
func (h *MashupHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	job, exists := h.jobQueue.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a queued mashup job
func (h *MashupHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	cancelled := h.jobQueue.CancelJob(jobID)
	if !cancelled {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already processing)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocketConnection handles WebSocket connections for specific job progress
func (h *MashupHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job ID is required"})
		return
	}

	if _, exists := h.jobQueue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, jobID)
	h.hub.RegisterClient(client)
	client.StartPumps()
}

// HandleWebSocketAllConnection handles WebSocket connections for all job progress
func (h *MashupHandler) HandleWebSocketAllConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, websocket.JobAll)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
