package services

import (
	"context"
	"log"
	"sync"
	"time"

	"mashup/types"
	"mashup/websocket"

	"github.com/google/uuid"
)

// JobQueue interface defines the methods for managing mashup jobs
type JobQueue interface {
	Start()
	AddJob(req types.MashupRequest) *types.MashupJob
	GetJob(id string) (*types.MashupJob, bool)
	GetAllJobs() []*types.MashupJob
	CancelJob(id string) bool
}

// jobQueue runs one pipeline per queued request on a bounded set of
// workers and mirrors job state to the websocket hub.
type jobQueue struct {
	jobs       map[string]*types.MashupJob
	requests   map[string]types.MashupRequest
	queue      chan string
	mu         sync.RWMutex
	maxWorkers int
	pipeline   *Pipeline
	hub        websocket.Hub
}

// NewJobQueue creates a new job queue
func NewJobQueue(maxWorkers int, pipeline *Pipeline, hub websocket.Hub) JobQueue {
	return &jobQueue{
		jobs:       make(map[string]*types.MashupJob),
		requests:   make(map[string]types.MashupRequest),
		queue:      make(chan string, 100), // Buffer for 100 jobs
		maxWorkers: maxWorkers,
		pipeline:   pipeline,
		hub:        hub,
	}
}

// AddJob queues a new mashup request
func (jq *jobQueue) AddJob(req types.MashupRequest) *types.MashupJob {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job := &types.MashupJob{
		ID:          uuid.New().String(),
		Status:      types.JobStatusQueued,
		Query:       req.Query,
		SourceCount: req.Count,
		Duration:    req.Duration,
		Email:       req.Email,
		Total:       req.Count,
		CreatedAt:   time.Now(),
	}

	jq.jobs[job.ID] = job
	jq.requests[job.ID] = req
	jq.queue <- job.ID

	return job
}

// GetJob retrieves a job by ID
func (jq *jobQueue) GetJob(id string) (*types.MashupJob, bool) {
	jq.mu.RLock()
	defer jq.mu.RUnlock()
	job, exists := jq.jobs[id]
	return job, exists
}

// GetAllJobs returns all jobs
func (jq *jobQueue) GetAllJobs() []*types.MashupJob {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	jobs := make([]*types.MashupJob, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelJob cancels a job that has not started yet
func (jq *jobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, exists := jq.jobs[id]
	if !exists {
		return false
	}

	if job.Status == types.JobStatusQueued {
		job.Status = types.JobStatusCancelled
		now := time.Now()
		job.CompletedAt = &now
		return true
	}

	return false
}

// Start begins processing jobs
func (jq *jobQueue) Start() {
	for i := 0; i < jq.maxWorkers; i++ {
		go jq.worker()
	}
}

// worker processes jobs from the queue
func (jq *jobQueue) worker() {
	for id := range jq.queue {
		jq.mu.Lock()
		job, exists := jq.jobs[id]
		if !exists || job.Status == types.JobStatusCancelled {
			jq.mu.Unlock()
			continue
		}
		req := jq.requests[id]
		now := time.Now()
		job.Status = types.JobStatusProcessing
		job.StartedAt = &now
		jq.mu.Unlock()

		jq.broadcastStatus(job, "status", "Started building mashup for "+job.Query)

		rep := &queueReporter{queue: jq, jobID: id}
		result := jq.pipeline.Run(context.Background(), req, rep)

		jq.mu.Lock()
		done := time.Now()
		job.CompletedAt = &done
		job.Outcome = result.Outcome
		if result.Outcome == types.OutcomeSuccess {
			job.Status = types.JobStatusCompleted
		} else {
			job.Status = types.JobStatusFailed
			job.Error = result.Message
		}
		jq.mu.Unlock()

		if result.Err != nil {
			log.Printf("Job %s finished with outcome %s: %v", id, result.Outcome, result.Err)
		} else {
			log.Printf("Job %s finished with outcome %s", id, result.Outcome)
		}

		if result.Outcome == types.OutcomeSuccess {
			jq.broadcastStatus(job, "complete", result.Message)
		} else {
			jq.broadcastStatus(job, "error", result.Message)
		}
	}
}

// broadcastStatus mirrors a job state change to websocket watchers.
func (jq *jobQueue) broadcastStatus(job *types.MashupJob, msgType, message string) {
	if jq.hub == nil {
		return
	}
	progress := 0.0
	if msgType == "complete" {
		progress = 100.0
	}
	jq.hub.BroadcastProgress(job.ID, msgType, string(job.Status), "", message, progress)
}

// queueReporter adapts the hub to the pipeline's Reporter and keeps
// the job's own progress counters current.
type queueReporter struct {
	queue *jobQueue
	jobID string
}

func (r *queueReporter) Status(message string) {
	if r.queue.hub != nil {
		r.queue.hub.BroadcastProgress(r.jobID, "status", string(types.JobStatusProcessing), "", message, 0)
	}
}

func (r *queueReporter) Progress(done, total int, current string) {
	r.queue.mu.Lock()
	if job, ok := r.queue.jobs[r.jobID]; ok {
		job.Progress = done
		job.Total = total
	}
	r.queue.mu.Unlock()

	if r.queue.hub != nil && total > 0 {
		percent := float64(done) / float64(total) * 100
		r.queue.hub.BroadcastProgress(r.jobID, "progress", string(types.JobStatusProcessing),
			current, "", percent)
	}
}
