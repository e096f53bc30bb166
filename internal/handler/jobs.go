package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/jobboard"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// JobSearcher is the external job board. *jobboard.Client implements it.
type JobSearcher interface {
	SearchJobs(ctx context.Context, q jobboard.Query) ([]byte, error)
	SearchInternships(ctx context.Context, where string) ([]byte, error)
}

// JobsHandler serves /api/jobs: the job-board proxy and the buyer's own
// posts.
type JobsHandler struct {
	board  JobSearcher
	posts  *service.PostService
	logger *zap.Logger
}

func NewJobsHandler(board JobSearcher, posts *service.PostService, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{board: board, posts: posts, logger: logger}
}

// HandleSearchJobs: GET /api/jobs?country=&what=&page=. The board's JSON
// is passed through untouched.
func (h *JobsHandler) HandleSearchJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	body, err := h.board.SearchJobs(r.Context(), jobboard.Query{
		Country: q.Get("country"),
		What:    q.Get("what"),
		Where:   q.Get("where"),
		Page:    page,
	})
	h.proxy(w, r, body, err)
}

// HandleSearchInternships: GET /api/jobs/internships?where=.
func (h *JobsHandler) HandleSearchInternships(w http.ResponseWriter, r *http.Request) {
	body, err := h.board.SearchInternships(r.Context(), r.URL.Query().Get("where"))
	h.proxy(w, r, body, err)
}

func (h *JobsHandler) proxy(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	if err != nil {
		// Upstream errors are never AppErrors, so this is always a
		// generic 500.
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("proxy write failed", zap.Error(err))
	}
}

// HandlePostJob: POST /api/jobs/post-job (BUYER). Answers 201.
func (h *JobsHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if err := decodeJSON(w, r, &job); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.posts.CreateJob(r.Context(), callerOf(r), job)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, created, "Job posted successfully")
}

// HandlePostInternship: POST /api/jobs/post-internship (BUYER).
func (h *JobsHandler) HandlePostInternship(w http.ResponseWriter, r *http.Request) {
	var internship model.Internship
	if err := decodeJSON(w, r, &internship); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.posts.CreateInternship(r.Context(), callerOf(r), internship)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, created, "Internship posted successfully")
}

// HandlePostProblem: POST /api/jobs/post-problem (BUYER).
func (h *JobsHandler) HandlePostProblem(w http.ResponseWriter, r *http.Request) {
	var problem model.Problem
	if err := decodeJSON(w, r, &problem); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	created, err := h.posts.CreateProblem(r.Context(), callerOf(r), problem)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, created, "Problem posted successfully")
}

// HandleManagePosts: GET /api/jobs/manage-posts (BUYER).
func (h *JobsHandler) HandleManagePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListByBuyer(r.Context(), callerOf(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, posts, "Posts retrieved successfully")
}

type deletedPost struct {
	ID   string         `json:"id"`
	Kind model.PostKind `json:"kind"`
}

// HandleDeletePost: DELETE /api/jobs/manage-posts/{postId} (BUYER). Only
// the caller's own posts are candidates.
func (h *JobsHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "postId")
	kind, err := h.posts.DeleteByBuyer(r.Context(), callerOf(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, deletedPost{ID: id, Kind: kind}, "Post deleted successfully")
}
