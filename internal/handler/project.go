package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/service"
)

// ProjectHandler serves /api/projects.
type ProjectHandler struct {
	projects       *service.ProjectService
	logger         *zap.Logger
	maxUploadBytes int64
	maxFileBytes   int64
}

func NewProjectHandler(projects *service.ProjectService, logger *zap.Logger, maxUploadBytes, maxFileBytes int64) *ProjectHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = service.DefaultMaxFileBytes
	}
	if maxUploadBytes < maxFileBytes {
		maxUploadBytes = maxFileBytes * 5
	}
	return &ProjectHandler{
		projects:       projects,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		maxFileBytes:   maxFileBytes,
	}
}

// HandleCreate: POST /api/projects (multipart/form-data).
//
// MULTIPART STREAMING:
// Parts are read one at a time with r.MultipartReader instead of
// ParseMultipartForm, so nothing spills to temp files. The whole body is
// capped at maxUploadBytes; each file part is read up to maxFileBytes+1 so
// the service can tell an oversized file from one exactly at the limit.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	in, uploads, err := h.readMultipart(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Create(r.Context(), callerOf(r), in, uploads)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusCreated, project.WithoutFileData(), "Project created successfully")
}

func (h *ProjectHandler) readMultipart(r *http.Request) (service.ProjectInput, []service.FileUpload, error) {
	var in service.ProjectInput

	mr, err := r.MultipartReader()
	if err != nil {
		return in, nil, apperror.ValidationFailed("body", "multipart/form-data body is required")
	}

	var uploads []service.FileUpload
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in, nil, bodyError(err)
		}

		name := part.FormName()
		if name == "files" || name == "file" {
			data, err := io.ReadAll(io.LimitReader(part, h.maxFileBytes+1))
			part.Close()
			if err != nil {
				return in, nil, bodyError(err)
			}
			ct := part.Header.Get("Content-Type")
			if _, _, perr := mime.ParseMediaType(ct); perr != nil {
				ct = ""
			}
			uploads = append(uploads, service.FileUpload{
				Filename:    part.FileName(),
				ContentType: ct,
				Data:        data,
			})
			continue
		}

		// Form fields are short; 64 KiB is plenty for a description.
		raw, err := io.ReadAll(io.LimitReader(part, 64<<10))
		part.Close()
		if err != nil {
			return in, nil, bodyError(err)
		}
		value := string(raw)

		switch name {
		case "name":
			in.Name = value
		case "description":
			in.Description = value
		case "visibility":
			in.Visibility = value
		case "addReadme":
			in.AddReadme, _ = strconv.ParseBool(strings.TrimSpace(value))
		case "gitignoreTemplate":
			in.GitignoreTemplate = value
		case "license":
			in.License = value
		case "technologies":
			in.Technologies = append(in.Technologies, splitList(value)...)
		}
	}
	return in, uploads, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ValidationFailed("body", fmt.Sprintf("upload exceeds the %d byte limit", tooLarge.Limit))
	}
	return apperror.ValidationFailed("body", "malformed multipart body")
}

type projectRequest struct {
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	Visibility        string              `json:"visibility"`
	AddReadme         bool                `json:"addReadme"`
	GitignoreTemplate string              `json:"gitignoreTemplate"`
	License           string              `json:"license"`
	Technologies      []string            `json:"technologies"`
	Status            model.ProjectStatus `json:"status"`
}

// HandleUpdate: PUT /api/projects/{id}.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	project, err := h.projects.Update(r.Context(), callerOf(r), chi.URLParam(r, "id"), service.ProjectInput{
		Name:              req.Name,
		Description:       req.Description,
		Visibility:        req.Visibility,
		AddReadme:         req.AddReadme,
		GitignoreTemplate: req.GitignoreTemplate,
		License:           req.License,
		Technologies:      req.Technologies,
		Status:            req.Status,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, project.WithoutFileData(), "Project updated successfully")
}

// HandleList: GET /api/projects.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, projects, "Projects retrieved successfully")
}

// HandleListByDeveloper: GET /api/projects/developer/{email}.
func (h *ProjectHandler) HandleListByDeveloper(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListByOwner(r.Context(), callerOf(r), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, projects, "Projects retrieved successfully")
}

// HandleSearch: GET /api/projects/search?technologies=go&technologies=vue,sql&keyword=shop
func (h *ProjectHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var techs []string
	for _, v := range q["technologies"] {
		techs = append(techs, splitList(v)...)
	}

	projects, err := h.projects.Search(r.Context(), techs, q.Get("keyword"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, projects, "Projects retrieved successfully")
}

// HandlePurchase: POST /api/projects/{projectId}/purchase.
func (h *ProjectHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Purchase(r.Context(), callerOf(r), chi.URLParam(r, "projectId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, project, "Project purchased successfully")
}

// HandleGet: GET /api/projects/{id}. Large file payloads come back null.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.Get(r.Context(), callerOf(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, project, "Project retrieved successfully")
}

// HandleGetPublic: GET /api/projects/public/{id}.
func (h *ProjectHandler) HandleGetPublic(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, project, "Project retrieved successfully")
}

// HandleDetails: GET /api/projects/public/{id}/details.
func (h *ProjectHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.projects.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, details, "Project details retrieved successfully")
}

// HandleRecordView: POST /api/projects/public/{id}/view.
func (h *ProjectHandler) HandleRecordView(w http.ResponseWriter, r *http.Request) {
	stats, err := h.projects.RecordView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeOK(w, h.logger, http.StatusOK, stats, "View recorded")
}

// HandleDownload: GET /api/projects/public/{projectId}/files/{filename}/download.
// The body is the raw file, not an envelope.
func (h *ProjectHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	file, err := h.projects.Download(r.Context(), chi.URLParam(r, "projectId"), chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Warn("download interrupted", zap.String("file", file.Filename), zap.Error(err))
	}
}

// splitList splits a comma-separated value and drops blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
