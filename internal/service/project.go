package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/sakif/devmarket/internal/apperror"
	"github.com/sakif/devmarket/internal/auth"
	"github.com/sakif/devmarket/internal/metrics"
	"github.com/sakif/devmarket/internal/model"
	"github.com/sakif/devmarket/internal/repository"
)

// Project visibilities.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// DefaultMaxFileBytes bounds a single uploaded file when no other limit is
// configured.
const DefaultMaxFileBytes = 10 << 20

// ProjectService owns the project lifecycle: create, edit, purchase, and
// the public read paths with their view and download counters.
type ProjectService struct {
	projects   repository.ProjectRepository
	users      repository.UserRepository
	activities *ActivityService
	metrics    *metrics.Metrics
	logger     *zap.Logger

	maxFileBytes int64
	readme       *bluemonday.Policy
}

func NewProjectService(
	projects repository.ProjectRepository,
	users repository.UserRepository,
	activities *ActivityService,
	m *metrics.Metrics,
	logger *zap.Logger,
	maxFileBytes int64,
) *ProjectService {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &ProjectService{
		projects:     projects,
		users:        users,
		activities:   activities,
		metrics:      m,
		logger:       logger,
		maxFileBytes: maxFileBytes,
		readme:       bluemonday.UGCPolicy(),
	}
}

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Name              string
	Description       string
	Visibility        string
	AddReadme         bool
	GitignoreTemplate string
	License           string
	Technologies      []string
	Status            model.ProjectStatus
}

// FileUpload is one uploaded file, already read into memory.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Create stores a new PUBLISHED project owned by the caller and logs one
// CREATED_PROJECT plus one UPLOADED_FILE entry per file.
func (s *ProjectService) Create(ctx context.Context, caller auth.Principal, in ProjectInput, uploads []FileUpload) (*model.Project, error) {
	name, err := requireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	visibility, err := parseVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	files, err := s.toFiles(uploads)
	if err != nil {
		return nil, err
	}

	ts := now()
	project := &model.Project{
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		Visibility:        visibility,
		AddReadme:         in.AddReadme,
		GitignoreTemplate: strings.TrimSpace(in.GitignoreTemplate),
		License:           strings.TrimSpace(in.License),
		Technologies:      cleanList(in.Technologies),
		Status:            model.ProjectPublished,
		UserID:            caller.Email,
		Files:             files,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		zap.String("id", project.ID),
		zap.String("owner", project.UserID),
		zap.Int("files", len(files)),
	)
	s.metrics.ProjectEvent(metrics.ProjectCreated)

	s.record(ctx, caller.Email, project.ID, model.ActionCreatedProject, "Created project: "+project.Name)
	for _, f := range files {
		if _, err := s.activities.LogFileUpload(ctx, caller.Email, project.ID, f.Filename); err != nil {
			s.logger.Warn("activity not recorded", zap.String("project", project.ID), zap.Error(err))
		}
	}
	return project, nil
}

// Update copies the editable fields onto the stored record. Only the owner
// or an admin may edit; anyone else gets Forbidden and the record is left
// untouched.
func (s *ProjectService) Update(ctx context.Context, caller auth.Principal, id string, in ProjectInput) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(caller, project.UserID) {
		return nil, apperror.Forbidden("You can only update your own projects")
	}

	name, err := requireText("name", in.Name)
	if err != nil {
		return nil, err
	}
	if in.Visibility != "" {
		if project.Visibility, err = parseVisibility(in.Visibility); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, apperror.ValidationFailed("status", fmt.Sprintf("unknown project status %q", in.Status))
		}
		project.Status = in.Status
	}

	project.Name = name
	project.Description = strings.TrimSpace(in.Description)
	project.AddReadme = in.AddReadme
	project.GitignoreTemplate = strings.TrimSpace(in.GitignoreTemplate)
	project.License = strings.TrimSpace(in.License)
	project.Technologies = cleanList(in.Technologies)
	project.UpdatedAt = now()

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("updating project %s: %w", id, err)
	}

	s.logger.Info("project updated", zap.String("id", id), zap.String("by", caller.Email))
	s.metrics.ProjectEvent(metrics.ProjectUpdated)
	s.record(ctx, caller.Email, id, model.ActionEditedProject, "Edited project: "+project.Name)
	return project, nil
}

// List returns every project with file payloads stripped.
func (s *ProjectService) List(ctx context.Context) ([]*model.Project, error) {
	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return stripFiles(all, func(*model.Project) bool { return true }), nil
}

// ListByOwner returns the caller's own projects. Asking for anyone else's
// list is Forbidden.
func (s *ProjectService) ListByOwner(ctx context.Context, caller auth.Principal, email string) ([]*model.Project, error) {
	if !strings.EqualFold(strings.TrimSpace(email), caller.Email) {
		return nil, apperror.Forbidden("You can only access your own projects")
	}
	own, err := s.projects.ListByOwner(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("listing projects of %s: %w", caller.Email, err)
	}
	return stripFiles(own, func(*model.Project) bool { return true }), nil
}

// Search keeps projects using any of technologies whose name or
// description contains keyword. Empty criteria match everything.
func (s *ProjectService) Search(ctx context.Context, technologies []string, keyword string) ([]*model.Project, error) {
	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("searching projects: %w", err)
	}
	techs := cleanList(technologies)
	return stripFiles(all, func(p *model.Project) bool {
		return p.MatchesTechnologies(techs) && p.MatchesKeyword(keyword)
	}), nil
}

// Purchase transfers ownership to the caller.
func (s *ProjectService) Purchase(ctx context.Context, caller auth.Principal, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(project.UserID, caller.Email) {
		return nil, apperror.Conflict("You already own this project")
	}

	previous := project.UserID
	project.UserID = caller.Email
	project.UpdatedAt = now()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("purchasing project %s: %w", id, err)
	}

	s.logger.Info("project purchased",
		zap.String("id", id),
		zap.String("from", previous),
		zap.String("to", caller.Email),
	)
	s.metrics.ProjectEvent(metrics.ProjectPurchased)
	s.record(ctx, caller.Email, id, model.ActionPurchasedProject, "Purchased project: "+project.Name)
	return project.WithoutFileData(), nil
}

// Get is the authenticated read. Owner or admin only; file payloads above
// model.LargeFileThreshold come back as null.
func (s *ProjectService) Get(ctx context.Context, caller auth.Principal, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsOrAdmin(caller, project.UserID) {
		return nil, apperror.Forbidden("You can only view your own projects")
	}
	return project.WithoutLargeFiles(model.LargeFileThreshold), nil
}

// GetPublic returns the full record, file bytes included.
func (s *ProjectService) GetPublic(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// FileLink describes a downloadable file without its payload.
type FileLink struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// ProjectDetails is the public project page: the project, who built it,
// its file links and its rendered README.
type ProjectDetails struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Description       string              `json:"description"`
	Visibility        string              `json:"visibility"`
	License           string              `json:"license"`
	GitignoreTemplate string              `json:"gitignoreTemplate"`
	Technologies      []string            `json:"technologies"`
	Status            model.ProjectStatus `json:"status"`
	UserID            string              `json:"userId"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`

	DeveloperName         string `json:"developerName"`
	DeveloperEmail        string `json:"developerEmail"`
	DeveloperOrganization string `json:"developerOrganization"`
	DeveloperDescription  string `json:"developerDescription"`

	Files         []FileLink         `json:"files"`
	ReadmeContent string             `json:"readmeContent"`
	Stats         model.ProjectStats `json:"stats"`
}

// Details builds the public project page. An owner that cannot be found
// leaves the developer fields blank rather than failing the page.
func (s *ProjectService) Details(ctx context.Context, id string) (*ProjectDetails, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &ProjectDetails{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Visibility:        p.Visibility,
		License:           p.License,
		GitignoreTemplate: p.GitignoreTemplate,
		Technologies:      p.Technologies,
		Status:            p.Status,
		UserID:            p.UserID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Files:             make([]FileLink, 0, len(p.Files)),
		Stats:             p.Stats,
	}

	if owner, err := s.users.GetByEmail(ctx, p.UserID); err == nil {
		d.DeveloperName = owner.Name
		d.DeveloperEmail = owner.Email
		d.DeveloperOrganization = owner.Organization
		d.DeveloperDescription = owner.Description
	} else {
		s.logger.Debug("project owner not found", zap.String("project", id), zap.Error(err))
	}

	for _, f := range p.Files {
		d.Files = append(d.Files, FileLink{
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Size:        f.Size,
			DownloadURL: DownloadURL(p.ID, f.Filename),
		})
		if d.ReadmeContent == "" && strings.Contains(strings.ToLower(f.Filename), "readme") {
			d.ReadmeContent = s.readme.Sanitize(string(f.Data))
		}
	}
	return d, nil
}

// DownloadURL is the public route serving one project file.
func DownloadURL(projectID, filename string) string {
	return "/api/projects/public/" + url.PathEscape(projectID) + "/files/" + url.PathEscape(filename) + "/download"
}

// RecordView bumps the view counter.
func (s *ProjectService) RecordView(ctx context.Context, id string) (model.ProjectStats, error) {
	stats, err := s.projects.IncrementStat(ctx, id, model.StatViews)
	if err != nil {
		return model.ProjectStats{}, err
	}
	s.metrics.ProjectEvent(metrics.ProjectViewed)
	return stats, nil
}

// Download returns one file and bumps the download counter.
func (s *ProjectService) Download(ctx context.Context, id, filename string) (*model.ProjectFile, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f, ok := p.File(filename)
	if !ok {
		return nil, apperror.NotFoundMessage(fmt.Sprintf("file %s not found in project %s", filename, id))
	}
	if _, err := s.projects.IncrementStat(ctx, id, model.StatDownloads); err != nil {
		return nil, fmt.Errorf("counting download of %s: %w", id, err)
	}
	s.metrics.ProjectEvent(metrics.ProjectDownloaded)
	return f, nil
}

// record appends an activity entry. The project change has already been
// persisted, so a failure here is logged, not returned.
func (s *ProjectService) record(ctx context.Context, userID, projectID, action, description string) {
	if _, err := s.activities.Log(ctx, userID, projectID, action, description); err != nil {
		s.logger.Warn("activity not recorded",
			zap.String("project", projectID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *ProjectService) toFiles(uploads []FileUpload) ([]model.ProjectFile, error) {
	files := make([]model.ProjectFile, 0, len(uploads))
	seen := make(map[string]bool, len(uploads))
	for _, u := range uploads {
		name := path.Base(strings.ReplaceAll(strings.TrimSpace(u.Filename), `\`, "/"))
		if name == "" || name == "." || name == "/" {
			return nil, apperror.ValidationFailed("files", "every file needs a name")
		}
		if seen[name] {
			return nil, apperror.ValidationFailed("files", "duplicate file name "+name)
		}
		if int64(len(u.Data)) > s.maxFileBytes {
			return nil, apperror.ValidationFailed("files",
				fmt.Sprintf("file %s exceeds the %d byte limit", name, s.maxFileBytes))
		}
		seen[name] = true

		ct := strings.TrimSpace(u.ContentType)
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, model.ProjectFile{
			Filename:    name,
			ContentType: ct,
			Data:        u.Data,
			Size:        int64(len(u.Data)),
		})
	}
	return files, nil
}

func parseVisibility(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", VisibilityPublic:
		return VisibilityPublic, nil
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	}
	return "", apperror.ValidationFailed("visibility", "visibility must be public or private")
}

func ownsOrAdmin(caller auth.Principal, owner string) bool {
	return caller.IsAdmin() || strings.EqualFold(caller.Email, owner)
}

// stripFiles keeps the projects matching keep, without file payloads.
func stripFiles(in []model.Project, keep func(*model.Project) bool) []*model.Project {
	out := make([]*model.Project, 0, len(in))
	for i := range in {
		if keep(&in[i]) {
			out = append(out, in[i].WithoutFileData())
		}
	}
	return out
}
