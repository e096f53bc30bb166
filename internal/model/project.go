package model

import (
	"slices"
	"strings"
	"time"
)

// LargeFileThreshold is the payload size above which authenticated
// project reads return a file's metadata without its bytes.
const LargeFileThreshold = 256 * 1024 // 262144

// ProjectStatus is one-way in practice: DRAFT → PUBLISHED.
type ProjectStatus string

const (
	ProjectDraft     ProjectStatus = "DRAFT"
	ProjectPublished ProjectStatus = "PUBLISHED"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	return s == ProjectDraft || s == ProjectPublished
}

// ProjectFile is stored inline with its project.
//
// Data is a []byte so encoding/json renders it as base64, and a nil slice
// renders as null. That null is how large payloads are elided.
type ProjectFile struct {
	Filename    string `json:"filename"    bson:"filename"`
	ContentType string `json:"contentType" bson:"contentType"`
	Data        []byte `json:"data"        bson:"data"`
	Size        int64  `json:"size"        bson:"size"`
}

type ProjectStats struct {
	ViewCount     int64 `json:"viewCount"     bson:"viewCount"`
	DownloadCount int64 `json:"downloadCount" bson:"downloadCount"`
}

// ProjectStat names a counter that can be incremented in place.
type ProjectStat string

const (
	StatViews     ProjectStat = "viewCount"
	StatDownloads ProjectStat = "downloadCount"
)

// Project is a developer's published work.
//
// UserID holds the owner's email. It changes only when the project is
// purchased.
type Project struct {
	ID                string        `json:"id"                bson:"_id,omitempty"`
	Name              string        `json:"name"              bson:"name"`
	Description       string        `json:"description"       bson:"description"`
	Visibility        string        `json:"visibility"        bson:"visibility"`
	AddReadme         bool          `json:"addReadme"         bson:"addReadme"`
	GitignoreTemplate string        `json:"gitignoreTemplate" bson:"gitignoreTemplate"`
	License           string        `json:"license"           bson:"license"`
	Technologies      []string      `json:"technologies"      bson:"technologies"`
	Status            ProjectStatus `json:"status"            bson:"status"`
	UserID            string        `json:"userId"            bson:"userId"`
	Files             []ProjectFile `json:"files"             bson:"files"`
	Stats             ProjectStats  `json:"stats"             bson:"stats"`
	CreatedAt         time.Time     `json:"createdAt"         bson:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"         bson:"updatedAt"`
}

// WithoutLargeFiles returns a copy whose files above limit bytes carry a
// nil payload. The receiver is not modified.
func (p *Project) WithoutLargeFiles(limit int) *Project {
	cp := *p
	cp.Files = make([]ProjectFile, len(p.Files))
	for i, f := range p.Files {
		if len(f.Data) > limit {
			f.Data = nil
		}
		cp.Files[i] = f
	}
	return &cp
}

// WithoutFileData returns a copy carrying file metadata only.
func (p *Project) WithoutFileData() *Project {
	return p.WithoutLargeFiles(-1)
}

// File finds a file by exact name.
func (p *Project) File(name string) (*ProjectFile, bool) {
	for i := range p.Files {
		if p.Files[i].Filename == name {
			return &p.Files[i], true
		}
	}
	return nil, false
}

// MatchesTechnologies reports whether the project uses at least one of techs.
// An empty filter matches everything.
func (p *Project) MatchesTechnologies(techs []string) bool {
	if len(techs) == 0 {
		return true
	}
	for _, t := range techs {
		if slices.Contains(p.Technologies, t) {
			return true
		}
	}
	return false
}

// MatchesKeyword is a case-insensitive substring match on name or description.
// A blank keyword matches everything.
func (p *Project) MatchesKeyword(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), keyword) ||
		strings.Contains(strings.ToLower(p.Description), keyword)
}
