package model

import "time"

// Document is implemented by records whose id the storage layer assigns.
// Generic repositories use it to stamp the id on insert.
type Document interface {
	DocumentID() string
	SetDocumentID(id string)
}

// PostRecord is what every buyer post exposes to storage: its owner and
// posting time.
type PostRecord interface {
	Document
	Owner() string
	PostedTime() time.Time
}

// PostKind is the discriminant of Post.
type PostKind string

const (
	PostJob        PostKind = "JOB"
	PostInternship PostKind = "INTERNSHIP"
	PostProblem    PostKind = "PROBLEM"
)

// Job is a buyer-owned job posting.
type Job struct {
	ID                string    `json:"id"                          bson:"_id,omitempty"`
	BuyerEmail        string    `json:"buyerEmail"                  bson:"buyerEmail"`
	Title             string    `json:"title"                       bson:"title"`
	Description       string    `json:"description"                 bson:"description"`
	Location          string    `json:"location"                    bson:"location"`
	Type              string    `json:"type"                        bson:"type"`
	Salary            *float64  `json:"salary,omitempty"            bson:"salary,omitempty"`
	YearsOfExperience *int      `json:"yearsOfExperience,omitempty" bson:"yearsOfExperience,omitempty"`
	PostedAt          time.Time `json:"postedAt"                    bson:"postedAt"`
}

func (j *Job) DocumentID() string      { return j.ID }
func (j *Job) SetDocumentID(id string) { j.ID = id }
func (j *Job) Owner() string           { return j.BuyerEmail }
func (j *Job) PostedTime() time.Time   { return j.PostedAt }

// Internship is a buyer-owned internship posting.
type Internship struct {
	ID                  string     `json:"id"                            bson:"_id,omitempty"`
	BuyerEmail          string     `json:"buyerEmail"                    bson:"buyerEmail"`
	Title               string     `json:"title"                         bson:"title"`
	Description         string     `json:"description"                   bson:"description"`
	Location            string     `json:"location"                      bson:"location"`
	Duration            string     `json:"duration"                      bson:"duration"`
	Paid                bool       `json:"paid"                          bson:"paid"`
	Stipend             *float64   `json:"stipend,omitempty"             bson:"stipend,omitempty"`
	CompanyName         string     `json:"companyName"                   bson:"companyName"`
	Qualifications      string     `json:"qualifications"                bson:"qualifications"`
	Skills              []string   `json:"skills"                        bson:"skills"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty" bson:"applicationDeadline,omitempty"`
	Mode                string     `json:"mode"                          bson:"mode"`
	PostedAt            time.Time  `json:"postedAt"                      bson:"postedAt"`
}

func (i *Internship) DocumentID() string      { return i.ID }
func (i *Internship) SetDocumentID(id string) { i.ID = id }
func (i *Internship) Owner() string           { return i.BuyerEmail }
func (i *Internship) PostedTime() time.Time   { return i.PostedAt }

// Problem is a buyer-owned problem statement.
type Problem struct {
	ID           string    `json:"id"           bson:"_id,omitempty"`
	BuyerEmail   string    `json:"buyerEmail"   bson:"buyerEmail"`
	Title        string    `json:"title"        bson:"title"`
	Statement    string    `json:"statement"    bson:"statement"`
	Background   string    `json:"background"   bson:"background"`
	Organization string    `json:"organization" bson:"organization"`
	Domain       string    `json:"domain"       bson:"domain"`
	Difficulty   string    `json:"difficulty"   bson:"difficulty"`
	Tags         []string  `json:"tags"         bson:"tags"`
	PostedAt     time.Time `json:"postedAt"     bson:"postedAt"`
}

func (p *Problem) DocumentID() string      { return p.ID }
func (p *Problem) SetDocumentID(id string) { p.ID = id }
func (p *Problem) Owner() string           { return p.BuyerEmail }
func (p *Problem) PostedTime() time.Time   { return p.PostedAt }

// Post is a tagged union over the three buyer post types. Exactly one of
// Job, Internship or Problem is set, and Kind says which.
type Post struct {
	Kind       PostKind    `json:"kind"`
	Job        *Job        `json:"job,omitempty"`
	Internship *Internship `json:"internship,omitempty"`
	Problem    *Problem    `json:"problem,omitempty"`
}

func JobPost(j *Job) Post               { return Post{Kind: PostJob, Job: j} }
func InternshipPost(i *Internship) Post { return Post{Kind: PostInternship, Internship: i} }
func ProblemPost(p *Problem) Post       { return Post{Kind: PostProblem, Problem: p} }

// ID returns the id of whichever variant is set.
func (p Post) ID() string {
	switch p.Kind {
	case PostJob:
		return p.Job.ID
	case PostInternship:
		return p.Internship.ID
	case PostProblem:
		return p.Problem.ID
	}
	return ""
}

// BuyerEmail returns the owner of whichever variant is set.
func (p Post) BuyerEmail() string {
	switch p.Kind {
	case PostJob:
		return p.Job.BuyerEmail
	case PostInternship:
		return p.Internship.BuyerEmail
	case PostProblem:
		return p.Problem.BuyerEmail
	}
	return ""
}
