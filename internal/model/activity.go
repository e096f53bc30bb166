package model

import "time"

// Activity actions. The log accepts any string; these are the ones the
// application writes itself.
const (
	ActionCreatedProject   = "CREATED_PROJECT"
	ActionEditedProject    = "EDITED_PROJECT"
	ActionUploadedFile     = "UPLOADED_FILE"
	ActionPurchasedProject = "PURCHASED_PROJECT"
	ActionCommented        = "COMMENTED"
)

// UserActivity is an append-only log entry. Records are never updated or
// deleted.
type UserActivity struct {
	ID          string    `json:"id"          bson:"_id,omitempty"`
	UserID      string    `json:"userId"      bson:"userId"`
	ProjectID   string    `json:"projectId"   bson:"projectId"`
	Action      string    `json:"action"      bson:"action"`
	Description string    `json:"description" bson:"description"`
	Timestamp   time.Time `json:"timestamp"   bson:"timestamp"`
}
