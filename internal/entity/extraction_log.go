package entity

import "time"

// ExtractionLog represents one processed file for data transfer between layers.
type ExtractionLog struct {
	ID          int       `json:"id"`
	BatchID     string    `json:"batch_id"`
	Filename    string    `json:"filename"`
	SourceType  string    `json:"source_type"`
	UploadTime  time.Time `json:"upload_time"`
	NameCount   int       `json:"name_count"`
	EmailCount  int       `json:"email_count"`
	OrgCount    int       `json:"org_count"`
	ModelSource string    `json:"model_source"`
	UserIP      *string   `json:"user_ip,omitempty"`
}
