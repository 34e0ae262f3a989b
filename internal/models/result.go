package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PipelineResult is the outcome of importing one item. Never mutated after
// the pipeline returns it.
type PipelineResult struct {
	Success        bool      `json:"success"`
	ItemID         string    `json:"item_id"`
	ProductID      int64     `json:"product_id,omitempty"`
	ProductURL     string    `json:"product_url,omitempty"`
	Error          string    `json:"error,omitempty"`
	ImagesUploaded int       `json:"images_uploaded,omitempty"`
	ImagesFailed   int       `json:"images_failed,omitempty"`
	Duration       float64   `json:"duration_seconds"`
	FinishedAt     time.Time `json:"finished_at"`
}

// BatchReport is the JSON document written at the end of a batch run.
type BatchReport struct {
	RunID        string           `json:"run_id"`
	Brand        string           `json:"brand"`
	StartedAt    time.Time        `json:"started_at"`
	TotalSeconds float64          `json:"total_seconds"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	Results      []PipelineResult `json:"results"`
}

type ImportStatus string

const (
	ImportStatusSucceeded ImportStatus = "SUCCEEDED"
	ImportStatusFailed    ImportStatus = "FAILED"
)

// ImportRecord is the persisted history row for one pipeline run.
type ImportRecord struct {
	ID             string       `json:"id" gorm:"type:varchar(36);primaryKey"`
	ItemID         string       `json:"item_id" gorm:"index;not null"`
	Brand          string       `json:"brand" gorm:"index"`
	Status         ImportStatus `json:"status" gorm:"index;not null"`
	ProductID      int64        `json:"product_id"`
	ProductURL     string       `json:"product_url"`
	Error          string       `json:"error"`
	ImagesUploaded int          `json:"images_uploaded"`
	ImagesFailed   int          `json:"images_failed"`
	Duration       float64      `json:"duration_seconds"`
	Details        JSONB        `json:"details" gorm:"type:text"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (r *ImportRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// NewImportRecord converts a pipeline result into a history row.
func NewImportRecord(brand string, res PipelineResult) *ImportRecord {
	status := ImportStatusFailed
	if res.Success {
		status = ImportStatusSucceeded
	}
	return &ImportRecord{
		ItemID:         res.ItemID,
		Brand:          brand,
		Status:         status,
		ProductID:      res.ProductID,
		ProductURL:     res.ProductURL,
		Error:          res.Error,
		ImagesUploaded: res.ImagesUploaded,
		ImagesFailed:   res.ImagesFailed,
		Duration:       res.Duration,
		Details: JSONB{
			"finished_at": res.FinishedAt,
		},
	}
}

// JSONB stores a JSON object in a text/jsonb column.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(raw, j)
}
