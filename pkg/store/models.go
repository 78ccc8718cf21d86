package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/memtensor/reqdocx/pkg/alldata"
	"github.com/memtensor/reqdocx/pkg/errors"
	"github.com/memtensor/reqdocx/pkg/types"
)

// ParseRun records one parsed document
type ParseRun struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Source           string    `gorm:"not null;index" json:"source"`
	Title            string    `json:"title,omitempty"`
	ParsedAt         time.Time `gorm:"not null;index" json:"parsed_at"`
	DurationMS       int64     `json:"duration_ms"`
	RequirementCount int       `gorm:"not null" json:"requirement_count"`
	Stats            string    `gorm:"type:text" json:"-"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`

	Requirements []RequirementRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"requirements,omitempty"`
}

// BeforeCreate hook for ParseRun model
func (r *ParseRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.ParsedAt.IsZero() {
		r.ParsedAt = time.Now()
	}
	r.CreatedAt = time.Now()
	return nil
}

// ParseStats decodes the stored counters
func (r *ParseRun) ParseStats() alldata.Stats {
	var stats alldata.Stats
	if r.Stats != "" {
		_ = json.Unmarshal([]byte(r.Stats), &stats)
	}
	return stats
}

// DecodeRequirements decodes the loaded records in document order. The run
// must have been read with its requirements.
func (r *ParseRun) DecodeRequirements() ([]types.Requirement, error) {
	reqs := make([]types.Requirement, 0, len(r.Requirements))
	for i := range r.Requirements {
		req, err := r.Requirements[i].Requirement()
		if err != nil {
			return nil, errors.NewDatabaseErrorWithCause("failed to decode requirement", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// RequirementRecord is one requirement of a run. The indexed columns mirror
// the header fields; Data holds the complete record as JSON.
type RequirementRecord struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RunID     string    `gorm:"not null;index;type:varchar(36)" json:"run_id"`
	Position  int       `gorm:"not null" json:"position"`
	Item      string    `gorm:"not null;index" json:"item"`
	Heading   string    `json:"heading,omitempty"`
	Name      string    `json:"name"`
	Status    string    `gorm:"index" json:"status,omitempty"`
	Project   string    `gorm:"index" json:"project,omitempty"`
	Data      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func newRecord(runID string, position int, req types.Requirement) (RequirementRecord, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return RequirementRecord{}, err
	}
	return RequirementRecord{
		RunID:    runID,
		Position: position,
		Item:     req.Item,
		Heading:  req.Heading,
		Name:     req.Name,
		Status:   req.Status,
		Project:  req.Project,
		Data:     string(data),
	}, nil
}

// Requirement decodes the stored record
func (r *RequirementRecord) Requirement() (types.Requirement, error) {
	var req types.Requirement
	err := json.Unmarshal([]byte(r.Data), &req)
	return req, err
}

// StoredRequirement is a requirement together with the run it came from
type StoredRequirement struct {
	RunID       string            `json:"run_id"`
	Source      string            `json:"source"`
	ParsedAt    time.Time         `json:"parsed_at"`
	Requirement types.Requirement `json:"requirement"`
}
