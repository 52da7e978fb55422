package subject

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Status is a Subject's lifecycle state. Only approved subjects accept enrollments.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type Subject struct {
	ID   string `json:"id"`
	Code string `json:"code"` // unique
	Name string `json:"name"`
	// PrerequisiteIDs lists the subjects a student must have completed graded
	// work in before enrolling in any course of this subject, in checking order.
	PrerequisiteIDs []string  `json:"prerequisite_ids"`
	Status          Status    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Code            string   `json:"code" validate:"required,alphanum,min=2,max=16"`
	Name            string   `json:"name" validate:"required"`
	PrerequisiteIDs []string `json:"prerequisite_ids" validate:"omitempty,unique"`
}

func (ns *NewSubject) Validate() error {
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}
