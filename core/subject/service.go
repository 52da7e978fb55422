package subject

import (
	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("subject not found")
	ErrCodeExists        = core.NewStateConflictError("a subject with this code already exists")
	ErrSelfPrerequisite  = core.NewInvalidInputError("a subject cannot be its own prerequisite")
	ErrPrerequisiteCycle = core.NewInvalidInputError("prerequisite chain forms a cycle")
	ErrInvalidStatus     = core.NewInvalidInputError("invalid subject status")
)

type (
	Repository interface {
		CheckCodeUniqueness(code string) error
		CreateSubject(sub Subject) (Subject, error)
		GetSubjectByID(id string) (Subject, error)
		GetSubjectByCode(code string) (Subject, error)
		QueryAllSubjects() ([]Subject, error)
		UpdateSubjectStatus(id string, status Status) (Subject, error)
		UpdateSubjectPrerequisites(id string, prereqIDs []string) (Subject, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(actor user.User, ns NewSubject) (Subject, error) {
	if err := user.Require(actor, user.RoleInstructor, user.RoleAdmin); err != nil {
		return Subject{}, err
	}
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	if err := svc.checkCodeUniqueness(ns.Code); err != nil {
		return Subject{}, err
	}
	for _, pid := range ns.PrerequisiteIDs {
		if _, err := svc.repo.GetSubjectByID(pid); err != nil {
			return Subject{}, err
		}
	}

	now := core.NowFunc()
	sub := Subject{
		ID:              uuid.New().String(),
		Code:            ns.Code,
		Name:            ns.Name,
		PrerequisiteIDs: ns.PrerequisiteIDs,
		Status:          StatusPending,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateSubject(sub)
}

func (svc *Service) GetByID(id string) (Subject, error) {
	return svc.repo.GetSubjectByID(id)
}

func (svc *Service) GetByCode(code string) (Subject, error) {
	return svc.repo.GetSubjectByCode(core.CleanString(code, true /* lower */))
}

// SetStatus transitions a Subject's lifecycle status. Administrative action.
func (svc *Service) SetStatus(actor user.User, id string, status Status) (Subject, error) {
	if err := user.Require(actor, user.RoleAdmin); err != nil {
		return Subject{}, err
	}
	if !status.Valid() {
		return Subject{}, ErrInvalidStatus
	}
	if _, err := svc.repo.GetSubjectByID(id); err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubjectStatus(id, status)
}

// SetPrerequisites replaces a Subject's prerequisite list. Rejects
// self-references and chains that would loop back onto the subject.
func (svc *Service) SetPrerequisites(actor user.User, id string, prereqIDs []string) (Subject, error) {
	if err := user.Require(actor, user.RoleAdmin); err != nil {
		return Subject{}, err
	}
	if _, err := svc.repo.GetSubjectByID(id); err != nil {
		return Subject{}, err
	}
	for _, pid := range prereqIDs {
		if pid == id {
			return Subject{}, ErrSelfPrerequisite
		}
		if _, err := svc.repo.GetSubjectByID(pid); err != nil {
			return Subject{}, err
		}
	}
	if err := svc.checkCycle(id, prereqIDs, map[string]bool{id: true}); err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubjectPrerequisites(id, prereqIDs)
}

// checkCycle walks the prerequisite graph depth-first from prereqIDs and fails
// if it ever revisits a subject already on the path from the root.
func (svc *Service) checkCycle(rootID string, prereqIDs []string, seen map[string]bool) error {
	for _, pid := range prereqIDs {
		if seen[pid] {
			return ErrPrerequisiteCycle
		}
		sub, err := svc.repo.GetSubjectByID(pid)
		if err != nil {
			return err
		}
		seen[pid] = true
		if err := svc.checkCycle(rootID, sub.PrerequisiteIDs, seen); err != nil {
			return err
		}
		delete(seen, pid)
	}
	return nil
}

func (svc *Service) checkCodeUniqueness(code string) error {
	if err := svc.repo.CheckCodeUniqueness(code); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}
