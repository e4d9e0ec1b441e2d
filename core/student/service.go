package student

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/markaz/core"
)

var (
	ErrNotFound        = core.NewNotFoundError("student")
	ErrAlreadyEnrolled = core.NewConstraintError("student_organization_pkey", "student is already enrolled in this organization")
	ErrStillMember     = core.NewConstraintError("membership_student_id_fkey", "student is still a member of a group of this organization")
)

// A student is shared by the organizations it is enrolled in. The profile (names, phone, birth date, bio)
// is common to all of them; Student.IsActive is the state of the enrollment in the organization
// the student was read through.
type (
	Repository interface {
		// CreateStudent saves the student and enrolls it in the organization with Student.IsActive.
		CreateStudent(ctx context.Context, orgID string, s Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents only returns students enrolled in the organization.
		// QueryFilter.Search does a case-insensitive match on the names and the phone number.
		QueryStudents(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) (Student, error)
		// UpdateStudent saves the shared profile and the enrollment state in the organization.
		UpdateStudent(ctx context.Context, orgID string, s Student, exec ...core.DBExecutor) (Student, error)
		// EnrollStudent enrolls an existing student in the organization.
		// It fails with ErrNotFound for an unknown student and ErrAlreadyEnrolled when enrolled already.
		EnrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error
		// UnenrollStudent removes the enrollment. It fails with ErrStillMember while the student
		// has an active membership in a group of the organization.
		UnenrollStudent(ctx context.Context, orgID, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, orgID string, ns NewStudent) (Student, error) {
	now := core.Now()
	s, err := svc.repo.CreateStudent(ctx, orgID, Student{
		ID:          core.NewID(),
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		MiddleName:  ns.MiddleName,
		PhoneNumber: ns.PhoneNumber,
		DateOfBirth: core.Date(ns.DateOfBirth),
		Bio:         ns.Bio,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return s, errors.Wrap(err, "creating student")
}

func (svc *Service) Query(ctx context.Context, orgID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, orgID, filter, ordering)
}

func (svc *Service) Get(ctx context.Context, orgID, id string) (Student, error) {
	if !core.IsID(id) {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, orgID, id)
}

func (svc *Service) Update(ctx context.Context, orgID string, s Student, us UpdateStudent) (Student, error) {
	if us.FirstName != "" {
		s.FirstName = us.FirstName
	}
	if us.LastName != "" {
		s.LastName = us.LastName
	}
	if us.MiddleName != nil {
		s.MiddleName = core.CleanString(*us.MiddleName)
	}
	if us.PhoneNumber != "" {
		s.PhoneNumber = us.PhoneNumber
	}
	if !us.DateOfBirth.IsZero() {
		s.DateOfBirth = core.Date(us.DateOfBirth)
	}
	if us.Bio != nil {
		s.Bio = core.CleanString(*us.Bio)
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	s.UpdatedAt = core.Now()
	s, err := svc.repo.UpdateStudent(ctx, orgID, s)
	return s, errors.Wrap(err, "updating student")
}

func (svc *Service) Deactivate(ctx context.Context, orgID, id string) error {
	s, err := svc.Get(ctx, orgID, id)
	if err != nil {
		return err
	}
	s.IsActive = false
	s.UpdatedAt = core.Now()
	_, err = svc.repo.UpdateStudent(ctx, orgID, s)
	return errors.Wrap(err, "deactivating student")
}

// Enroll adds a student of another organization to this one.
func (svc *Service) Enroll(ctx context.Context, orgID, id string) (Student, error) {
	if !core.IsID(id) {
		return Student{}, ErrNotFound
	}
	if err := svc.repo.EnrollStudent(ctx, orgID, id); err != nil {
		return Student{}, errors.Wrap(err, "enrolling student")
	}
	return svc.repo.GetStudent(ctx, orgID, id)
}

// Unenroll removes the student from the organization. Other enrollments are left untouched.
func (svc *Service) Unenroll(ctx context.Context, orgID, id string) error {
	if !core.IsID(id) {
		return ErrNotFound
	}
	return errors.Wrap(svc.repo.UnenrollStudent(ctx, orgID, id), "unenrolling student")
}
