// Package testutil holds fixtures shared by the tests of the other packages.
// Fixtures are saved straight through the repositories, skipping service validation.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/markaz/core"
	"github.com/trezcool/markaz/core/group"
	"github.com/trezcool/markaz/core/homework"
	"github.com/trezcool/markaz/core/lesson"
	"github.com/trezcool/markaz/core/organization"
	"github.com/trezcool/markaz/core/payment"
	"github.com/trezcool/markaz/core/staff"
	"github.com/trezcool/markaz/core/student"
	"github.com/trezcool/markaz/core/user"
)

func tstamp(createdAt []time.Time) time.Time {
	if len(createdAt) > 0 {
		return createdAt[0].UTC()
	}
	return core.Now()
}

func CreateOrganization(t *testing.T, repo organization.Repository, name string) organization.Organization {
	now := core.Now()
	org, err := repo.CreateOrganization(context.Background(), organization.Organization{
		ID:        core.NewID(),
		Name:      name,
		Phone:     "+998901234567",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err, "CreateOrganization()")
	return org
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	orgID, name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	ts := tstamp(createdAt)
	usr := user.User{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           name,
		Username:       uname,
		Email:          email,
		Roles:          roles,
		IsActive:       isActive,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd), "CreateUser()")
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err, "CreateUser()")
	return usr
}

func CreateSpecialty(t *testing.T, repo staff.Repository, orgID, name string) staff.Specialty {
	now := core.Now()
	sp, err := repo.CreateSpecialty(context.Background(), staff.Specialty{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           name,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreateSpecialty()")
	return sp
}

// CreateStaff saves a staff member with a zero balance.
func CreateStaff(t *testing.T, repo staff.Repository, orgID, specialtyID, name, role string, isActive bool, createdAt ...time.Time) staff.Member {
	ts := tstamp(createdAt)
	m, err := repo.CreateMember(context.Background(), staff.Member{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           name,
		PhoneNumber:    "+998901112233",
		Role:           role,
		SpecialtyID:    specialtyID,
		SalaryScheme:   staff.SalaryMonthly,
		SalaryAmount:   decimal.NewFromInt(1000),
		Balance:        decimal.Zero,
		IsActive:       isActive,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	})
	require.NoError(t, err, "CreateStaff()")
	return m
}

func CreateStudent(t *testing.T, repo student.Repository, orgID, firstName, lastName string, isActive bool, createdAt ...time.Time) student.Student {
	ts := tstamp(createdAt)
	s, err := repo.CreateStudent(context.Background(), orgID, student.Student{
		ID:          core.NewID(),
		FirstName:   firstName,
		LastName:    lastName,
		PhoneNumber: "+998907654321",
		DateOfBirth: time.Date(2008, time.March, 14, 0, 0, 0, 0, time.UTC),
		IsActive:    isActive,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	})
	require.NoError(t, err, "CreateStudent()")
	return s
}

func CreateGroup(t *testing.T, repo group.Repository, orgID, teacherID, name string, isActive bool) group.Group {
	now := core.Now()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           name,
		TeacherID:      teacherID,
		StartDate:      core.Date(now),
		EndDate:        core.Date(now).AddDate(0, 3, 0),
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreateGroup()")
	return g
}

func AddMember(t *testing.T, repo group.Repository, orgID, groupID, studentID string) group.Membership {
	now := core.Now()
	m, err := repo.CreateMembership(context.Background(), group.Membership{
		ID:             core.NewID(),
		OrganizationID: orgID,
		GroupID:        groupID,
		StudentID:      studentID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "AddMember()")
	return m
}

func CreatePaymentType(t *testing.T, repo payment.Repository, orgID, name string) payment.Type {
	now := core.Now()
	pt, err := repo.CreateType(context.Background(), payment.Type{
		ID:             core.NewID(),
		OrganizationID: orgID,
		Name:           name,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreatePaymentType()")
	return pt
}

func CreatePayment(t *testing.T, repo payment.Repository, orgID, studentID, groupID, amount string, paidAt time.Time, isActive bool) payment.Payment {
	now := core.Now()
	p, err := repo.CreatePayment(context.Background(), payment.Payment{
		ID:             core.NewID(),
		OrganizationID: orgID,
		StudentID:      studentID,
		GroupID:        groupID,
		Amount:         decimal.RequireFromString(amount),
		PaidAt:         core.Date(paidAt),
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreatePayment()")
	return p
}

func CreateLesson(t *testing.T, repo lesson.Repository, orgID, groupID string, number int) lesson.Lesson {
	now := core.Now()
	l, err := repo.CreateLesson(context.Background(), lesson.Lesson{
		ID:             core.NewID(),
		OrganizationID: orgID,
		GroupID:        groupID,
		Number:         number,
		Title:          "Lesson",
		ScheduledDate:  core.Date(now),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreateLesson()")
	return l
}

func CreateHomework(t *testing.T, repo homework.Repository, orgID, lessonID, teacherID string) homework.Homework {
	now := core.Now()
	h, err := repo.CreateHomework(context.Background(), homework.Homework{
		ID:             core.NewID(),
		OrganizationID: orgID,
		LessonID:       lessonID,
		TeacherID:      teacherID,
		Title:          "Homework",
		StartTime:      now,
		EndTime:        now.Add(7 * 24 * time.Hour),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err, "CreateHomework()")
	return h
}
