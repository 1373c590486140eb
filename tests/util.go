package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	name, code, instructorID, status string,
	studentIDs ...string,
) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs := course.Course{
		Name:             name,
		Code:             code,
		Description:      "An in-depth course covering " + name + " fundamentals.",
		InstructorID:     instructorID,
		Status:           status,
		StudentsEnrolled: studentIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}
