// Package dummydb provides in-memory repositories for tests and local dev.
package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chuoapp/chuo/core/attendance"
	"github.com/chuoapp/chuo/core/course"
	"github.com/chuoapp/chuo/core/exam"
	"github.com/chuoapp/chuo/core/leave"
	"github.com/chuoapp/chuo/core/notice"
	"github.com/chuoapp/chuo/core/payment"
	"github.com/chuoapp/chuo/core/schedule"
	"github.com/chuoapp/chuo/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		exam       *examTable
		leave      *leaveTable
		attendance *attendanceTable
		notice     *noticeTable
		schedule   *scheduleTable
		payment    *paymentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	examTable struct {
		sync.RWMutex
		exams   map[string]*exam.Exam
		results map[string]*exam.Result
	}

	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.Leave
	}

	attendanceTable struct {
		sync.RWMutex
		records  map[string]*attendance.Record
		requests map[string]*attendance.Request
	}

	noticeTable struct {
		sync.RWMutex
		notices       map[string]*notice.Notice
		notifications map[string]*notice.Notification
		deliveries    map[string]*notice.Delivery // keyed by notificationID+"/"+recipientID
	}

	scheduleTable struct {
		sync.RWMutex
		schedules map[string]*schedule.Schedule
		weekly    map[string]*schedule.WeeklySchedule
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*payment.Invoice
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		course: &courseTable{table: make(map[string]*course.Course)},
		exam: &examTable{
			exams:   make(map[string]*exam.Exam),
			results: make(map[string]*exam.Result),
		},
		leave: &leaveTable{table: make(map[string]*leave.Leave)},
		attendance: &attendanceTable{
			records:  make(map[string]*attendance.Record),
			requests: make(map[string]*attendance.Request),
		},
		notice: &noticeTable{
			notices:       make(map[string]*notice.Notice),
			notifications: make(map[string]*notice.Notification),
			deliveries:    make(map[string]*notice.Delivery),
		},
		schedule: &scheduleTable{
			schedules: make(map[string]*schedule.Schedule),
			weekly:    make(map[string]*schedule.WeeklySchedule),
		},
		payment: &paymentTable{table: make(map[string]*payment.Invoice)},
	}
	return db, nil
}

func newID() string {
	return uuid.New().String()
}
