package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentInactive  StudentStatus = "inactive"
	StudentGraduated StudentStatus = "graduated"
	StudentSuspended StudentStatus = "suspended"
)

var StudentStatuses = []StudentStatus{StudentActive, StudentInactive, StudentGraduated, StudentSuspended}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentSuspended EnrollmentStatus = "suspended"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

var EnrollmentStatuses = []EnrollmentStatus{EnrollmentActive, EnrollmentCompleted, EnrollmentSuspended, EnrollmentDropped}

const (
	studentIDPrefix = "STU"
	// MaxStudentSeq is the largest sequence value that still fits the six digit format.
	MaxStudentSeq = 999999
)

var studentIDPattern = regexp.MustCompile(`^STU\d{6}$`)

// averageYear is the 365.25-day year used for age.
const averageYear = time.Duration(36525) * 24 * time.Hour / 100

// Student is the canonical learner record.
type Student struct {
	ID                  string         `gorm:"size:36;primaryKey" json:"id"`
	StudentID           string         `gorm:"size:16;uniqueIndex;not null" json:"studentId" validate:"required,studentid"`
	FirstName           string         `gorm:"size:100;not null" json:"firstName" validate:"required"`
	LastName            string         `gorm:"size:100;not null" json:"lastName" validate:"required"`
	Email               string         `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,email"`
	Phone               string         `gorm:"size:32;not null" json:"phone" validate:"required"`
	Address             string         `gorm:"type:text;not null" json:"address" validate:"required"`
	DateOfBirth         time.Time      `gorm:"not null" json:"dateOfBirth" validate:"required"`
	NIC                 string         `gorm:"column:nic;size:20;uniqueIndex;not null" json:"nic" validate:"required"`
	GuardianName        string         `gorm:"size:200" json:"guardianName,omitempty"`
	GuardianPhone       string         `gorm:"size:32" json:"guardianPhone,omitempty"`
	ProfilePicture      string         `gorm:"size:512" json:"profilePicture,omitempty"`
	EnrolledCourses     []Enrollment   `gorm:"foreignKey:StudentRef" json:"enrolledCourses" validate:"dive"`
	PreviousEducation   string         `gorm:"size:255" json:"-"`
	PreviousInstitution string         `gorm:"size:255" json:"-"`
	Grades              []GradeRecord  `gorm:"foreignKey:StudentRef" json:"-" validate:"dive"`
	Status              StudentStatus  `gorm:"size:16;not null;default:active;index" json:"status" validate:"required,oneof=active inactive graduated suspended"`
	EnrollmentDate      time.Time      `json:"enrollmentDate"`
	GraduationDate      *time.Time     `json:"graduationDate,omitempty"`
	Notes               string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// Enrollment attaches a student to a course.
type Enrollment struct {
	ID             uint             `gorm:"primaryKey" json:"-"`
	StudentRef     string           `gorm:"size:36;not null;uniqueIndex:uniq_student_course" json:"-"`
	CourseID       string           `gorm:"size:36;not null;uniqueIndex:uniq_student_course;index" json:"courseId" validate:"required"`
	EnrollmentDate time.Time        `json:"enrollmentDate"`
	Status         EnrollmentStatus `gorm:"size:16;not null;default:active" json:"status" validate:"required,oneof=active completed suspended dropped"`
	Progress       int              `gorm:"not null;default:0;check:chk_enrollments_progress,progress >= 0 AND progress <= 100" json:"progress" validate:"min=0,max=100"`
	CompletionDate *time.Time       `json:"completionDate,omitempty"`
	CreatedAt      time.Time        `json:"-"`
	UpdatedAt      time.Time        `json:"-"`
}

type GradeRecord struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	StudentRef string    `gorm:"size:36;not null;index" json:"-"`
	CourseID   string    `gorm:"size:36;not null" json:"courseId" validate:"required"`
	Grade      string    `gorm:"size:8;not null" json:"grade" validate:"required"`
	Marks      float64   `json:"marks" validate:"min=0,max=100"`
	ExamDate   time.Time `json:"examDate" validate:"required"`
	CreatedAt  time.Time `json:"-"`
}

// AcademicInfo is the nested JSON view of the academic columns.
type AcademicInfo struct {
	PreviousEducation   string        `json:"previousEducation,omitempty"`
	PreviousInstitution string        `json:"previousInstitution,omitempty"`
	Grades              []GradeRecord `json:"grades"`
}

// FormatStudentID renders a sequence value as STU######.
func FormatStudentID(seq int64) string {
	return fmt.Sprintf("%s%06d", studentIDPrefix, seq)
}

// ParseStudentSeq returns the numeric suffix of a well-formed student id.
func ParseStudentSeq(id string) (int64, bool) {
	if !IsStudentID(id) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, studentIDPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func IsStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

func IsStudentStatus(s string) bool {
	for _, st := range StudentStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

func IsEnrollmentStatus(s string) bool {
	for _, st := range EnrollmentStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// AgeAt returns whole 365.25-day years between DateOfBirth and now.
func (s Student) AgeAt(now time.Time) int {
	if s.DateOfBirth.IsZero() || now.Before(s.DateOfBirth) {
		return 0
	}
	return int(now.Sub(s.DateOfBirth) / averageYear)
}

func (s Student) AcademicInfo() AcademicInfo {
	grades := s.Grades
	if grades == nil {
		grades = []GradeRecord{}
	}
	return AcademicInfo{
		PreviousEducation:   s.PreviousEducation,
		PreviousInstitution: s.PreviousInstitution,
		Grades:              grades,
	}
}

// Normalize trims free text, lower-cases the email and fills the default status.
func (s *Student) Normalize() {
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.NIC = strings.ToUpper(strings.TrimSpace(s.NIC))
	s.GuardianName = strings.TrimSpace(s.GuardianName)
	s.GuardianPhone = strings.TrimSpace(s.GuardianPhone)
	s.PreviousEducation = strings.TrimSpace(s.PreviousEducation)
	s.PreviousInstitution = strings.TrimSpace(s.PreviousInstitution)
	s.Notes = strings.TrimSpace(s.Notes)
	if s.Status == "" {
		s.Status = StudentActive
	}
	for i := range s.EnrolledCourses {
		s.EnrolledCourses[i].Normalize()
	}
	for i := range s.Grades {
		s.Grades[i].Normalize()
	}
}

func (s *Student) BeforeSave(tx *gorm.DB) error {
	s.Normalize()
	return Validate(s)
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.EnrollmentDate.IsZero() {
		s.EnrollmentDate = time.Now().UTC()
	}
	return nil
}

func (s Student) MarshalJSON() ([]byte, error) {
	type plain Student
	courses := s.EnrolledCourses
	if courses == nil {
		courses = []Enrollment{}
	}
	p := plain(s)
	p.EnrolledCourses = courses
	return json.Marshal(struct {
		plain
		FullName     string       `json:"fullName"`
		Age          int          `json:"age"`
		AcademicInfo AcademicInfo `json:"academicInfo"`
	}{
		plain:        p,
		FullName:     s.FullName(),
		Age:          s.AgeAt(time.Now()),
		AcademicInfo: s.AcademicInfo(),
	})
}

func (e *Enrollment) Normalize() {
	e.CourseID = strings.TrimSpace(e.CourseID)
	if e.Status == "" {
		e.Status = EnrollmentActive
	}
}

func (e *Enrollment) BeforeSave(tx *gorm.DB) error {
	e.Normalize()
	return Validate(e)
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.EnrollmentDate.IsZero() {
		e.EnrollmentDate = time.Now().UTC()
	}
	return nil
}

func (g *GradeRecord) Normalize() {
	g.CourseID = strings.TrimSpace(g.CourseID)
	g.Grade = strings.ToUpper(strings.TrimSpace(g.Grade))
}

func (g *GradeRecord) BeforeSave(tx *gorm.DB) error {
	g.Normalize()
	return Validate(g)
}
