package controllers

import (
	"fmt"
	"strings"

	"github.com/zaqqye/institute_backend/internal/models"
)

type enrollmentRequest struct {
	CourseID       string  `json:"courseId"`
	Status         string  `json:"status"`
	Progress       *int    `json:"progress"`
	EnrollmentDate *string `json:"enrollmentDate"`
	CompletionDate *string `json:"completionDate"`
}

func (r enrollmentRequest) toModel(prefix string) (models.Enrollment, error) {
	e := models.Enrollment{
		CourseID: strings.TrimSpace(r.CourseID),
		Status:   models.EnrollmentStatus(strings.TrimSpace(r.Status)),
	}
	if err := checkUUIDs(prefix+"courseId", e.CourseID); err != nil {
		return e, err
	}
	if r.Progress != nil {
		e.Progress = *r.Progress
	}
	enrolled, err := parseOptionalDate(prefix+"enrollmentDate", r.EnrollmentDate)
	if err != nil {
		return e, err
	}
	if enrolled != nil {
		e.EnrollmentDate = *enrolled
	}
	if e.CompletionDate, err = parseOptionalDate(prefix+"completionDate", r.CompletionDate); err != nil {
		return e, err
	}
	return e, nil
}

// enrollmentUpdate is the partial body of PUT .../enrollments/:course_id.
type enrollmentUpdate struct {
	Status         *string `json:"status"`
	Progress       *int    `json:"progress"`
	CompletionDate *string `json:"completionDate"`
}

type gradeRequest struct {
	CourseID string         `json:"courseId"`
	Grade    FlexibleString `json:"grade"`
	Marks    *float64       `json:"marks"`
	ExamDate string         `json:"examDate"`
}

func (r gradeRequest) toModel(prefix string) (models.GradeRecord, error) {
	g := models.GradeRecord{
		CourseID: strings.TrimSpace(r.CourseID),
		Grade:    r.Grade.String(),
	}
	if err := checkUUIDs(prefix+"courseId", g.CourseID); err != nil {
		return g, err
	}
	if r.Marks != nil {
		g.Marks = *r.Marks
	}
	if strings.TrimSpace(r.ExamDate) != "" {
		exam, err := parseDate(prefix+"examDate", r.ExamDate)
		if err != nil {
			return g, err
		}
		g.ExamDate = exam
	}
	return g, nil
}

type academicInfoRequest struct {
	PreviousEducation   *string        `json:"previousEducation"`
	PreviousInstitution *string        `json:"previousInstitution"`
	Grades              []gradeRequest `json:"grades"`
}

// studentRequest is the create/update body. Every field is optional so the
// same shape serves partial updates; required fields are enforced by the model.
type studentRequest struct {
	StudentID           *string              `json:"studentId"` // ignored: ids are assigned on create
	FirstName           *string              `json:"firstName"`
	LastName            *string              `json:"lastName"`
	Email               *string              `json:"email"`
	Phone               *FlexibleString      `json:"phone"`
	Address             *string              `json:"address"`
	DateOfBirth         *string              `json:"dateOfBirth"`
	NIC                 *FlexibleString      `json:"nic"`
	GuardianName        *string              `json:"guardianName"`
	GuardianPhone       *FlexibleString      `json:"guardianPhone"`
	PreviousEducation   *string              `json:"previousEducation"`
	PreviousInstitution *string              `json:"previousInstitution"`
	AcademicInfo        *academicInfoRequest `json:"academicInfo"`
	Status              *string              `json:"status"`
	EnrollmentDate      *string              `json:"enrollmentDate"`
	GraduationDate      *string              `json:"graduationDate"`
	Notes               *string              `json:"notes"`
	EnrolledCourses     []enrollmentRequest  `json:"enrolledCourses"`
}

// studentJSONFields are the form fields sent as JSON strings in multipart bodies.
var studentJSONFields = []string{"enrolledCourses", "academicInfo"}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// apply copies the provided fields onto st. Enrollments and grades are only
// taken on create; afterwards they change through their own endpoints.
func (r studentRequest) apply(st *models.Student, creating bool) error {
	setString(&st.FirstName, r.FirstName)
	setString(&st.LastName, r.LastName)
	setString(&st.Email, r.Email)
	setString(&st.Phone, r.Phone.ptr())
	setString(&st.Address, r.Address)
	setString(&st.NIC, r.NIC.ptr())
	setString(&st.GuardianName, r.GuardianName)
	setString(&st.GuardianPhone, r.GuardianPhone.ptr())
	setString(&st.PreviousEducation, r.PreviousEducation)
	setString(&st.PreviousInstitution, r.PreviousInstitution)
	setString(&st.Notes, r.Notes)
	if r.Status != nil {
		st.Status = models.StudentStatus(strings.TrimSpace(*r.Status))
	}
	if r.AcademicInfo != nil {
		setString(&st.PreviousEducation, r.AcademicInfo.PreviousEducation)
		setString(&st.PreviousInstitution, r.AcademicInfo.PreviousInstitution)
	}

	if r.DateOfBirth != nil {
		if strings.TrimSpace(*r.DateOfBirth) == "" {
			return models.NewValidationError("dateOfBirth", "required")
		}
		dob, err := parseDate("dateOfBirth", *r.DateOfBirth)
		if err != nil {
			return err
		}
		st.DateOfBirth = dob
	}
	enrolled, err := parseOptionalDate("enrollmentDate", r.EnrollmentDate)
	if err != nil {
		return err
	}
	if enrolled != nil {
		st.EnrollmentDate = *enrolled
	}
	if r.GraduationDate != nil {
		if st.GraduationDate, err = parseOptionalDate("graduationDate", r.GraduationDate); err != nil {
			return err
		}
	}

	if !creating {
		return nil
	}
	for i, er := range r.EnrolledCourses {
		e, err := er.toModel(fmt.Sprintf("enrolledCourses[%d].", i))
		if err != nil {
			return err
		}
		st.EnrolledCourses = append(st.EnrolledCourses, e)
	}
	if r.AcademicInfo != nil {
		for i, gr := range r.AcademicInfo.Grades {
			g, err := gr.toModel(fmt.Sprintf("grades[%d].", i))
			if err != nil {
				return err
			}
			st.Grades = append(st.Grades, g)
		}
	}
	return nil
}
