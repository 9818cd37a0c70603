package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zaqqye/institute_backend/internal/models"
)

// StudentStore owns persistence of student records, their enrollments and grades.
type StudentStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewStudentStore(db *gorm.DB) *StudentStore {
	return &StudentStore{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// StudentFilter drives List. Zero values mean "no filter".
type StudentFilter struct {
	Query    string
	Status   string
	CourseID string
	Limit    int
	Page     int
	All      bool
	SortBy   string // key of StudentSortColumns
	SortDir  string // ASC | DESC
}

// StudentSortColumns maps the accepted sort_by keys to columns.
var StudentSortColumns = map[string]string{
	"created_at":      "created_at",
	"student_id":      "student_id",
	"first_name":      "first_name",
	"last_name":       "last_name",
	"email":           "email",
	"status":          "status",
	"enrollment_date": "enrollment_date",
}

// StudentSortColumn reports whether key is a sortable column and returns it.
func StudentSortColumn(key string) (string, bool) {
	col, ok := StudentSortColumns[strings.ToLower(key)]
	return col, ok
}

func (s *StudentStore) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("EnrolledCourses", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Grades", func(db *gorm.DB) *gorm.DB { return db.Order("exam_date ASC, id ASC") })
}

// Create assigns the next student id and inserts st with its enrollments and
// grades in one transaction. Any studentId already set on st is replaced.
func (s *StudentStore) Create(ctx context.Context, st *models.Student) error {
	st.StudentID = ""
	st.Normalize()
	seen := make(map[string]struct{}, len(st.EnrolledCourses))
	for _, e := range st.EnrolledCourses {
		if e.CourseID == "" {
			continue
		}
		if _, dup := seen[e.CourseID]; dup {
			return ErrEnrollmentExists
		}
		seen[e.CourseID] = struct{}{}
	}
	for _, g := range st.Grades {
		if _, ok := seen[g.CourseID]; !ok && g.CourseID != "" {
			return fmt.Errorf("%w: student is not enrolled in %s", ErrCourseNotFound, g.CourseID)
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCoursesExist(tx, courseIDs(st)); err != nil {
			return err
		}
		seq, err := NextValue(tx, StudentSequence)
		if err != nil {
			return fmt.Errorf("next student sequence: %w", err)
		}
		if seq > models.MaxStudentSeq {
			return ErrSequenceExhausted
		}
		st.StudentID = models.FormatStudentID(seq)
		return tx.Create(st).Error
	})
	if err != nil {
		st.StudentID = ""
		return TranslateError(err)
	}
	return nil
}

// Get loads a student by studentId (STU######) with enrollments and grades.
func (s *StudentStore) Get(ctx context.Context, studentID string) (*models.Student, error) {
	return s.get(s.DB.WithContext(ctx), studentID)
}

func (s *StudentStore) get(tx *gorm.DB, studentID string) (*models.Student, error) {
	var st models.Student
	if err := withChildren(tx).Where("student_id = ?", strings.ToUpper(strings.TrimSpace(studentID))).Take(&st).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &st, nil
}

// List returns one page of students and the total matching count.
func (s *StudentStore) List(ctx context.Context, f StudentFilter) ([]models.Student, int64, error) {
	filtered := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&models.Student{})
		if text := strings.TrimSpace(f.Query); text != "" {
			like := "%" + strings.ToLower(text) + "%"
			q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(student_id) LIKE ? OR LOWER(nic) LIKE ?",
				like, like, like, like, like)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.CourseID != "" {
			q = q.Where("id IN (?)", s.DB.Model(&models.Enrollment{}).Select("student_ref").Where("course_id = ?", f.CourseID))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortCol, ok := StudentSortColumn(f.SortBy)
	if !ok {
		sortCol = "created_at"
	}
	sortDir := strings.ToUpper(f.SortDir)
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "DESC"
	}
	q := withChildren(filtered()).Order(sortCol + " " + sortDir).Order("student_id ASC")
	if !f.All {
		limit, page := f.Limit, f.Page
		if limit <= 0 {
			limit = 20
		}
		if page <= 0 {
			page = 1
		}
		q = q.Offset((page - 1) * limit).Limit(limit)
	}
	var out []models.Student
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update loads the student, lets apply modify it, and saves the scalar columns.
// studentId, createdAt and the child collections are never written here.
// Moving to graduated without a graduation date stamps the current time.
func (s *StudentStore) Update(ctx context.Context, studentID string, apply func(*models.Student) error) (*models.Student, error) {
	var out *models.Student
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.get(tx, studentID)
		if err != nil {
			return err
		}
		assigned := st.StudentID
		if err := apply(st); err != nil {
			return err
		}
		st.StudentID = assigned
		stampGraduation(st, s.now())
		if err := tx.Omit("StudentID", "CreatedAt", clause.Associations).Save(st).Error; err != nil {
			return err
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// SetStatus changes the overall record status.
func (s *StudentStore) SetStatus(ctx context.Context, studentID string, status models.StudentStatus, graduationDate *time.Time) (*models.Student, error) {
	return s.Update(ctx, studentID, func(st *models.Student) error {
		st.Status = status
		if graduationDate != nil {
			st.GraduationDate = graduationDate
		}
		return nil
	})
}

// AddEnrollment appends an enrollment entry for a course the student is not yet in.
func (s *StudentStore) AddEnrollment(ctx context.Context, studentID string, e models.Enrollment) (*models.Student, error) {
	var out *models.Student
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.get(tx, studentID)
		if err != nil {
			return err
		}
		e.Normalize()
		if e.CourseID != "" {
			if err := ensureCoursesExist(tx, []string{e.CourseID}); err != nil {
				return err
			}
		}
		for _, existing := range st.EnrolledCourses {
			if existing.CourseID == e.CourseID {
				return ErrEnrollmentExists
			}
		}
		e.ID = 0
		e.StudentRef = st.ID
		stampCompletion(&e, s.now())
		if err := tx.Create(&e).Error; err != nil {
			if _, dup := uniqueViolation(err); dup {
				return ErrEnrollmentExists
			}
			return err
		}
		st.EnrolledCourses = append(st.EnrolledCourses, e)
		out = st
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// UpdateEnrollment modifies the entry for courseID through apply.
func (s *StudentStore) UpdateEnrollment(ctx context.Context, studentID, courseID string, apply func(*models.Enrollment)) (*models.Student, error) {
	var out *models.Student
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.get(tx, studentID)
		if err != nil {
			return err
		}
		idx := -1
		for i := range st.EnrolledCourses {
			if st.EnrolledCourses[i].CourseID == strings.TrimSpace(courseID) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrNotFound
		}
		e := &st.EnrolledCourses[idx]
		ref, course := e.StudentRef, e.CourseID
		apply(e)
		e.StudentRef, e.CourseID = ref, course
		stampCompletion(e, s.now())
		if err := tx.Omit("StudentRef", "CourseID", "CreatedAt").Save(e).Error; err != nil {
			return err
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// AddGrade records a grade for a course the student is enrolled in.
func (s *StudentStore) AddGrade(ctx context.Context, studentID string, g models.GradeRecord) (*models.Student, error) {
	var out *models.Student
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.get(tx, studentID)
		if err != nil {
			return err
		}
		g.Normalize()
		enrolled := false
		for _, e := range st.EnrolledCourses {
			if e.CourseID == g.CourseID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			return fmt.Errorf("%w: student is not enrolled in %s", ErrCourseNotFound, g.CourseID)
		}
		g.ID = 0
		g.StudentRef = st.ID
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		st.Grades = append(st.Grades, g)
		out = st
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// Delete hides the student from reads. The row stays so its unique values stay reserved.
func (s *StudentStore) Delete(ctx context.Context, studentID string) (*models.Student, error) {
	var out *models.Student
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.get(tx, studentID)
		if err != nil {
			return err
		}
		if err := tx.Delete(st).Error; err != nil {
			return err
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// CountByStatus returns the number of live students per status; every status is present.
func (s *StudentStore) CountByStatus(ctx context.Context) (map[models.StudentStatus]int64, error) {
	var rows []struct {
		Status models.StudentStatus
		Count  int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.Student{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.StudentStatus]int64, len(models.StudentStatuses))
	for _, st := range models.StudentStatuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// SyncSequence raises the student counter to the highest id already stored,
// including soft-deleted rows, so records written before the counter existed
// can never be handed out again.
func (s *StudentStore) SyncSequence(ctx context.Context) (int64, error) {
	var value int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID sql.NullString
		if err := tx.Unscoped().Model(&models.Student{}).Select("MAX(student_id)").Row().Scan(&maxID); err != nil {
			return err
		}
		if maxID.Valid {
			if seq, ok := models.ParseStudentSeq(maxID.String); ok {
				if err := RaiseValue(tx, StudentSequence, seq); err != nil {
					return err
				}
			}
		}
		v, err := CurrentValue(tx, StudentSequence)
		value = v
		return err
	})
	return value, err
}

func stampGraduation(st *models.Student, now time.Time) {
	if st.Status == models.StudentGraduated && st.GraduationDate == nil {
		st.GraduationDate = &now
	}
}

func stampCompletion(e *models.Enrollment, now time.Time) {
	if e.Status == models.EnrollmentCompleted && e.CompletionDate == nil {
		e.CompletionDate = &now
	}
}

func courseIDs(st *models.Student) []string {
	ids := make([]string, 0, len(st.EnrolledCourses))
	for _, e := range st.EnrolledCourses {
		if e.CourseID != "" {
			ids = append(ids, e.CourseID)
		}
	}
	return ids
}

func ensureCoursesExist(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	var found []string
	if err := tx.Model(&models.Course{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	have := make(map[string]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			return fmt.Errorf("%w: %s", ErrCourseNotFound, id)
		}
	}
	return nil
}
