package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
	"github.com/zaqqye/institute_backend/internal/ws"
)

const studentNotFound = "student not found"

type StudentController struct {
	Store *store.StudentStore
	Files *storage.LocalStorage
	Hub   *ws.DashboardHub
}

func (sc *StudentController) formMemory() int64 {
	if sc.Files == nil || sc.Files.MaxBytes() <= 0 {
		return 8 << 20
	}
	return sc.Files.MaxBytes() + 1<<20
}

// saveUpload stores the profile picture, if one was sent.
func (sc *StudentController) saveUpload(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if sc.Files == nil {
		return "", storage.ErrUnsupportedFile
	}
	return sc.Files.SaveImage(fh, "students")
}

func (sc *StudentController) discardUpload(url string) {
	if url == "" || sc.Files == nil {
		return
	}
	if err := sc.Files.Delete(url); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("failed to remove orphaned upload")
	}
}

func (sc *StudentController) List(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, status, courseId
	p := parseListParams(c, 20, store.StudentSortColumns)
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	courseID := strings.TrimSpace(c.Query("courseId"))
	if status != "" && !models.IsStudentStatus(status) {
		respondError(c, models.NewValidationError("status", "oneof=active inactive graduated suspended"), studentNotFound)
		return
	}

	students, total, err := sc.Store.List(c.Request.Context(), store.StudentFilter{
		Query:    p.Q,
		Status:   status,
		CourseID: courseID,
		Limit:    p.Limit,
		Page:     p.Page,
		All:      p.All,
		SortBy:   p.SortBy,
		SortDir:  p.SortDir,
	})
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	meta := p.meta(total)
	if status != "" {
		meta["status"] = status
	}
	if courseID != "" {
		meta["courseId"] = courseID
	}
	c.JSON(http.StatusOK, gin.H{"data": students, "meta": meta})
}

func (sc *StudentController) Stats(c *gin.Context) {
	counts, err := sc.Store.CountByStatus(c.Request.Context())
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	var total int64
	byStatus := make(gin.H, len(counts))
	for status, n := range counts {
		byStatus[string(status)] = n
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "byStatus": byStatus})
}

func (sc *StudentController) Get(c *gin.Context) {
	st, err := sc.Store.Get(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (sc *StudentController) Create(c *gin.Context) {
	var req studentRequest
	fh, err := bindBody(c, &req, sc.formMemory(), studentJSONFields...)
	if err != nil {
		badRequest(c, err)
		return
	}
	var st models.Student
	if err := req.apply(&st, true); err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	url, err := sc.saveUpload(fh)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	st.ProfilePicture = url

	if err := sc.Store.Create(c.Request.Context(), &st); err != nil {
		sc.discardUpload(url)
		respondError(c, err, studentNotFound)
		return
	}
	logger.Info().Str("student_id", st.StudentID).Msg("student created")
	publishStudent(sc.Hub, ws.EventStudentCreated, &st)
	c.JSON(http.StatusCreated, &st)
}

func (sc *StudentController) Update(c *gin.Context) {
	var req studentRequest
	fh, err := bindBody(c, &req, sc.formMemory(), studentJSONFields...)
	if err != nil {
		badRequest(c, err)
		return
	}
	url, err := sc.saveUpload(fh)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}

	var replaced string
	st, err := sc.Store.Update(c.Request.Context(), c.Param("student_id"), func(st *models.Student) error {
		if err := req.apply(st, false); err != nil {
			return err
		}
		if url != "" {
			replaced = st.ProfilePicture
			st.ProfilePicture = url
		}
		return nil
	})
	if err != nil {
		sc.discardUpload(url)
		respondError(c, err, studentNotFound)
		return
	}
	sc.discardUpload(replaced)
	publishStudent(sc.Hub, ws.EventStudentUpdated, st)
	c.JSON(http.StatusOK, st)
}

type statusRequest struct {
	Status         string  `json:"status" binding:"required"`
	GraduationDate *string `json:"graduationDate"`
}

func (sc *StudentController) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	grad, err := parseOptionalDate("graduationDate", req.GraduationDate)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	st, err := sc.Store.SetStatus(c.Request.Context(), c.Param("student_id"), models.StudentStatus(strings.TrimSpace(req.Status)), grad)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	publishStudent(sc.Hub, ws.EventStudentUpdated, st)
	c.JSON(http.StatusOK, st)
}

func (sc *StudentController) Delete(c *gin.Context) {
	st, err := sc.Store.Delete(c.Request.Context(), c.Param("student_id"))
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	logger.Info().Str("student_id", st.StudentID).Msg("student deleted")
	publishStudent(sc.Hub, ws.EventStudentDeleted, st)
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "studentId": st.StudentID})
}

func (sc *StudentController) Enroll(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	e, err := req.toModel("")
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	st, err := sc.Store.AddEnrollment(c.Request.Context(), c.Param("student_id"), e)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	publishStudent(sc.Hub, ws.EventStudentUpdated, st)
	c.JSON(http.StatusCreated, st)
}

func (sc *StudentController) UpdateEnrollment(c *gin.Context) {
	var req enrollmentUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Status != nil && !models.IsEnrollmentStatus(strings.TrimSpace(*req.Status)) {
		respondError(c, models.NewValidationError("status", "oneof=active completed suspended dropped"), studentNotFound)
		return
	}
	completed, err := parseOptionalDate("completionDate", req.CompletionDate)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	st, err := sc.Store.UpdateEnrollment(c.Request.Context(), c.Param("student_id"), c.Param("course_id"), func(e *models.Enrollment) {
		if req.Status != nil {
			e.Status = models.EnrollmentStatus(strings.TrimSpace(*req.Status))
		}
		if req.Progress != nil {
			e.Progress = *req.Progress
		}
		if completed != nil {
			e.CompletionDate = completed
		}
	})
	if err != nil {
		respondError(c, err, "enrollment not found")
		return
	}
	publishStudent(sc.Hub, ws.EventStudentUpdated, st)
	c.JSON(http.StatusOK, st)
}

func (sc *StudentController) AddGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := req.toModel("")
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	st, err := sc.Store.AddGrade(c.Request.Context(), c.Param("student_id"), g)
	if err != nil {
		respondError(c, err, studentNotFound)
		return
	}
	publishStudent(sc.Hub, ws.EventStudentUpdated, st)
	c.JSON(http.StatusCreated, st)
}
