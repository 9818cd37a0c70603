package controllers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/metrics"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/ws"
)

type studentImportError struct {
	Row   int    `json:"row"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

// Import bulk-creates students from a CSV file.
// Expected header columns (case-insensitive):
// first_name, last_name, email, phone, address, date_of_birth, nic,
// guardian_name, guardian_phone, previous_education, previous_institution,
// status, notes, course_codes (optional, separated by "|")
func (sc *StudentController) Import(c *gin.Context) {
	// Limit max upload size (10MB) to avoid accidental huge files.
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	filename := strings.ToLower(strings.TrimSpace(fileHeader.Filename))
	if !strings.HasSuffix(filename, ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only .csv files are allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		return
	}

	// Normalise line endings so files saved with only CR or CRLF behave consistently.
	data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
	data = bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	firstLineEnd := bytes.IndexByte(data, '\n')
	if firstLineEnd == -1 {
		firstLineEnd = len(data)
	}
	if firstLine := data[:firstLineEnd]; bytes.Contains(firstLine, []byte{';'}) && !bytes.Contains(firstLine, []byte{','}) {
		reader.Comma = ';'
	}

	header, err := reader.Read()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read header"})
		return
	}
	headerIdx := make(map[string]int, len(header))
	for idx, col := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(col), "\"'"))
		if key != "" {
			headerIdx[key] = idx
		}
	}
	for _, key := range []string{"first_name", "last_name", "email", "phone", "address", "date_of_birth", "nic"} {
		if _, ok := headerIdx[key]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing header column: %s", key)})
			return
		}
	}
	getVal := func(record []string, key string) string {
		idx, ok := headerIdx[key]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		totalRows   int
		createdRows int
		created     = []string{}
		failures    = []studentImportError{}
	)
	courseCache := make(map[string]string)
	// resolveCourse reports found=false for an unknown code; err is a lookup failure.
	resolveCourse := func(code string) (id string, found bool, err error) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if id, ok := courseCache[code]; ok {
			return id, true, nil
		}
		var course models.Course
		if err := sc.Store.DB.WithContext(c.Request.Context()).Where("code = ?", code).Take(&course).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", false, nil
			}
			return "", false, fmt.Errorf("lookup course %s: %w", code, err)
		}
		courseCache[code] = course.ID
		return course.ID, true, nil
	}

	rowNum := 1 // header
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			failures = append(failures, studentImportError{Row: rowNum, Error: fmt.Sprintf("failed to read row: %v", err)})
			continue
		}
		totalRows++

		email := strings.ToLower(getVal(row, "email"))
		fail := func(msg string) {
			failures = append(failures, studentImportError{Row: rowNum, Email: email, Error: msg})
		}

		st := models.Student{
			FirstName:           getVal(row, "first_name"),
			LastName:            getVal(row, "last_name"),
			Email:               email,
			Phone:               getVal(row, "phone"),
			Address:             getVal(row, "address"),
			NIC:                 getVal(row, "nic"),
			GuardianName:        getVal(row, "guardian_name"),
			GuardianPhone:       getVal(row, "guardian_phone"),
			PreviousEducation:   getVal(row, "previous_education"),
			PreviousInstitution: getVal(row, "previous_institution"),
			Status:              models.StudentStatus(strings.ToLower(getVal(row, "status"))),
			Notes:               getVal(row, "notes"),
		}
		if dob := getVal(row, "date_of_birth"); dob != "" {
			parsed, err := parseDate("dateOfBirth", dob)
			if err != nil {
				fail("invalid date_of_birth")
				continue
			}
			st.DateOfBirth = parsed
		}

		var missing string
		for _, code := range strings.Split(getVal(row, "course_codes"), "|") {
			if strings.TrimSpace(code) == "" {
				continue
			}
			id, found, err := resolveCourse(code)
			if err != nil {
				respondError(c, err, studentNotFound)
				return
			}
			if !found {
				missing = strings.ToUpper(strings.TrimSpace(code))
				break
			}
			st.EnrolledCourses = append(st.EnrolledCourses, models.Enrollment{CourseID: id})
		}
		if missing != "" {
			fail(fmt.Sprintf("course '%s' not found", missing))
			continue
		}

		if err := sc.Store.Create(c.Request.Context(), &st); err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				fail(verr.Error())
			} else {
				fail(err.Error())
			}
			continue
		}
		createdRows++
		created = append(created, st.StudentID)
		metrics.StudentEvents.WithLabelValues("imported").Inc()
		sc.Hub.Broadcast(ws.Event{Type: ws.EventStudentCreated, StudentID: st.StudentID, Student: &st})
	}

	logger.Info().Int("total", totalRows).Int("inserted", createdRows).Int("failed", len(failures)).Msg("student import finished")
	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_rows": totalRows,
			"inserted":   createdRows,
			"failed":     len(failures),
		},
		"created": created,
		"errors":  failures,
	})
}
