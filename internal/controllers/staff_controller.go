package controllers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/institute_backend/internal/logger"
	"github.com/zaqqye/institute_backend/internal/models"
	"github.com/zaqqye/institute_backend/internal/storage"
	"github.com/zaqqye/institute_backend/internal/store"
)

// staffRequest is the shared director/employee body, JSON or multipart.
type staffRequest struct {
	Name       *string         `json:"name"`
	Email      *string         `json:"email"`
	Phone      *FlexibleString `json:"phone"`
	Position   *string         `json:"position"`
	Department *string         `json:"department"`
	Bio        *string         `json:"bio"`
	IsActive   *FlexibleBool   `json:"isActive"`
}

var staffSorts = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"email":      "email",
	"position":   "position",
}

// staffFiles is the upload handling both staff controllers share.
type staffFiles struct {
	Files *storage.LocalStorage
}

func (sf staffFiles) formMemory() int64 {
	if sf.Files == nil || sf.Files.MaxBytes() <= 0 {
		return 8 << 20
	}
	return sf.Files.MaxBytes() + 1<<20
}

func (sf staffFiles) save(fh *multipart.FileHeader, dir string) (string, error) {
	if fh == nil {
		return "", nil
	}
	if sf.Files == nil {
		return "", storage.ErrUnsupportedFile
	}
	return sf.Files.SaveImage(fh, dir)
}

func (sf staffFiles) discard(url string) {
	if url == "" || sf.Files == nil {
		return
	}
	if err := sf.Files.Delete(url); err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("failed to remove upload")
	}
}

// listStaff runs the shared list query for a staff table into out.
func listStaff(c *gin.Context, db *gorm.DB, model interface{}, out interface{}, notFound string) {
	p := parseListParams(c, 20, staffSorts)
	base := db.WithContext(c.Request.Context()).Model(model)
	if p.Q != "" {
		like := likePattern(p.Q)
		base = base.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(position) LIKE ?", like, like, like)
	}
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err, notFound)
		return
	}
	listQ := base.Session(&gorm.Session{}).Order(p.order())
	if !p.All {
		listQ = listQ.Offset(p.offset()).Limit(p.Limit)
	}
	if err := listQ.Find(out).Error; err != nil {
		respondError(c, err, notFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": p.meta(total)})
}

const directorNotFound = "director not found"

type DirectorController struct {
	DB *gorm.DB
	staffFiles
}

func (r staffRequest) applyDirector(d *models.Director) {
	setString(&d.Name, r.Name)
	setString(&d.Email, r.Email)
	setString(&d.Phone, r.Phone.ptr())
	setString(&d.Position, r.Position)
	setString(&d.Bio, r.Bio)
	if r.IsActive != nil {
		d.IsActive = bool(*r.IsActive)
	}
}

func (dc *DirectorController) ListDirectors(c *gin.Context) {
	directors := []models.Director{}
	listStaff(c, dc.DB, &models.Director{}, &directors, directorNotFound)
}

func (dc *DirectorController) find(c *gin.Context) (models.Director, bool) {
	var d models.Director
	if err := dc.DB.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).First(&d).Error; err != nil {
		respondError(c, store.TranslateError(err), directorNotFound)
		return d, false
	}
	return d, true
}

func (dc *DirectorController) GetDirector(c *gin.Context) {
	if d, ok := dc.find(c); ok {
		c.JSON(http.StatusOK, d)
	}
}

func (dc *DirectorController) CreateDirector(c *gin.Context) {
	var req staffRequest
	fh, err := bindBody(c, &req, dc.formMemory())
	if err != nil {
		badRequest(c, err)
		return
	}
	d := models.Director{IsActive: true}
	req.applyDirector(&d)
	if d.ProfilePicture, err = dc.save(fh, "directors"); err != nil {
		respondError(c, err, directorNotFound)
		return
	}
	if err := dc.DB.WithContext(c.Request.Context()).Create(&d).Error; err != nil {
		dc.discard(d.ProfilePicture)
		respondError(c, store.TranslateError(err), directorNotFound)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (dc *DirectorController) UpdateDirector(c *gin.Context) {
	d, ok := dc.find(c)
	if !ok {
		return
	}
	var req staffRequest
	fh, err := bindBody(c, &req, dc.formMemory())
	if err != nil {
		badRequest(c, err)
		return
	}
	req.applyDirector(&d)
	old := d.ProfilePicture
	url, err := dc.save(fh, "directors")
	if err != nil {
		respondError(c, err, directorNotFound)
		return
	}
	if url != "" {
		d.ProfilePicture = url
	}
	if err := dc.DB.WithContext(c.Request.Context()).Save(&d).Error; err != nil {
		dc.discard(url)
		respondError(c, store.TranslateError(err), directorNotFound)
		return
	}
	if url != "" {
		dc.discard(old)
	}
	c.JSON(http.StatusOK, d)
}

func (dc *DirectorController) DeleteDirector(c *gin.Context) {
	d, ok := dc.find(c)
	if !ok {
		return
	}
	if err := dc.DB.WithContext(c.Request.Context()).Delete(&d).Error; err != nil {
		respondError(c, err, directorNotFound)
		return
	}
	dc.discard(d.ProfilePicture)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

const employeeNotFound = "employee not found"

type EmployeeController struct {
	DB *gorm.DB
	staffFiles
}

func (r staffRequest) applyEmployee(e *models.Employee) {
	setString(&e.Name, r.Name)
	setString(&e.Email, r.Email)
	setString(&e.Phone, r.Phone.ptr())
	setString(&e.Position, r.Position)
	setString(&e.Department, r.Department)
	if r.IsActive != nil {
		e.IsActive = bool(*r.IsActive)
	}
}

func (ec *EmployeeController) ListEmployees(c *gin.Context) {
	employees := []models.Employee{}
	listStaff(c, ec.DB, &models.Employee{}, &employees, employeeNotFound)
}

func (ec *EmployeeController) find(c *gin.Context) (models.Employee, bool) {
	var e models.Employee
	if err := ec.DB.WithContext(c.Request.Context()).Where("id = ?", strings.TrimSpace(c.Param("id"))).First(&e).Error; err != nil {
		respondError(c, store.TranslateError(err), employeeNotFound)
		return e, false
	}
	return e, true
}

func (ec *EmployeeController) GetEmployee(c *gin.Context) {
	if e, ok := ec.find(c); ok {
		c.JSON(http.StatusOK, e)
	}
}

func (ec *EmployeeController) CreateEmployee(c *gin.Context) {
	var req staffRequest
	fh, err := bindBody(c, &req, ec.formMemory())
	if err != nil {
		badRequest(c, err)
		return
	}
	e := models.Employee{IsActive: true}
	req.applyEmployee(&e)
	if e.ProfilePicture, err = ec.save(fh, "employees"); err != nil {
		respondError(c, err, employeeNotFound)
		return
	}
	if err := ec.DB.WithContext(c.Request.Context()).Create(&e).Error; err != nil {
		ec.discard(e.ProfilePicture)
		respondError(c, store.TranslateError(err), employeeNotFound)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (ec *EmployeeController) UpdateEmployee(c *gin.Context) {
	e, ok := ec.find(c)
	if !ok {
		return
	}
	var req staffRequest
	fh, err := bindBody(c, &req, ec.formMemory())
	if err != nil {
		badRequest(c, err)
		return
	}
	req.applyEmployee(&e)
	old := e.ProfilePicture
	url, err := ec.save(fh, "employees")
	if err != nil {
		respondError(c, err, employeeNotFound)
		return
	}
	if url != "" {
		e.ProfilePicture = url
	}
	if err := ec.DB.WithContext(c.Request.Context()).Save(&e).Error; err != nil {
		ec.discard(url)
		respondError(c, store.TranslateError(err), employeeNotFound)
		return
	}
	if url != "" {
		ec.discard(old)
	}
	c.JSON(http.StatusOK, e)
}

func (ec *EmployeeController) DeleteEmployee(c *gin.Context) {
	e, ok := ec.find(c)
	if !ok {
		return
	}
	if err := ec.DB.WithContext(c.Request.Context()).Delete(&e).Error; err != nil {
		respondError(c, err, employeeNotFound)
		return
	}
	ec.discard(e.ProfilePicture)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
