package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/core/employee"
)

// EmployeeHandler は社員管理とオンボーディングの HTTP エンドポイント群です。
type EmployeeHandler struct {
	svc employee.UseCase
}

// NewEmployeeHandler は EmployeeHandler を生成します。
func NewEmployeeHandler(svc employee.UseCase) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

type employeeResponse struct {
	ID                    string                     `json:"id"`
	UserID                *string                    `json:"user_id,omitempty"`
	EmployeeCode          string                     `json:"employee_code"`
	Name                  string                     `json:"name"`
	DateOfBirth           *string                    `json:"date_of_birth,omitempty"`
	Phone                 string                     `json:"phone,omitempty"`
	Address               string                     `json:"address,omitempty"`
	EmergencyPhone        string                     `json:"emergency_phone,omitempty"`
	CNIC                  string                     `json:"cnic,omitempty"`
	Role                  string                     `json:"role,omitempty"`
	QRPayload             string                     `json:"qr_payload"`
	OnboardingStatus      string                     `json:"onboarding_status"`
	OnboardingSubmittedAt *time.Time                 `json:"onboarding_submitted_at,omitempty"`
	DocumentsReceivedAt   *time.Time                 `json:"documents_received_at,omitempty"`
	LockAt                *time.Time                 `json:"lock_at,omitempty"`
	GraceApprovedAt       *time.Time                 `json:"grace_approved_at,omitempty"`
	GraceUntil            *time.Time                 `json:"grace_until,omitempty"`
	IsLocked              bool                       `json:"is_locked"`
	CreatedAt             time.Time                  `json:"created_at"`
	UpdatedAt             time.Time                  `json:"updated_at"`
	Documents             []documentResponse         `json:"documents,omitempty"`
	EmploymentDetails     []employmentDetailResponse `json:"employment_details,omitempty"`
}

type documentResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	FilePath   string    `json:"file_path"`
	UploadedBy *string   `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type employmentDetailResponse struct {
	ID                 string   `json:"id"`
	JobTitle           string   `json:"job_title,omitempty"`
	Department         string   `json:"department,omitempty"`
	ReportingManagerID *string  `json:"reporting_manager_id,omitempty"`
	EmploymentStatus   string   `json:"employment_status,omitempty"`
	Position           string   `json:"position,omitempty"`
	PayGrade           string   `json:"pay_grade,omitempty"`
	Pay                *float64 `json:"pay,omitempty"`
	Allowances         *float64 `json:"allowances,omitempty"`
	Transport          *float64 `json:"transport,omitempty"`
	OtherAllowances    *float64 `json:"other_allowances,omitempty"`
	EffectiveDate      *string  `json:"effective_date,omitempty"`
	JoiningDate        *string  `json:"joining_date,omitempty"`
}

func toEmployeeResponse(e *employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:                    e.ID,
		UserID:                e.UserID,
		EmployeeCode:          e.EmployeeCode,
		Name:                  e.Name,
		DateOfBirth:           formatDate(e.DateOfBirth),
		Phone:                 e.Phone,
		Address:               e.Address,
		EmergencyPhone:        e.EmergencyPhone,
		CNIC:                  e.CNIC,
		Role:                  e.Role,
		QRPayload:             e.QRPayload,
		OnboardingStatus:      string(e.OnboardingStatus),
		OnboardingSubmittedAt: e.OnboardingSubmittedAt,
		DocumentsReceivedAt:   e.DocumentsReceivedAt,
		LockAt:                e.LockAt,
		GraceApprovedAt:       e.GraceApprovedAt,
		GraceUntil:            e.GraceUntil,
		IsLocked:              e.IsLocked,
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}

	for _, d := range e.Documents {
		resp.Documents = append(resp.Documents, toDocumentResponse(d))
	}
	for _, d := range e.EmploymentDetails {
		resp.EmploymentDetails = append(resp.EmploymentDetails, employmentDetailResponse{
			ID:                 d.ID,
			JobTitle:           d.JobTitle,
			Department:         d.Department,
			ReportingManagerID: d.ReportingManagerID,
			EmploymentStatus:   string(d.EmploymentStatus),
			Position:           d.Position,
			PayGrade:           d.PayGrade,
			Pay:                d.Pay,
			Allowances:         d.Allowances,
			Transport:          d.Transport,
			OtherAllowances:    d.OtherAllowances,
			EffectiveDate:      formatDate(d.EffectiveDate),
			JoiningDate:        formatDate(d.JoiningDate),
		})
	}

	return resp
}

func toDocumentResponse(d *employee.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		Type:       d.Type,
		FilePath:   d.FilePath,
		UploadedBy: d.UploadedBy,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// Create は社員を新規登録します。別名フィールドは正規化されます。
func (h *EmployeeHandler) Create(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	applied := normalizeAliases(fields, employeeAliases)

	dob, _, err := datePtrField(fields, "date_of_birth")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := employee.CreateEmployeeInput{
		EmployeeCode:   stringField(fields, "employee_code"),
		Name:           stringField(fields, "name"),
		DateOfBirth:    dob,
		Phone:          stringField(fields, "phone"),
		Address:        stringField(fields, "address"),
		EmergencyPhone: stringField(fields, "emergency_phone"),
		CNIC:           stringField(fields, "cnic"),
		Role:           stringField(fields, "role"),
	}
	if userID, ok := stringPtrField(fields, "user_id"); ok && *userID != "" {
		in.UserID = userID
	}

	created, err := h.svc.CreateEmployee(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"employee":        toEmployeeResponse(created),
		"applied_aliases": applied,
	})
}

// Update は社員情報を部分更新します。別名フィールドは正規化されます。
func (h *EmployeeHandler) Update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	applied := normalizeAliases(fields, employeeAliases)

	in := employee.UpdateEmployeeInput{ID: c.Param("id")}
	if v, ok := stringPtrField(fields, "employee_code"); ok {
		in.EmployeeCode = v
	}
	if v, ok := stringPtrField(fields, "name"); ok {
		in.Name = v
	}
	if v, ok := stringPtrField(fields, "phone"); ok {
		in.Phone = v
	}
	if v, ok := stringPtrField(fields, "address"); ok {
		in.Address = v
	}
	if v, ok := stringPtrField(fields, "emergency_phone"); ok {
		in.EmergencyPhone = v
	}
	if v, ok := stringPtrField(fields, "cnic"); ok {
		in.CNIC = v
	}
	if v, ok := stringPtrField(fields, "role"); ok {
		in.Role = v
	}
	if v, ok := stringPtrField(fields, "user_id"); ok {
		in.UserIDSet = true
		if *v != "" {
			in.UserID = v
		}
	}

	dob, dobSet, err := datePtrField(fields, "date_of_birth")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dobSet {
		in.DateOfBirth = dob
		in.DateOfBirthSet = true
	}

	updated, err := h.svc.UpdateEmployee(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employee":        toEmployeeResponse(updated),
		"applied_aliases": applied,
	})
}

// Get は社員を書類・雇用条件込みで取得します。
func (h *EmployeeHandler) Get(c *gin.Context) {
	found, err := h.svc.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": toEmployeeResponse(found)})
}

// List は社員一覧をページングで返します。
func (h *EmployeeHandler) List(c *gin.Context) {
	in := employee.ListEmployeesInput{
		PageToken: c.Query("page_token"),
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := parsePositiveInt(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive integer"})
			return
		}
		in.PageSize = size
	}

	result, err := h.svc.ListEmployees(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	employees := make([]employeeResponse, 0, len(result.Employees))
	for _, e := range result.Employees {
		employees = append(employees, toEmployeeResponse(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":       employees,
		"next_page_token": result.NextPageToken,
	})
}

// Delete は社員を削除します。
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addEmploymentDetailRequest struct {
	JobTitle           string   `json:"job_title"`
	Department         string   `json:"department"`
	ReportingManagerID *string  `json:"reporting_manager_id"`
	EmploymentStatus   string   `json:"employment_status"`
	Position           string   `json:"position"`
	PayGrade           string   `json:"pay_grade"`
	Pay                *float64 `json:"pay"`
	Allowances         *float64 `json:"allowances"`
	Transport          *float64 `json:"transport"`
	OtherAllowances    *float64 `json:"other_allowances"`
	EffectiveDate      string   `json:"effective_date"`
	JoiningDate        string   `json:"joining_date"`
}

// AddEmploymentDetail は社員に雇用条件行を追加します。
func (h *EmployeeHandler) AddEmploymentDetail(c *gin.Context) {
	var req addEmploymentDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	effective, err := parseOptionalDate(req.EffectiveDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "effective_date must use layout " + dateLayout})
		return
	}
	joining, err := parseOptionalDate(req.JoiningDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "joining_date must use layout " + dateLayout})
		return
	}

	detail, err := h.svc.AddEmploymentDetail(c.Request.Context(), employee.AddEmploymentDetailInput{
		EmployeeID:         c.Param("id"),
		JobTitle:           req.JobTitle,
		Department:         req.Department,
		ReportingManagerID: req.ReportingManagerID,
		EmploymentStatus:   employee.EmploymentStatus(req.EmploymentStatus),
		Position:           req.Position,
		PayGrade:           req.PayGrade,
		Pay:                req.Pay,
		Allowances:         req.Allowances,
		Transport:          req.Transport,
		OtherAllowances:    req.OtherAllowances,
		EffectiveDate:      effective,
		JoiningDate:        joining,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"employment_detail": gin.H{"id": detail.ID}})
}

// DeleteEmploymentDetail は雇用条件行を削除します。
func (h *EmployeeHandler) DeleteEmploymentDetail(c *gin.Context) {
	if err := h.svc.DeleteEmploymentDetail(c.Request.Context(), c.Param("id"), c.Param("detailID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadDocument は multipart フォームの書類を受け付けます。
// 同種別の既存書類は置換されます。
func (h *EmployeeHandler) UploadDocument(c *gin.Context) {
	docType := c.PostForm("type")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer f.Close()

	in := employee.UploadDocumentInput{
		EmployeeID: c.Param("id"),
		Type:       docType,
		FileName:   fileHeader.Filename,
		Content:    f,
	}
	if actorID, _, ok := middleware.Actor(c); ok {
		in.UploadedBy = &actorID
	}

	doc, err := h.svc.UploadDocument(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": toDocumentResponse(doc)})
}

// DeleteDocument は書類を削除します。
func (h *EmployeeHandler) DeleteDocument(c *gin.Context) {
	if err := h.svc.DeleteDocument(c.Request.Context(), c.Param("id"), c.Param("documentID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitForReview はオンボーディングを提出済みにし、提出期限を設定します。
func (h *EmployeeHandler) SubmitForReview(c *gin.Context) {
	updated, err := h.svc.SubmitForReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": toEmployeeResponse(updated)})
}

// MarkDocumentsReceived は書類受領を記録しロックを解除します。
func (h *EmployeeHandler) MarkDocumentsReceived(c *gin.Context) {
	updated, err := h.svc.MarkDocumentsReceived(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": toEmployeeResponse(updated)})
}

// ApproveGrace は提出期限の猶予を承認します。
func (h *EmployeeHandler) ApproveGrace(c *gin.Context) {
	actorID, actorRole, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	updated, err := h.svc.ApproveGrace(c.Request.Context(), employee.ApproveGraceInput{
		EmployeeID:  c.Param("id"),
		ActorUserID: actorID,
		ActorRole:   actorRole,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": toEmployeeResponse(updated)})
}

type lockSweepRequest struct {
	Today         string   `json:"today"`
	RequiredTypes []string `json:"required_types"`
}

// RunLockSweep は期限超過社員のロック掃引を実行します。
func (h *EmployeeHandler) RunLockSweep(c *gin.Context) {
	var req lockSweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
			return
		}
	}

	in := employee.LockSweepInput{RequiredTypes: req.RequiredTypes}
	if req.Today != "" {
		today, err := time.Parse(dateLayout, req.Today)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "today must use layout " + dateLayout})
			return
		}
		in.Today = today
	}

	result, err := h.svc.RunLockSweep(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scanned": result.Scanned,
		"locked":  result.Locked,
		"failed":  result.Failed,
	})
}

type createLoginRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

// CreateLogin は社員に紐付くログインユーザーを発行します。
func (h *EmployeeHandler) CreateLogin(c *gin.Context) {
	var req createLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	result, err := h.svc.CreateLogin(c.Request.Context(), employee.CreateLoginInput{
		EmployeeID: c.Param("id"),
		Email:      req.Email,
		Role:       authzRoleOrDefault(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.AlreadyLinked {
		c.JSON(http.StatusOK, gin.H{"message": "Employee already has a login"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":               toUserResponse(result.User),
		"generated_password": result.GeneratedPassword,
	})
}
