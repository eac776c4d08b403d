package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/core/recruitment"
)

// RecruitmentHandler は採用パイプラインの HTTP エンドポイント群です。
type RecruitmentHandler struct {
	svc recruitment.UseCase
}

// NewRecruitmentHandler は RecruitmentHandler を生成します。
func NewRecruitmentHandler(svc recruitment.UseCase) *RecruitmentHandler {
	return &RecruitmentHandler{svc: svc}
}

type recruitmentResponse struct {
	ID                  string         `json:"id"`
	CandidateName       string         `json:"candidate_name"`
	Email               string         `json:"email"`
	Phone               string         `json:"phone,omitempty"`
	CNIC                string         `json:"cnic,omitempty"`
	FatherName          string         `json:"father_name,omitempty"`
	Address             string         `json:"address,omitempty"`
	DateOfBirth         *string        `json:"date_of_birth,omitempty"`
	PositionApplied     string         `json:"position_applied,omitempty"`
	ExpectedSalary      *float64       `json:"expected_salary,omitempty"`
	CVPath              string         `json:"cv_path,omitempty"`
	Education           map[string]any `json:"education,omitempty"`
	Experience          map[string]any `json:"experience,omitempty"`
	Status              string         `json:"status"`
	StatusChangedBy     *string        `json:"status_changed_by,omitempty"`
	StatusChangedAt     *time.Time     `json:"status_changed_at,omitempty"`
	InterviewerSuitable *bool          `json:"interviewer_suitable,omitempty"`
	InterviewNotes      string         `json:"interview_notes,omitempty"`
	HRApprovedBy        *string        `json:"hr_approved_by,omitempty"`
	HRApprovedAt        *time.Time     `json:"hr_approved_at,omitempty"`
	NewHireEmployeeID   *string        `json:"new_hire_employee_id,omitempty"`
	Lifecycle           string         `json:"lifecycle"`
	TrashedAt           *time.Time     `json:"trashed_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func toRecruitmentResponse(r *recruitment.Recruitment) recruitmentResponse {
	return recruitmentResponse{
		ID:                  r.ID,
		CandidateName:       r.CandidateName,
		Email:               r.Email,
		Phone:               r.Phone,
		CNIC:                r.CNIC,
		FatherName:          r.FatherName,
		Address:             r.Address,
		DateOfBirth:         formatDate(r.DateOfBirth),
		PositionApplied:     r.PositionApplied,
		ExpectedSalary:      r.ExpectedSalary,
		CVPath:              r.CVPath,
		Education:           r.Education,
		Experience:          r.Experience,
		Status:              string(r.Status),
		StatusChangedBy:     r.StatusChangedBy,
		StatusChangedAt:     r.StatusChangedAt,
		InterviewerSuitable: r.InterviewerSuitable,
		InterviewNotes:      r.InterviewNotes,
		HRApprovedBy:        r.HRApprovedBy,
		HRApprovedAt:        r.HRApprovedAt,
		NewHireEmployeeID:   r.NewHireEmployeeID,
		Lifecycle:           string(r.Lifecycle),
		TrashedAt:           r.TrashedAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type transitionResponse struct {
	ID            string    `json:"id"`
	RecruitmentID string    `json:"recruitment_id"`
	FromStatus    *string   `json:"from_status,omitempty"`
	ToStatus      string    `json:"to_status"`
	ChangedBy     *string   `json:"changed_by,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	ChangedAt     time.Time `json:"changed_at"`
}

func toTransitionResponse(t *recruitment.Transition) transitionResponse {
	resp := transitionResponse{
		ID:            t.ID,
		RecruitmentID: t.RecruitmentID,
		ToStatus:      string(t.ToStatus),
		ChangedBy:     t.ChangedBy,
		Notes:         t.Notes,
		ChangedAt:     t.ChangedAt,
	}
	if t.FromStatus != nil {
		s := string(*t.FromStatus)
		resp.FromStatus = &s
	}
	return resp
}

// Create は応募を登録します。別名フィールドは正規化されます。
func (h *RecruitmentHandler) Create(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	applied := normalizeAliases(fields, recruitmentAliases)

	dob, _, err := datePtrField(fields, "date_of_birth")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	salary, err := floatPtrField(fields, "expected_salary")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := recruitment.CreateRecruitmentInput{
		CandidateName:   stringField(fields, "candidate_name"),
		Email:           stringField(fields, "email"),
		Phone:           stringField(fields, "phone"),
		CNIC:            stringField(fields, "cnic"),
		FatherName:      stringField(fields, "father_name"),
		Address:         stringField(fields, "address"),
		DateOfBirth:     dob,
		PositionApplied: stringField(fields, "position_applied"),
		ExpectedSalary:  salary,
		CVPath:          stringField(fields, "cv"),
		Education:       mapField(fields, "education"),
		Experience:      mapField(fields, "experience"),
	}
	if actorID, _, ok := middleware.Actor(c); ok {
		in.CreatedBy = &actorID
	}

	created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"recruitment":     toRecruitmentResponse(created),
		"applied_aliases": applied,
	})
}

// Update は応募情報を部分更新します。面接判定もここで受け付けます。
func (h *RecruitmentHandler) Update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json body"})
		return
	}

	applied := normalizeAliases(fields, recruitmentAliases)

	in := recruitment.UpdateRecruitmentInput{ID: c.Param("id")}
	if v, ok := stringPtrField(fields, "candidate_name"); ok {
		in.CandidateName = v
	}
	if v, ok := stringPtrField(fields, "email"); ok {
		in.Email = v
	}
	if v, ok := stringPtrField(fields, "phone"); ok {
		in.Phone = v
	}
	if v, ok := stringPtrField(fields, "cnic"); ok {
		in.CNIC = v
	}
	if v, ok := stringPtrField(fields, "father_name"); ok {
		in.FatherName = v
	}
	if v, ok := stringPtrField(fields, "address"); ok {
		in.Address = v
	}
	if v, ok := stringPtrField(fields, "position_applied"); ok {
		in.PositionApplied = v
	}
	if v, ok := stringPtrField(fields, "cv"); ok {
		in.CVPath = v
	}
	if v, ok := stringPtrField(fields, "interview_notes"); ok {
		in.InterviewNotes = v
	}
	if raw, ok := fields["expected_salary"]; ok && raw != nil {
		v, ok := raw.(float64)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected_salary must be a number"})
			return
		}
		in.ExpectedSalary = &v
	}
	if raw, ok := fields["interviewer_suitable"]; ok && raw != nil {
		v, ok := raw.(bool)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interviewer_suitable must be a boolean"})
			return
		}
		in.InterviewerSuitable = &v
	}
	in.Education = mapField(fields, "education")
	in.Experience = mapField(fields, "experience")
	if actorID, _, ok := middleware.Actor(c); ok {
		in.ActorUserID = &actorID
	}

	updated, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recruitment":     toRecruitmentResponse(updated),
		"applied_aliases": applied,
	})
}

// Get は採用レコードを取得します。
func (h *RecruitmentHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recruitment": toRecruitmentResponse(found)})
}

// List は採用レコード一覧を区分フィルタ付きで返します。
func (h *RecruitmentHandler) List(c *gin.Context) {
	in := recruitment.ListRecruitmentsInput{
		Stage:     recruitment.Stage(c.Query("stage")),
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

	result, err := h.svc.List(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	recruitments := make([]recruitmentResponse, 0, len(result.Recruitments))
	for _, r := range result.Recruitments {
		recruitments = append(recruitments, toRecruitmentResponse(r))
	}

	c.JSON(http.StatusOK, gin.H{
		"recruitments":    recruitments,
		"next_page_token": result.NextPageToken,
	})
}

// StageCounts は区分ごとの件数を返します。
func (h *RecruitmentHandler) StageCounts(c *gin.Context) {
	counts, err := h.svc.CountByStage(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interview": counts.Interview,
		"candidate": counts.Candidate,
		"approved":  counts.Approved,
		"trashed":   counts.Trashed,
	})
}

// Approve は候補者を HR 承認します。
func (h *RecruitmentHandler) Approve(c *gin.Context) {
	actorID, actorRole, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	updated, err := h.svc.Approve(c.Request.Context(), recruitment.ApproveInput{
		ID:          c.Param("id"),
		ActorUserID: actorID,
		ActorRole:   actorRole,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recruitment": toRecruitmentResponse(updated)})
}

// Convert は承認済み候補者を社員化します。前提未達は 200 で理由を返します。
func (h *RecruitmentHandler) Convert(c *gin.Context) {
	actorID, actorRole, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	result, err := h.svc.ConvertToEmployee(c.Request.Context(), recruitment.ConvertInput{
		ID:          c.Param("id"),
		ActorUserID: actorID,
		ActorRole:   actorRole,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.Converted {
		c.JSON(http.StatusOK, gin.H{"converted": false, "message": result.Message})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"converted": true, "employee_id": result.EmployeeID})
}

// ExtendOffer は承認済み候補者へオファーを提示します。
func (h *RecruitmentHandler) ExtendOffer(c *gin.Context) {
	h.advance(c, h.svc.ExtendOffer)
}

// MarkHired はオファー承諾を記録します。
func (h *RecruitmentHandler) MarkHired(c *gin.Context) {
	h.advance(c, h.svc.MarkHired)
}

func (h *RecruitmentHandler) advance(c *gin.Context, fn func(ctx context.Context, id string, actorUserID *string) (*recruitment.Recruitment, error)) {
	var actor *string
	if actorID, _, ok := middleware.Actor(c); ok {
		actor = &actorID
	}

	updated, err := fn(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recruitment": toRecruitmentResponse(updated)})
}

// Destroy は採用レコードをごみ箱へ移します。
func (h *RecruitmentHandler) Destroy(c *gin.Context) {
	var actor *string
	if actorID, _, ok := middleware.Actor(c); ok {
		actor = &actorID
	}
	if err := h.svc.Destroy(c.Request.Context(), c.Param("id"), actor); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Restore はごみ箱のレコードを戻します。
func (h *RecruitmentHandler) Restore(c *gin.Context) {
	if err := h.svc.Restore(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RestoreAll はごみ箱の全レコードを戻します。
func (h *RecruitmentHandler) RestoreAll(c *gin.Context) {
	restored, err := h.svc.RestoreAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": restored})
}

// ForceDelete はごみ箱のレコードを物理削除します。
func (h *RecruitmentHandler) ForceDelete(c *gin.Context) {
	if err := h.svc.ForceDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTransitions は採用レコードの遷移履歴を時系列で返します。
func (h *RecruitmentHandler) ListTransitions(c *gin.Context) {
	transitions, err := h.svc.ListTransitions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]transitionResponse, 0, len(transitions))
	for _, t := range transitions {
		resp = append(resp, toTransitionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"transitions": resp})
}

// ExportTransitions は遷移履歴を CSV としてダウンロードさせます。
func (h *RecruitmentHandler) ExportTransitions(c *gin.Context) {
	stage := recruitment.Stage(c.Query("stage"))

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=recruitment-transitions-%s.csv", time.Now().UTC().Format(dateLayout)))

	if err := h.svc.ExportTransitions(c.Request.Context(), stage, c.Writer); err != nil {
		respondError(c, err)
		return
	}
}
