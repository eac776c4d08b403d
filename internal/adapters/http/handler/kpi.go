package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/adapters/http/middleware"
	"github.com/zaylabs/erp/internal/core/kpi"
)

// KPIHandler は評価レコードの HTTP エンドポイント群です。
type KPIHandler struct {
	svc kpi.UseCase
}

// NewKPIHandler は KPIHandler を生成します。
func NewKPIHandler(svc kpi.UseCase) *KPIHandler {
	return &KPIHandler{svc: svc}
}

type kpiResponse struct {
	ID          string         `json:"id"`
	EmployeeID  string         `json:"employee_id"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	Rating      int            `json:"rating"`
	Notes       string         `json:"notes,omitempty"`
	Goals       map[string]any `json:"goals,omitempty"`
	Trainings   map[string]any `json:"trainings,omitempty"`
	Skills      map[string]any `json:"skills,omitempty"`
	ReviewedBy  *string        `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toKPIResponse(r *kpi.Review) kpiResponse {
	return kpiResponse{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		PeriodStart: r.PeriodStart.Format(dateLayout),
		PeriodEnd:   r.PeriodEnd.Format(dateLayout),
		Rating:      r.Rating,
		Notes:       r.Notes,
		Goals:       r.Goals,
		Trainings:   r.Trainings,
		Skills:      r.Skills,
		ReviewedBy:  r.ReviewedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type createKPIRequest struct {
	EmployeeID  string         `json:"employee_id" binding:"required"`
	PeriodStart string         `json:"period_start" binding:"required"`
	PeriodEnd   string         `json:"period_end" binding:"required"`
	Rating      int            `json:"rating" binding:"required"`
	Notes       string         `json:"notes"`
	Goals       map[string]any `json:"goals"`
	Trainings   map[string]any `json:"trainings"`
	Skills      map[string]any `json:"skills"`
}

// Create は評価レコードを登録します。評価者は認証情報から記録します。
func (h *KPIHandler) Create(c *gin.Context) {
	var req createKPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_start must be in YYYY-MM-DD format"})
		return
	}
	end, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period_end must be in YYYY-MM-DD format"})
		return
	}

	in := kpi.CreateReviewInput{
		EmployeeID:  req.EmployeeID,
		PeriodStart: start,
		PeriodEnd:   end,
		Rating:      req.Rating,
		Notes:       req.Notes,
		Goals:       req.Goals,
		Trainings:   req.Trainings,
		Skills:      req.Skills,
	}
	if actorID, _, ok := middleware.Actor(c); ok {
		in.ReviewedBy = &actorID
	}

	created, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"kpi": toKPIResponse(created)})
}

type updateKPIRequest struct {
	PeriodStart *string        `json:"period_start"`
	PeriodEnd   *string        `json:"period_end"`
	Rating      *int           `json:"rating"`
	Notes       *string        `json:"notes"`
	Goals       map[string]any `json:"goals"`
	Trainings   map[string]any `json:"trainings"`
	Skills      map[string]any `json:"skills"`
}

// Update は評価レコードを部分更新します。
func (h *KPIHandler) Update(c *gin.Context) {
	var req updateKPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := kpi.UpdateReviewInput{
		ID:        c.Param("id"),
		Rating:    req.Rating,
		Notes:     req.Notes,
		Goals:     req.Goals,
		Trainings: req.Trainings,
		Skills:    req.Skills,
	}
	if req.PeriodStart != nil {
		start, err := time.Parse(dateLayout, *req.PeriodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period_start must be in YYYY-MM-DD format"})
			return
		}
		in.PeriodStart = &start
	}
	if req.PeriodEnd != nil {
		end, err := time.Parse(dateLayout, *req.PeriodEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "period_end must be in YYYY-MM-DD format"})
			return
		}
		in.PeriodEnd = &end
	}

	updated, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpi": toKPIResponse(updated)})
}

// Get は評価レコードを取得します。
func (h *KPIHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kpi": toKPIResponse(found)})
}

// Delete は評価レコードを削除します。
func (h *KPIHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List は評価レコード一覧を社員フィルタ付きで返します。
func (h *KPIHandler) List(c *gin.Context) {
	in := kpi.ListReviewsInput{
		EmployeeID: c.Query("employee_id"),
		PageToken:  c.Query("page_token"),
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

	reviews := make([]kpiResponse, 0, len(result.Reviews))
	for _, r := range result.Reviews {
		reviews = append(reviews, toKPIResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"kpis":            reviews,
		"next_page_token": result.NextPageToken,
	})
}
