package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/payroll"
)

// PayrollHandler は給与レコードの HTTP エンドポイント群です。
type PayrollHandler struct {
	svc payroll.UseCase
}

// NewPayrollHandler は PayrollHandler を生成します。
func NewPayrollHandler(svc payroll.UseCase) *PayrollHandler {
	return &PayrollHandler{svc: svc}
}

type payrollResponse struct {
	ID            string         `json:"id"`
	EmployeeID    string         `json:"employee_id"`
	PeriodStart   string         `json:"period_start"`
	PeriodEnd     string         `json:"period_end"`
	BasicSalary   *float64       `json:"basic_salary,omitempty"`
	HourlyWage    *float64       `json:"hourly_wage,omitempty"`
	Allowances    map[string]any `json:"allowances,omitempty"`
	Deductions    map[string]any `json:"deductions,omitempty"`
	Compensations map[string]any `json:"compensations,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toPayrollResponse(e *payroll.Entry) payrollResponse {
	return payrollResponse{
		ID:            e.ID,
		EmployeeID:    e.EmployeeID,
		PeriodStart:   e.PeriodStart.Format(dateLayout),
		PeriodEnd:     e.PeriodEnd.Format(dateLayout),
		BasicSalary:   e.BasicSalary,
		HourlyWage:    e.HourlyWage,
		Allowances:    e.Allowances,
		Deductions:    e.Deductions,
		Compensations: e.Compensations,
		Notes:         e.Notes,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type createPayrollRequest struct {
	EmployeeID    string         `json:"employee_id" binding:"required"`
	PeriodStart   string         `json:"period_start" binding:"required"`
	PeriodEnd     string         `json:"period_end" binding:"required"`
	BasicSalary   *float64       `json:"basic_salary"`
	HourlyWage    *float64       `json:"hourly_wage"`
	Allowances    map[string]any `json:"allowances"`
	Deductions    map[string]any `json:"deductions"`
	Compensations map[string]any `json:"compensations"`
	Notes         string         `json:"notes"`
}

// Create は給与レコードを登録します。
func (h *PayrollHandler) Create(c *gin.Context) {
	var req createPayrollRequest
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

	created, err := h.svc.Create(c.Request.Context(), payroll.CreateEntryInput{
		EmployeeID:    req.EmployeeID,
		PeriodStart:   start,
		PeriodEnd:     end,
		BasicSalary:   req.BasicSalary,
		HourlyWage:    req.HourlyWage,
		Allowances:    req.Allowances,
		Deductions:    req.Deductions,
		Compensations: req.Compensations,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payroll": toPayrollResponse(created)})
}

type updatePayrollRequest struct {
	PeriodStart   *string        `json:"period_start"`
	PeriodEnd     *string        `json:"period_end"`
	BasicSalary   *float64       `json:"basic_salary"`
	HourlyWage    *float64       `json:"hourly_wage"`
	Allowances    map[string]any `json:"allowances"`
	Deductions    map[string]any `json:"deductions"`
	Compensations map[string]any `json:"compensations"`
	Notes         *string        `json:"notes"`
}

// Update は給与レコードを部分更新します。
func (h *PayrollHandler) Update(c *gin.Context) {
	var req updatePayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := payroll.UpdateEntryInput{
		ID:            c.Param("id"),
		BasicSalary:   req.BasicSalary,
		HourlyWage:    req.HourlyWage,
		Allowances:    req.Allowances,
		Deductions:    req.Deductions,
		Compensations: req.Compensations,
		Notes:         req.Notes,
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
	c.JSON(http.StatusOK, gin.H{"payroll": toPayrollResponse(updated)})
}

// Get は給与レコードを取得します。
func (h *PayrollHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payroll": toPayrollResponse(found)})
}

// Delete は給与レコードを削除します。
func (h *PayrollHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List は給与レコード一覧を社員フィルタ付きで返します。
func (h *PayrollHandler) List(c *gin.Context) {
	in := payroll.ListEntriesInput{
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

	entries := make([]payrollResponse, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, toPayrollResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{
		"payroll":         entries,
		"next_page_token": result.NextPageToken,
	})
}
