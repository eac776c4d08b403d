package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/attendance"
)

// AttendanceHandler は勤怠レコードの HTTP エンドポイント群です。
type AttendanceHandler struct {
	svc attendance.UseCase
}

// NewAttendanceHandler は AttendanceHandler を生成します。
func NewAttendanceHandler(svc attendance.UseCase) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

type attendanceResponse struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	WorkDate   string     `json:"work_date"`
	ClockIn    *time.Time `json:"clock_in,omitempty"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	Status     string     `json:"status"`
	LeaveType  string     `json:"leave_type,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func toAttendanceResponse(r *attendance.Record) attendanceResponse {
	return attendanceResponse{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		WorkDate:   r.WorkDate.Format(dateLayout),
		ClockIn:    r.ClockIn,
		ClockOut:   r.ClockOut,
		Status:     string(r.Status),
		LeaveType:  r.LeaveType,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type createAttendanceRequest struct {
	EmployeeID string     `json:"employee_id" binding:"required"`
	WorkDate   string     `json:"work_date" binding:"required"`
	ClockIn    *time.Time `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out"`
	Status     string     `json:"status" binding:"required"`
	LeaveType  string     `json:"leave_type"`
	Notes      string     `json:"notes"`
}

// Create は勤怠レコードを登録します。
func (h *AttendanceHandler) Create(c *gin.Context) {
	var req createAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workDate, err := time.Parse(dateLayout, req.WorkDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "work_date must be in YYYY-MM-DD format"})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), attendance.CreateRecordInput{
		EmployeeID: req.EmployeeID,
		WorkDate:   workDate,
		ClockIn:    req.ClockIn,
		ClockOut:   req.ClockOut,
		Status:     attendance.Status(req.Status),
		LeaveType:  req.LeaveType,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attendance": toAttendanceResponse(created)})
}

type updateAttendanceRequest struct {
	ClockIn   *time.Time `json:"clock_in"`
	ClockOut  *time.Time `json:"clock_out"`
	Status    *string    `json:"status"`
	LeaveType *string    `json:"leave_type"`
	Notes     *string    `json:"notes"`
}

// Update は勤怠レコードを部分更新します。
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req updateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := attendance.UpdateRecordInput{
		ID:        c.Param("id"),
		ClockIn:   req.ClockIn,
		ClockOut:  req.ClockOut,
		LeaveType: req.LeaveType,
		Notes:     req.Notes,
	}
	if req.Status != nil {
		status := attendance.Status(*req.Status)
		in.Status = &status
	}

	updated, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": toAttendanceResponse(updated)})
}

// Get は勤怠レコードを取得します。
func (h *AttendanceHandler) Get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": toAttendanceResponse(found)})
}

// Delete は勤怠レコードを削除します。
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List は勤怠レコード一覧を社員・期間フィルタ付きで返します。
func (h *AttendanceHandler) List(c *gin.Context) {
	in := attendance.ListRecordsInput{
		EmployeeID: c.Query("employee_id"),
		PageToken:  c.Query("page_token"),
	}

	from, err := parseOptionalDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be in YYYY-MM-DD format"})
		return
	}
	to, err := parseOptionalDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be in YYYY-MM-DD format"})
		return
	}
	in.From = from
	in.To = to

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

	records := make([]attendanceResponse, 0, len(result.Records))
	for _, r := range result.Records {
		records = append(records, toAttendanceResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"attendance":      records,
		"next_page_token": result.NextPageToken,
	})
}
