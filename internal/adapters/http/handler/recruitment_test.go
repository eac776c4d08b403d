package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/recruitment"
)

type fakeRecruitmentUseCase struct {
	recruitment.UseCase

	createFn  func(ctx context.Context, in recruitment.CreateRecruitmentInput) (*recruitment.Recruitment, error)
	convertFn func(ctx context.Context, in recruitment.ConvertInput) (*recruitment.ConvertResult, error)
	exportFn  func(ctx context.Context, stage recruitment.Stage, w io.Writer) error
}

func (f *fakeRecruitmentUseCase) Create(ctx context.Context, in recruitment.CreateRecruitmentInput) (*recruitment.Recruitment, error) {
	return f.createFn(ctx, in)
}

func (f *fakeRecruitmentUseCase) ConvertToEmployee(ctx context.Context, in recruitment.ConvertInput) (*recruitment.ConvertResult, error) {
	return f.convertFn(ctx, in)
}

func (f *fakeRecruitmentUseCase) ExportTransitions(ctx context.Context, stage recruitment.Stage, w io.Writer) error {
	return f.exportFn(ctx, stage, w)
}

func TestRecruitmentHandler_Create_NormalizesAliases(t *testing.T) {
	t.Parallel()

	var captured recruitment.CreateRecruitmentInput
	svc := &fakeRecruitmentUseCase{
		createFn: func(_ context.Context, in recruitment.CreateRecruitmentInput) (*recruitment.Recruitment, error) {
			captured = in
			return &recruitment.Recruitment{
				ID:            "rec-1",
				CandidateName: in.CandidateName,
				Email:         in.Email,
				Phone:         in.Phone,
				CVPath:        in.CVPath,
				Status:        recruitment.StatusInterview,
				Lifecycle:     recruitment.LifecycleActive,
			}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recruitments", NewRecruitmentHandler(svc).Create)

	body := `{
		"name": "Sara Malik",
		"email_address": "sara@example.com",
		"phone_number": "0321-7654321",
		"resume": "uploads/cv/sara.pdf"
	}`
	rec := performJSON(t, router, http.MethodPost, "/recruitments", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if captured.CandidateName != "Sara Malik" {
		t.Fatalf("CandidateName = %q, want alias value applied", captured.CandidateName)
	}
	if captured.Email != "sara@example.com" {
		t.Fatalf("Email = %q, want alias value applied", captured.Email)
	}
	if captured.Phone != "0321-7654321" {
		t.Fatalf("Phone = %q, want alias value applied", captured.Phone)
	}
	if captured.CVPath != "uploads/cv/sara.pdf" {
		t.Fatalf("CVPath = %q, want alias value applied", captured.CVPath)
	}

	var resp struct {
		AppliedAliases []string `json:"applied_aliases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	want := map[string]bool{"name": true, "email_address": true, "phone_number": true, "resume": true}
	if len(resp.AppliedAliases) != len(want) {
		t.Fatalf("applied_aliases = %v, want 4 aliases", resp.AppliedAliases)
	}
	for _, alias := range resp.AppliedAliases {
		if !want[alias] {
			t.Fatalf("unexpected applied alias %q", alias)
		}
	}
}

func TestRecruitmentHandler_Convert_NotYetApproved(t *testing.T) {
	t.Parallel()

	svc := &fakeRecruitmentUseCase{
		convertFn: func(_ context.Context, in recruitment.ConvertInput) (*recruitment.ConvertResult, error) {
			return &recruitment.ConvertResult{
				Converted: false,
				Message:   "candidate has not been approved yet",
			}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recruitments/:id/convert", func(c *gin.Context) {
		c.Set("auth.user_id", "user-1")
		c.Set("auth.role", "HR")
	}, NewRecruitmentHandler(svc).Convert)

	rec := performJSON(t, router, http.MethodPost, "/recruitments/rec-1/convert", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Converted bool   `json:"converted"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Converted {
		t.Fatal("Converted = true, want false")
	}
	if resp.Message == "" {
		t.Fatal("Message is empty, want benign explanation")
	}
}

func TestRecruitmentHandler_Convert_Success(t *testing.T) {
	t.Parallel()

	svc := &fakeRecruitmentUseCase{
		convertFn: func(_ context.Context, in recruitment.ConvertInput) (*recruitment.ConvertResult, error) {
			if in.ID != "rec-1" {
				t.Fatalf("ID = %q, want rec-1", in.ID)
			}
			if in.ActorUserID != "user-1" {
				t.Fatalf("ActorUserID = %q, want user-1", in.ActorUserID)
			}
			return &recruitment.ConvertResult{Converted: true, EmployeeID: "emp-9"}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recruitments/:id/convert", func(c *gin.Context) {
		c.Set("auth.user_id", "user-1")
		c.Set("auth.role", "HR")
	}, NewRecruitmentHandler(svc).Convert)

	rec := performJSON(t, router, http.MethodPost, "/recruitments/rec-1/convert", "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "emp-9") {
		t.Fatalf("body = %s, want new employee id", rec.Body.String())
	}
}

func TestRecruitmentHandler_Convert_RequiresActor(t *testing.T) {
	t.Parallel()

	svc := &fakeRecruitmentUseCase{}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/recruitments/:id/convert", NewRecruitmentHandler(svc).Convert)

	rec := performJSON(t, router, http.MethodPost, "/recruitments/rec-1/convert", "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRecruitmentHandler_ExportTransitions_CSV(t *testing.T) {
	t.Parallel()

	svc := &fakeRecruitmentUseCase{
		exportFn: func(_ context.Context, stage recruitment.Stage, w io.Writer) error {
			if stage != recruitment.StageApproved {
				t.Fatalf("stage = %q, want approved", stage)
			}
			fmt.Fprintln(w, "recruitment_id,candidate_name,from_status,to_status,changed_by,changed_at")
			fmt.Fprintln(w, "rec-1,Sara Malik,candidate,approved,user-1,2026-08-30T10:00:00Z")
			return nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/recruitments/transitions/export", NewRecruitmentHandler(svc).ExportTransitions)

	rec := performJSON(t, router, http.MethodGet, "/recruitments/transitions/export?stage=approved", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("Content-Type = %q, want text/csv", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(got, "attachment;") {
		t.Fatalf("Content-Disposition = %q, want attachment", got)
	}
	if !strings.Contains(rec.Body.String(), "Sara Malik") {
		t.Fatalf("body = %s, want exported rows", rec.Body.String())
	}
}
