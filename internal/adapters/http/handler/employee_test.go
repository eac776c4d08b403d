package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaylabs/erp/internal/core/employee"
)

type fakeEmployeeUseCase struct {
	employee.UseCase

	createFn      func(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error)
	lockSweepFn   func(ctx context.Context, in employee.LockSweepInput) (*employee.LockSweepResult, error)
	createLoginFn func(ctx context.Context, in employee.CreateLoginInput) (*employee.CreateLoginResult, error)
}

func (f *fakeEmployeeUseCase) CreateEmployee(ctx context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
	return f.createFn(ctx, in)
}

func (f *fakeEmployeeUseCase) RunLockSweep(ctx context.Context, in employee.LockSweepInput) (*employee.LockSweepResult, error) {
	return f.lockSweepFn(ctx, in)
}

func (f *fakeEmployeeUseCase) CreateLogin(ctx context.Context, in employee.CreateLoginInput) (*employee.CreateLoginResult, error) {
	return f.createLoginFn(ctx, in)
}

func performJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestEmployeeHandler_Create_NormalizesAliases(t *testing.T) {
	t.Parallel()

	var captured employee.CreateEmployeeInput
	svc := &fakeEmployeeUseCase{
		createFn: func(_ context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
			captured = in
			dob := in.DateOfBirth
			return &employee.Employee{
				ID:               "emp-1",
				EmployeeCode:     in.EmployeeCode,
				Name:             in.Name,
				DateOfBirth:      dob,
				Phone:            in.Phone,
				CNIC:             in.CNIC,
				QRPayload:        "EMP-0001",
				OnboardingStatus: employee.OnboardingDraft,
				CreatedAt:        time.Now(),
				UpdatedAt:        time.Now(),
			}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/employees", NewEmployeeHandler(svc).Create)

	body := `{
		"employee_code": "EMP-0001",
		"name": "Ayesha Khan",
		"dob": "1994-03-12",
		"mobile": "0300-1234567",
		"cnic_number": "35202-1234567-1"
	}`
	rec := performJSON(t, router, http.MethodPost, "/employees", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if captured.Phone != "0300-1234567" {
		t.Fatalf("Phone = %q, want alias value applied", captured.Phone)
	}
	if captured.CNIC != "35202-1234567-1" {
		t.Fatalf("CNIC = %q, want alias value applied", captured.CNIC)
	}
	if captured.DateOfBirth == nil || captured.DateOfBirth.Format("2006-01-02") != "1994-03-12" {
		t.Fatalf("DateOfBirth = %v, want 1994-03-12", captured.DateOfBirth)
	}

	var resp struct {
		AppliedAliases []string `json:"applied_aliases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	want := map[string]bool{"dob": true, "mobile": true, "cnic_number": true}
	if len(resp.AppliedAliases) != len(want) {
		t.Fatalf("applied_aliases = %v, want %v", resp.AppliedAliases, want)
	}
	for _, alias := range resp.AppliedAliases {
		if !want[alias] {
			t.Fatalf("unexpected applied alias %q", alias)
		}
	}
}

func TestEmployeeHandler_Create_CanonicalWinsOverAlias(t *testing.T) {
	t.Parallel()

	var captured employee.CreateEmployeeInput
	svc := &fakeEmployeeUseCase{
		createFn: func(_ context.Context, in employee.CreateEmployeeInput) (*employee.Employee, error) {
			captured = in
			return &employee.Employee{ID: "emp-1", EmployeeCode: in.EmployeeCode, Name: in.Name}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/employees", NewEmployeeHandler(svc).Create)

	body := `{
		"employee_code": "EMP-0002",
		"name": "Bilal Ahmed",
		"phone": "0311-0000000",
		"mobile": "0300-9999999"
	}`
	rec := performJSON(t, router, http.MethodPost, "/employees", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if captured.Phone != "0311-0000000" {
		t.Fatalf("Phone = %q, want canonical value kept", captured.Phone)
	}

	var resp struct {
		AppliedAliases []string `json:"applied_aliases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.AppliedAliases) != 0 {
		t.Fatalf("applied_aliases = %v, want none", resp.AppliedAliases)
	}
}

func TestEmployeeHandler_RunLockSweep_EmptyBody(t *testing.T) {
	t.Parallel()

	svc := &fakeEmployeeUseCase{
		lockSweepFn: func(_ context.Context, in employee.LockSweepInput) (*employee.LockSweepResult, error) {
			if !in.Today.IsZero() {
				t.Fatalf("Today = %v, want zero value for empty body", in.Today)
			}
			return &employee.LockSweepResult{Scanned: 4, Locked: 2, Failed: 1}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/employees/lock-sweep", NewEmployeeHandler(svc).RunLockSweep)

	req := httptest.NewRequest(http.MethodPost, "/employees/lock-sweep", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Scanned int `json:"scanned"`
		Locked  int `json:"locked"`
		Failed  int `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Scanned != 4 || resp.Locked != 2 || resp.Failed != 1 {
		t.Fatalf("result = %+v, want {4 2 1}", resp)
	}
}

func TestEmployeeHandler_CreateLogin_AlreadyLinked(t *testing.T) {
	t.Parallel()

	svc := &fakeEmployeeUseCase{
		createLoginFn: func(_ context.Context, in employee.CreateLoginInput) (*employee.CreateLoginResult, error) {
			if in.EmployeeID != "emp-1" {
				t.Fatalf("EmployeeID = %q, want emp-1", in.EmployeeID)
			}
			return &employee.CreateLoginResult{AlreadyLinked: true}, nil
		},
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/employees/:id/login", NewEmployeeHandler(svc).CreateLogin)

	rec := performJSON(t, router, http.MethodPost, "/employees/emp-1/login", `{"email": "ayesha@example.com"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "already has a login") {
		t.Fatalf("body = %s, want already-linked message", rec.Body.String())
	}
}
