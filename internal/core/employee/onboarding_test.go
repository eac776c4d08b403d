package employee

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedEmployee(t *testing.T, repo *fakeEmployeeRepo, mutate func(*Employee)) *Employee {
	t.Helper()

	emp := &Employee{
		EmployeeCode:     fmt.Sprintf("EMP-%04d", len(repo.employees)+1),
		CodeNumber:       len(repo.employees) + 1,
		Name:             "Test Employee",
		OnboardingStatus: OnboardingSubmitted,
	}
	if mutate != nil {
		mutate(emp)
	}

	created, err := repo.Create(context.Background(), emp)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	return created
}

func seedDocuments(t *testing.T, repo *fakeEmployeeRepo, employeeID string, types ...string) {
	t.Helper()

	for _, docType := range types {
		if _, err := repo.CreateDocument(context.Background(), &Document{
			EmployeeID: employeeID,
			Type:       docType,
			FilePath:   "docs/" + docType,
		}); err != nil {
			t.Fatalf("seed document %q: %v", docType, err)
		}
	}
}

func TestService_RunLockSweep_LocksPastDeadlineWithMissingDocument(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	emp := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
	})
	seedDocuments(t, repo, emp.ID, "CV", "Certificate")

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Scanned != 1 || result.Locked != 1 {
		t.Fatalf("unexpected counts: scanned=%d locked=%d", result.Scanned, result.Locked)
	}
	if !repo.employees[emp.ID].IsLocked {
		t.Fatalf("employee was not locked")
	}
}

func TestService_RunLockSweep_SkipsActiveGrace(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	graceUntil := date(2025, time.February, 1)
	emp := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
		e.GraceUntil = &graceUntil
	})
	seedDocuments(t, repo, emp.ID, "CV", "Certificate")

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Locked != 0 {
		t.Fatalf("expected no locks during grace, got %d", result.Locked)
	}
	if repo.employees[emp.ID].IsLocked {
		t.Fatalf("employee was locked despite active grace")
	}
}

func TestService_RunLockSweep_LocksAfterGraceExpired(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.February, 2)})

	lockAt := date(2025, time.January, 1)
	graceUntil := date(2025, time.February, 1)
	emp := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
		e.GraceUntil = &graceUntil
	})

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.February, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Locked != 1 {
		t.Fatalf("expected lock after grace expiry, got %d", result.Locked)
	}
	if !repo.employees[emp.ID].IsLocked {
		t.Fatalf("employee was not locked after grace expiry")
	}
}

func TestService_RunLockSweep_SkipsCompleteDocuments(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	emp := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
	})
	seedDocuments(t, repo, emp.ID, "CV", "CNIC", "Certificate")

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Locked != 0 {
		t.Fatalf("expected no locks with complete documents, got %d", result.Locked)
	}
	if repo.employees[emp.ID].IsLocked {
		t.Fatalf("employee with complete documents was locked")
	}
}

func TestService_RunLockSweep_SkipsDocumentsReceived(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	receivedAt := date(2025, time.January, 1)
	emp := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
		e.DocumentsReceivedAt = &receivedAt
	})

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Scanned != 0 {
		t.Fatalf("received employee should not be scanned, scanned=%d", result.Scanned)
	}
	if repo.employees[emp.ID].IsLocked {
		t.Fatalf("employee with received documents was locked")
	}
}

func TestService_RunLockSweep_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
	})

	first, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("first sweep returned error: %v", err)
	}
	if first.Locked != 1 {
		t.Fatalf("first sweep locked %d, want 1", first.Locked)
	}

	stateAfterFirst := snapshotEmployees(repo)

	second, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("second sweep returned error: %v", err)
	}
	if second.Locked != 0 {
		t.Fatalf("second sweep locked %d, want 0", second.Locked)
	}

	if !reflect.DeepEqual(stateAfterFirst, snapshotEmployees(repo)) {
		t.Fatalf("second sweep changed state")
	}
}

func TestService_RunLockSweep_ContinuesAfterPerEmployeeFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 2)})

	lockAt := date(2025, time.January, 1)
	broken := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
	})
	healthy := seedEmployee(t, repo, func(e *Employee) {
		e.LockAt = &lockAt
	})
	repo.docTypesErr[broken.ID] = errors.New("storage unavailable")

	result, err := service.RunLockSweep(context.Background(), LockSweepInput{Today: date(2025, time.January, 2)})
	if err != nil {
		t.Fatalf("RunLockSweep returned error: %v", err)
	}

	if result.Failed != 1 {
		t.Fatalf("expected 1 failure, got %d", result.Failed)
	}
	if !repo.employees[healthy.ID].IsLocked {
		t.Fatalf("failure on one employee blocked another")
	}
	if repo.employees[broken.ID].IsLocked {
		t.Fatalf("failed employee must not be locked")
	}
}

func snapshotEmployees(repo *fakeEmployeeRepo) map[string]Employee {
	out := make(map[string]Employee, len(repo.employees))
	for id, e := range repo.employees {
		out[id] = *e
	}
	return out
}

func TestService_SubmitForReview_SetsDeadlineAndNotifies(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	notifier := &fakeNotifier{}
	now := time.Date(2025, time.March, 1, 15, 30, 0, 0, time.UTC)
	service := NewService(repo, newFakeFileStore(), notifier, nil, &stubClock{now: now}, nil, OnboardingPolicy{})

	emp := seedEmployee(t, repo, func(e *Employee) {
		e.OnboardingStatus = OnboardingDraft
	})

	updated, err := service.SubmitForReview(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("SubmitForReview returned error: %v", err)
	}

	if updated.OnboardingStatus != OnboardingSubmitted {
		t.Fatalf("unexpected status: %q", updated.OnboardingStatus)
	}
	if updated.OnboardingSubmittedAt == nil || !updated.OnboardingSubmittedAt.Equal(now) {
		t.Fatalf("submitted_at not set from clock: %v", updated.OnboardingSubmittedAt)
	}
	wantLockAt := date(2025, time.March, 31)
	if updated.LockAt == nil || !updated.LockAt.Equal(wantLockAt) {
		t.Fatalf("lock_at = %v, want %v", updated.LockAt, wantLockAt)
	}
	if len(notifier.submitted) != 1 || notifier.submitted[0] != emp.ID {
		t.Fatalf("reviewers were not notified: %v", notifier.submitted)
	}
}

func TestService_MarkDocumentsReceived_UnlocksAndApproves(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := date(2025, time.April, 1)
	service := newTestService(repo, &stubClock{now: now})

	emp := seedEmployee(t, repo, func(e *Employee) {
		e.IsLocked = true
	})

	updated, err := service.MarkDocumentsReceived(context.Background(), emp.ID)
	if err != nil {
		t.Fatalf("MarkDocumentsReceived returned error: %v", err)
	}

	if updated.IsLocked {
		t.Fatalf("employee remained locked")
	}
	if updated.DocumentsReceivedAt == nil || !updated.DocumentsReceivedAt.Equal(now) {
		t.Fatalf("documents_received_at not set: %v", updated.DocumentsReceivedAt)
	}
	if updated.OnboardingStatus != OnboardingApproved {
		t.Fatalf("unexpected status: %q", updated.OnboardingStatus)
	}
}

func TestService_MarkDocumentsReceived_RequiresSubmitted(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.April, 1)})

	draft := seedEmployee(t, repo, func(e *Employee) {
		e.OnboardingStatus = OnboardingDraft
	})
	if _, err := service.MarkDocumentsReceived(context.Background(), draft.ID); !errors.Is(err, ErrOnboardingNotSubmitted) {
		t.Fatalf("draft: err = %v, want ErrOnboardingNotSubmitted", err)
	}
	if stored := repo.employees[draft.ID]; stored.DocumentsReceivedAt != nil {
		t.Fatalf("draft employee was marked as received")
	}

	approved := seedEmployee(t, repo, func(e *Employee) {
		e.OnboardingStatus = OnboardingApproved
	})
	if _, err := service.MarkDocumentsReceived(context.Background(), approved.ID); !errors.Is(err, ErrOnboardingNotSubmitted) {
		t.Fatalf("approved: err = %v, want ErrOnboardingNotSubmitted", err)
	}
}

func TestService_ApproveGrace_ByRole(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := date(2025, time.January, 10)
	service := newTestService(repo, &stubClock{now: now})

	emp := seedEmployee(t, repo, func(e *Employee) {
		e.IsLocked = true
	})

	updated, err := service.ApproveGrace(context.Background(), ApproveGraceInput{
		EmployeeID:  emp.ID,
		ActorUserID: "user-1",
		ActorRole:   authz.RoleExecutive,
	})
	if err != nil {
		t.Fatalf("ApproveGrace returned error: %v", err)
	}

	if updated.IsLocked {
		t.Fatalf("grace approval did not unlock")
	}
	wantGraceUntil := date(2025, time.February, 9)
	if updated.GraceUntil == nil || !updated.GraceUntil.Equal(wantGraceUntil) {
		t.Fatalf("grace_until = %v, want %v", updated.GraceUntil, wantGraceUntil)
	}
	if updated.GraceApprovedAt == nil || !updated.GraceApprovedAt.Equal(now) {
		t.Fatalf("grace_approved_at not set: %v", updated.GraceApprovedAt)
	}
}

func TestService_ApproveGrace_ByReportingManager(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 10)})

	emp := seedEmployee(t, repo, nil)

	// 報告先は社員 ID で保持されるため、マネージャーは社員行として登録し
	// そのログインユーザー ID で承認を試みます。
	managerUserID := "manager-user-1"
	manager := seedEmployee(t, repo, func(e *Employee) {
		e.UserID = &managerUserID
	})
	staleManagerUserID := "stale-manager-user-1"
	staleManager := seedEmployee(t, repo, func(e *Employee) {
		e.UserID = &staleManagerUserID
	})

	olderEffective := date(2024, time.January, 1)
	newerEffective := date(2025, time.January, 1)
	if _, err := repo.CreateEmploymentDetail(context.Background(), &EmploymentDetail{
		EmployeeID:         emp.ID,
		ReportingManagerID: &staleManager.ID,
		EmploymentStatus:   EmploymentFullTime,
		EffectiveDate:      &olderEffective,
	}); err != nil {
		t.Fatalf("seed detail: %v", err)
	}
	if _, err := repo.CreateEmploymentDetail(context.Background(), &EmploymentDetail{
		EmployeeID:         emp.ID,
		ReportingManagerID: &manager.ID,
		EmploymentStatus:   EmploymentFullTime,
		EffectiveDate:      &newerEffective,
	}); err != nil {
		t.Fatalf("seed detail: %v", err)
	}

	if _, err := service.ApproveGrace(context.Background(), ApproveGraceInput{
		EmployeeID:  emp.ID,
		ActorUserID: managerUserID,
		ActorRole:   authz.RoleEmployee,
	}); err != nil {
		t.Fatalf("reporting manager was denied: %v", err)
	}

	if _, err := service.ApproveGrace(context.Background(), ApproveGraceInput{
		EmployeeID:  emp.ID,
		ActorUserID: staleManagerUserID,
		ActorRole:   authz.RoleEmployee,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("stale manager should be denied, got %v", err)
	}

	if _, err := service.ApproveGrace(context.Background(), ApproveGraceInput{
		EmployeeID:  emp.ID,
		ActorUserID: manager.ID,
		ActorRole:   authz.RoleEmployee,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("manager employee id must not pass as a user id, got %v", err)
	}
}

func TestService_ApproveGrace_DeniedWithoutAuthority(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	service := newTestService(repo, &stubClock{now: date(2025, time.January, 10)})

	emp := seedEmployee(t, repo, nil)

	_, err := service.ApproveGrace(context.Background(), ApproveGraceInput{
		EmployeeID:  emp.ID,
		ActorUserID: "user-1",
		ActorRole:   authz.RoleEmployee,
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if repo.employees[emp.ID].GraceUntil != nil {
		t.Fatalf("denied approval mutated state")
	}
}

func TestService_OnboardNewHire_RegistersResumeAsCV(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)
	service := newTestService(repo, &stubClock{now: now})

	created, err := service.OnboardNewHire(context.Background(), OnboardNewHireInput{
		Name:       "Ayesha Khan",
		ResumePath: "uploads/resumes/ayesha.pdf",
	})
	if err != nil {
		t.Fatalf("OnboardNewHire returned error: %v", err)
	}

	if created.EmployeeCode != "EMP-0001" {
		t.Fatalf("unexpected employee code: %q", created.EmployeeCode)
	}
	if created.OnboardingStatus != OnboardingSubmitted {
		t.Fatalf("unexpected status: %q", created.OnboardingStatus)
	}
	wantLockAt := date(2025, time.May, 31)
	if created.LockAt == nil || !created.LockAt.Equal(wantLockAt) {
		t.Fatalf("lock_at = %v, want %v", created.LockAt, wantLockAt)
	}
	if created.IsLocked {
		t.Fatalf("new hire must start unlocked")
	}

	docs, err := repo.ListDocuments(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("ListDocuments returned error: %v", err)
	}
	if len(docs) != 1 || docs[0].Type != "CV" || docs[0].FilePath != "uploads/resumes/ayesha.pdf" {
		t.Fatalf("resume was not registered as CV document: %+v", docs)
	}
}

func TestService_CreateLogin_NewAndAlreadyLinked(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	identities := &fakeIdentityProvider{}
	service := NewService(repo, newFakeFileStore(), &fakeNotifier{}, identities, &stubClock{now: time.Now().UTC()}, nil, OnboardingPolicy{})

	emp := seedEmployee(t, repo, nil)

	result, err := service.CreateLogin(context.Background(), CreateLoginInput{
		EmployeeID: emp.ID,
		Email:      "ayesha@example.com",
		Role:       authz.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("CreateLogin returned error: %v", err)
	}
	if result.AlreadyLinked {
		t.Fatalf("first login reported as already linked")
	}
	if result.GeneratedPassword == "" {
		t.Fatalf("generated password was not returned")
	}
	if got := repo.employees[emp.ID].UserID; got == nil || *got != result.User.ID {
		t.Fatalf("employee was not linked to user: %v", got)
	}

	again, err := service.CreateLogin(context.Background(), CreateLoginInput{
		EmployeeID: emp.ID,
		Email:      "ayesha@example.com",
		Role:       authz.RoleEmployee,
	})
	if err != nil {
		t.Fatalf("CreateLogin returned error: %v", err)
	}
	if !again.AlreadyLinked {
		t.Fatalf("second login did not report already linked")
	}
	if len(identities.logins) != 1 {
		t.Fatalf("identity provider called %d times, want 1", len(identities.logins))
	}
}
