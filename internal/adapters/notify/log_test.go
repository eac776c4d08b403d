package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/core/user"
)

type fakeDirectory struct {
	users []*user.User
	err   error
	roles []authz.Role
}

func (f *fakeDirectory) ListByRoles(ctx context.Context, roles []authz.Role) ([]*user.User, error) {
	f.roles = roles
	return f.users, f.err
}

func TestLogNotifier_EmployeeSubmittedForReview(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{users: []*user.User{
		{Email: "exec@example.com"},
		{Email: "manager@example.com"},
	}}

	var logged string
	n := NewLogNotifier(dir)
	n.logf = func(format string, args ...any) {
		logged = fmt.Sprintf(format, args...)
	}

	err := n.EmployeeSubmittedForReview(context.Background(), &employee.Employee{
		EmployeeCode: "EMP-0001",
		Name:         "Ayesha Khan",
	})
	if err != nil {
		t.Fatalf("EmployeeSubmittedForReview returned error: %v", err)
	}

	if !strings.Contains(logged, "EMP-0001") || !strings.Contains(logged, "exec@example.com, manager@example.com") {
		t.Fatalf("unexpected log line %q", logged)
	}
	if len(dir.roles) != 2 || dir.roles[0] != authz.RoleExecutive || dir.roles[1] != authz.RoleManager {
		t.Fatalf("unexpected reviewer roles %v", dir.roles)
	}
}

func TestLogNotifier_DirectoryFailure(t *testing.T) {
	t.Parallel()

	dir := &fakeDirectory{err: errors.New("db down")}
	n := NewLogNotifier(dir)
	n.logf = func(format string, args ...any) {}

	err := n.EmployeeSubmittedForReview(context.Background(), &employee.Employee{EmployeeCode: "EMP-0001"})
	if err == nil {
		t.Fatal("expected error when reviewer lookup fails")
	}
}
