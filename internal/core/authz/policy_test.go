package authz

import "testing"

func TestCanPerform_ApproveRecruitment(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleAdmin, RoleExecutive, RoleManager} {
		if !CanPerform(role, ActionApproveRecruitment) {
			t.Fatalf("expected %s to approve recruitments", role)
		}
	}
	for _, role := range []Role{RoleHR, RoleEmployee} {
		if CanPerform(role, ActionApproveRecruitment) {
			t.Fatalf("expected %s to be denied recruitment approval", role)
		}
	}
}

func TestCanPerform_ApproveGrace(t *testing.T) {
	t.Parallel()

	if !CanPerform(RoleExecutive, ActionApproveGrace) || !CanPerform(RoleManager, ActionApproveGrace) {
		t.Fatalf("expected executives and managers to approve grace")
	}
	if CanPerform(RoleAdmin, ActionApproveGrace) {
		t.Fatalf("grace approval is limited to executives, managers and reporting managers")
	}
	if CanPerform(RoleEmployee, ActionApproveGrace) {
		t.Fatalf("expected employees to be denied grace approval")
	}
}

func TestCanPerform_UnknownAction(t *testing.T) {
	t.Parallel()

	if CanPerform(RoleAdmin, Action("nonexistent")) {
		t.Fatalf("unknown actions must be denied")
	}
}

func TestIsValidRole(t *testing.T) {
	t.Parallel()

	if !IsValidRole(RoleHR) {
		t.Fatalf("expected HR to be a valid role")
	}
	if IsValidRole(Role("Superuser")) {
		t.Fatalf("expected unknown role to be invalid")
	}
}
