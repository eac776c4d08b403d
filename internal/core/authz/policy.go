package authz

// Role はシステム内のユーザー役割を表します。
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleExecutive Role = "Executive"
	RoleManager   Role = "Manager"
	RoleHR        Role = "HR"
	RoleEmployee  Role = "Employee"
)

// Action は権限チェック対象の操作を表します。
type Action string

const (
	ActionApproveRecruitment Action = "recruitment.approve"
	ActionConvertRecruitment Action = "recruitment.convert"
	ActionApproveGrace       Action = "onboarding.approve_grace"
	ActionRunLockSweep       Action = "onboarding.run_lock_sweep"
	ActionManageEmployees    Action = "employees.manage"
)

// policy は操作ごとに許可される役割の宣言的な一覧です。
// ApproveGrace はここに挙げた役割に加えて、対象社員の現在の
// 直属マネージャーにも許可されます(判定は employee サービス側)。
var policy = map[Action][]Role{
	ActionApproveRecruitment: {RoleAdmin, RoleExecutive, RoleManager},
	ActionConvertRecruitment: {RoleAdmin, RoleExecutive, RoleManager, RoleHR},
	ActionApproveGrace:       {RoleExecutive, RoleManager},
	ActionRunLockSweep:       {RoleAdmin, RoleExecutive, RoleManager, RoleHR},
	ActionManageEmployees:    {RoleAdmin, RoleExecutive, RoleManager, RoleHR},
}

// CanPerform は役割が操作を実行できるかを判定します。
func CanPerform(role Role, action Action) bool {
	allowed, ok := policy[action]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// IsValidRole は役割が定義済みかを判定します。
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleExecutive, RoleManager, RoleHR, RoleEmployee:
		return true
	default:
		return false
	}
}
