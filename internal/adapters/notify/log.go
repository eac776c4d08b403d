package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zaylabs/erp/internal/core/authz"
	"github.com/zaylabs/erp/internal/core/employee"
	"github.com/zaylabs/erp/internal/core/user"
)

// RecipientDirectory は通知先ユーザーを役割から引くための抽象です。
type RecipientDirectory interface {
	ListByRoles(ctx context.Context, roles []authz.Role) ([]*user.User, error)
}

// reviewerRoles は書類レビュー通知の宛先となる役割です。
var reviewerRoles = []authz.Role{authz.RoleExecutive, authz.RoleManager}

// LogNotifier は通知をアプリケーションログへ書き出します。
// メール等の外部チャネルを持たない環境向けの実装です。
type LogNotifier struct {
	directory RecipientDirectory
	logf      func(format string, args ...any)
}

// NewLogNotifier は LogNotifier を生成します。
func NewLogNotifier(directory RecipientDirectory) *LogNotifier {
	return &LogNotifier{directory: directory, logf: log.Printf}
}

// EmployeeSubmittedForReview はオンボーディング提出をレビュー担当者へ通知します。
func (n *LogNotifier) EmployeeSubmittedForReview(ctx context.Context, e *employee.Employee) error {
	recipients := "(no reviewers registered)"

	if n.directory != nil {
		users, err := n.directory.ListByRoles(ctx, reviewerRoles)
		if err != nil {
			return fmt.Errorf("notify: resolve reviewers: %w", err)
		}
		if len(users) > 0 {
			emails := make([]string, 0, len(users))
			for _, u := range users {
				emails = append(emails, u.Email)
			}
			recipients = strings.Join(emails, ", ")
		}
	}

	n.logf("notify: employee %s (%s) submitted onboarding documents for review; reviewers: %s",
		e.EmployeeCode, e.Name, recipients)
	return nil
}
