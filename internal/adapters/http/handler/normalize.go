package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zaylabs/erp/internal/core/authz"
)

const dateLayout = "2006-01-02"

// aliasPair は入力の別名フィールドと正規フィールドの対です。
type aliasPair struct {
	alias     string
	canonical string
}

var employeeAliases = []aliasPair{
	{"dob", "date_of_birth"},
	{"mobile", "phone"},
	{"cnic_number", "cnic"},
}

var recruitmentAliases = []aliasPair{
	{"name", "candidate_name"},
	{"resume", "cv"},
	{"phone_number", "phone"},
	{"mobile", "phone"},
	{"email_address", "email"},
	{"cnic_number", "cnic"},
	{"father", "father_name"},
}

// normalizeAliases は正規フィールドが空のとき別名の値を(トリムして)
// 正規フィールドへ写します。両方ある場合は正規フィールド優先です。
// 適用された別名の一覧を返します。
func normalizeAliases(fields map[string]any, pairs []aliasPair) []string {
	var applied []string
	for _, p := range pairs {
		raw, ok := fields[p.alias]
		if !ok {
			continue
		}
		aliasValue, ok := raw.(string)
		if !ok {
			continue
		}
		trimmed := strings.TrimSpace(aliasValue)
		if trimmed == "" {
			continue
		}
		if canonical, ok := fields[p.canonical].(string); ok && strings.TrimSpace(canonical) != "" {
			continue
		}
		fields[p.canonical] = trimmed
		applied = append(applied, p.alias)
	}
	return applied
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// stringPtrField はフィールドが存在する場合のみ値を返します。
// 部分更新でフィールド未指定と空文字指定を区別するために使います。
func stringPtrField(fields map[string]any, key string) (*string, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	v, ok := raw.(string)
	if !ok {
		return nil, false
	}
	trimmed := strings.TrimSpace(v)
	return &trimmed, true
}

func floatPtrField(fields map[string]any, key string) (*float64, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

func datePtrField(fields map[string]any, key string) (*time.Time, bool, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, false, nil
	}
	if raw == nil {
		return nil, true, nil
	}
	v, ok := raw.(string)
	if !ok {
		return nil, true, fmt.Errorf("%s must be a date string (%s)", key, dateLayout)
	}
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil, true, nil
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, true, fmt.Errorf("%s must use layout %s", key, dateLayout)
	}
	return &parsed, true, nil
}

func mapField(fields map[string]any, key string) map[string]any {
	if v, ok := fields[key].(map[string]any); ok {
		return v
	}
	return nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parsePositiveInt(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("value must be positive")
	}
	return v, nil
}

// authzRoleOrDefault は役割入力を正規化し、未指定なら Employee を返します。
func authzRoleOrDefault(raw string) authz.Role {
	role := authz.Role(strings.TrimSpace(raw))
	if role == "" {
		return authz.RoleEmployee
	}
	return role
}
