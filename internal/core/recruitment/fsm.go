package recruitment

import "fmt"

// Trigger は選考状態を進める操作を表します。
type Trigger string

const (
	TriggerScreen  Trigger = "screen"
	TriggerQualify Trigger = "qualify"
	TriggerReject  Trigger = "reject"
	TriggerApprove Trigger = "approve"
	TriggerOffer   Trigger = "offer"
	TriggerHire    Trigger = "hire"
	TriggerConvert Trigger = "convert"
)

type transitionKey struct {
	from    Status
	trigger Trigger
}

// transitions は許可される状態遷移の表です。表にない組は一律拒否されます。
var transitions = map[transitionKey]Status{
	{StatusApplied, TriggerScreen}:    StatusInterview,
	{StatusInterview, TriggerQualify}: StatusCandidate,
	{StatusInterview, TriggerReject}:  StatusRejected,
	{StatusCandidate, TriggerApprove}: StatusApproved,
	{StatusCandidate, TriggerReject}:  StatusRejected,
	{StatusApproved, TriggerOffer}:    StatusOffer,
	{StatusApproved, TriggerConvert}:  StatusEmployee,
	{StatusOffer, TriggerHire}:        StatusHired,
	{StatusOffer, TriggerConvert}:     StatusEmployee,
	{StatusOffer, TriggerReject}:      StatusRejected,
	{StatusHired, TriggerConvert}:     StatusEmployee,
}

// nextStatus は from に trigger を適用した結果の状態を返します。
// 許可されない組には ErrInvalidTransition を返します。
func nextStatus(from Status, trigger Trigger) (Status, error) {
	to, ok := transitions[transitionKey{from: from, trigger: trigger}]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// IsValidStatus は status が既知の選考状態かを返します。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusApplied, StatusInterview, StatusCandidate, StatusApproved,
		StatusOffer, StatusHired, StatusRejected, StatusEmployee:
		return true
	default:
		return false
	}
}
