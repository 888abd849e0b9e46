// Package conditions evaluates sync conditions against device context
// snapshots. Evaluation is pure: the same condition and snapshot always
// produce the same verdict.
package conditions

import (
	"fmt"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"
)

// CheckResult is the aggregate verdict over a condition list.
type CheckResult struct {
	AllMet           bool
	FailedConditions []string // required conditions that are unmet
	Advisories       []string // advisory conditions that are unmet
}

// Evaluate reports whether a single condition holds for the given context.
// Malformed conditions never panic: in/not_in with a non-list value degrade
// to "not satisfied", anything else falls back to literal comparison.
func Evaluate(cond types.SyncCondition, sctx *types.SyncContext) bool {
	actual, ok := contextValue(cond.Type, sctx)
	if !ok {
		return false
	}

	switch cond.Operator {
	case types.OperatorGT:
		a, aok := toNumber(actual)
		b, bok := toNumber(cond.Value)
		return aok && bok && a > b
	case types.OperatorLT:
		a, aok := toNumber(actual)
		b, bok := toNumber(cond.Value)
		return aok && bok && a < b
	case types.OperatorEQ:
		return literalEqual(actual, cond.Value)
	case types.OperatorIn:
		list, ok := toList(cond.Value)
		if !ok {
			return false
		}
		return containsLiteral(list, actual)
	case types.OperatorNotIn:
		list, ok := toList(cond.Value)
		if !ok {
			return false
		}
		return !containsLiteral(list, actual)
	default:
		return false
	}
}

// CheckAll evaluates every condition. Only unmet required conditions fail
// the aggregate; unmet advisory conditions are surfaced separately and
// never block.
func CheckAll(conds []types.SyncCondition, sctx *types.SyncContext) CheckResult {
	result := CheckResult{AllMet: true}

	for _, cond := range conds {
		if Evaluate(cond, sctx) {
			continue
		}
		if cond.Required {
			result.AllMet = false
			result.FailedConditions = append(result.FailedConditions, Describe(cond))
		} else {
			result.Advisories = append(result.Advisories, Describe(cond))
		}
	}

	return result
}

// Describe renders a condition as a diagnostic string.
func Describe(cond types.SyncCondition) string {
	kind := "advisory"
	if cond.Required {
		kind = "required"
	}
	return fmt.Sprintf("%s condition %s %s %v not met", kind, cond.Type, cond.Operator, cond.Value)
}

// Defaults returns the conditions auto-appended at schedule creation for a
// priority tier. Critical schedules get none so nothing can hold them back.
func Defaults(priority types.Priority) []types.SyncCondition {
	switch priority {
	case types.PriorityCritical:
		return nil
	case types.PriorityHigh:
		return []types.SyncCondition{
			{Type: types.ConditionBatteryLevel, Operator: types.OperatorGT, Value: 10, Required: true},
			notOffline(),
		}
	case types.PriorityMedium:
		return []types.SyncCondition{
			{Type: types.ConditionBatteryLevel, Operator: types.OperatorGT, Value: 20, Required: true},
			notOffline(),
		}
	default:
		return []types.SyncCondition{
			{Type: types.ConditionBatteryLevel, Operator: types.OperatorGT, Value: 20, Required: true},
			notOffline(),
			// Low priority prefers WiFi but is not blocked without it.
			{Type: types.ConditionConnectionType, Operator: types.OperatorEQ, Value: string(types.ConnectionWiFi), Required: false},
		}
	}
}

// Merge appends the priority defaults after the caller-supplied conditions.
func Merge(custom []types.SyncCondition, priority types.Priority) []types.SyncCondition {
	defaults := Defaults(priority)
	merged := make([]types.SyncCondition, 0, len(custom)+len(defaults))
	merged = append(merged, custom...)
	merged = append(merged, defaults...)
	return merged
}

func notOffline() types.SyncCondition {
	return types.SyncCondition{
		Type:     types.ConditionConnectionType,
		Operator: types.OperatorNotIn,
		Value:    []interface{}{string(types.ConnectionOffline)},
		Required: true,
	}
}

// contextValue extracts the context field a condition inspects. The second
// return is false when the field is unknown or absent from the snapshot.
func contextValue(t types.ConditionType, sctx *types.SyncContext) (interface{}, bool) {
	switch t {
	case types.ConditionBatteryLevel:
		if sctx.BatteryLevel == nil {
			return nil, false
		}
		return *sctx.BatteryLevel, true
	case types.ConditionConnectionType:
		return string(sctx.ConnectionType), true
	case types.ConditionDataLimit:
		return sctx.DataUsageToday, true
	case types.ConditionTimeWindow:
		return sctx.TimeOfDay, true
	case types.ConditionUserActivity:
		return sctx.UserActive, true
	default:
		return nil, false
	}
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toList(v interface{}) ([]interface{}, bool) {
	switch list := v.(type) {
	case []interface{}:
		return list, true
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func literalEqual(a, b interface{}) bool {
	if an, aok := toNumber(a); aok {
		if bn, bok := toNumber(b); bok {
			return an == bn
		}
		return false
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func containsLiteral(list []interface{}, v interface{}) bool {
	for _, item := range list {
		if literalEqual(v, item) {
			return true
		}
	}
	return false
}
