package rbac

import (
	"testing"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{"admin can delete mrp", RoleAdmin, ResourceMrp, ActionDelete, true},
		{"admin can write parts", RoleAdmin, ResourcePart, ActionWrite, true},
		{"viewer can read orders", RoleViewer, ResourceOrder, ActionRead, true},
		{"viewer cannot write orders", RoleViewer, ResourceOrder, ActionWrite, false},
		{"viewer cannot run mrp", RoleViewer, ResourceMrp, ActionExecute, false},
		{"operator can complete audits", RoleOperator, ResourceAudit, ActionExecute, true},
		{"operator can pick", RoleOperator, ResourcePicking, ActionWrite, true},
		{"operator can receive orders", RoleOperator, ResourceOrder, ActionWrite, true},
		{"operator cannot write parts", RoleOperator, ResourcePart, ActionWrite, false},
		{"operator cannot run mrp", RoleOperator, ResourceMrp, ActionExecute, false},
		{"manager can run mrp", RoleManager, ResourceMrp, ActionExecute, true},
		{"manager can consolidate orders", RoleManager, ResourceOrder, ActionExecute, true},
		{"manager cannot delete parts", RoleManager, ResourcePart, ActionDelete, false},
		{"manager can delete mrp results", RoleManager, ResourceMrp, ActionDelete, true},
		{"unknown role denied", Role("GUEST"), ResourcePart, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.role, tt.resource, tt.action); got != tt.want {
				t.Errorf("Allowed(%s, %s, %s) = %v, want %v",
					tt.role, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole("MANAGER"); !ok || r != RoleManager {
		t.Errorf("ParseRole(MANAGER) = %v, %v", r, ok)
	}
	if _, ok := ParseRole("manager"); ok {
		t.Error("ParseRole should be case-sensitive")
	}
	if _, ok := ParseRole(""); ok {
		t.Error("empty role must not parse")
	}
}
