// Package rbac implements the role-based permission matrix.
// Permissions are a flat lookup over (role, resource, action) so the
// matrix is unit-testable without any HTTP or database machinery.
package rbac

// Role is an access level assigned to a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleOperator Role = "OPERATOR"
	RoleViewer   Role = "VIEWER"
)

// Resource is a protected resource class.
type Resource string

const (
	ResourcePart       Resource = "part"
	ResourceSupplier   Resource = "supplier"
	ResourceProduct    Resource = "product"
	ResourceInventory  Resource = "inventory"
	ResourceSalesOrder Resource = "sales_order"
	ResourceOrder      Resource = "order"
	ResourceMrp        Resource = "mrp"
	ResourceAudit      Resource = "audit"
	ResourcePicking    Resource = "picking"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionExecute Action = "execute" // run MRP, complete audits, consolidate orders
	ActionDelete  Action = "delete"
)

// ParseRole converts a string to a Role, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return Role(s), true
	}
	return "", false
}

type permKey struct {
	role     Role
	resource Resource
	action   Action
}

// matrix lists non-admin grants. Admin is handled in Allowed.
// Viewer: read everything. Operator: read everything plus the warehouse-floor
// writes (inventory movements, audit counting, picking). Manager: everything
// except delete on master data.
var matrix = map[permKey]bool{}

func grant(role Role, resource Resource, actions ...Action) {
	for _, a := range actions {
		matrix[permKey{role, resource, a}] = true
	}
}

func init() {
	allResources := []Resource{
		ResourcePart, ResourceSupplier, ResourceProduct, ResourceInventory,
		ResourceSalesOrder, ResourceOrder, ResourceMrp, ResourceAudit, ResourcePicking,
	}

	for _, r := range allResources {
		grant(RoleViewer, r, ActionRead)
		grant(RoleOperator, r, ActionRead)
		grant(RoleManager, r, ActionRead, ActionWrite, ActionExecute)
	}

	grant(RoleOperator, ResourceInventory, ActionWrite)
	grant(RoleOperator, ResourceAudit, ActionWrite, ActionExecute)
	grant(RoleOperator, ResourcePicking, ActionWrite, ActionExecute)
	grant(RoleOperator, ResourceOrder, ActionWrite) // goods receipt at the dock

	grant(RoleManager, ResourceMrp, ActionDelete)
	grant(RoleManager, ResourceAudit, ActionDelete)
}

// Allowed reports whether role may perform action on resource.
// Admins are allowed everything.
func Allowed(role Role, resource Resource, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	return matrix[permKey{role, resource, action}]
}
