package shared

// Resources gated by the permission matrix.
const (
	ResourceEmployees = "Employees"
	ResourceRoles     = "Roles"
	ResourceTickets   = "Tickets"
	ResourcePOS       = "POS"
	ResourceInventory = "Inventory"
)

// Actions recognised inside a resource's permission map.
const (
	ActionView   = "View"
	ActionEdit   = "Edit"
	ActionDelete = "Delete"
)
