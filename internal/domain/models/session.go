package models

// Role enumerates operator roles.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleHelper Role = "helper"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleHelper:
		return true
	}
	return false
}

// Principal is the authenticated operator profile kept alongside the token.
type Principal struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether role has full administrative rights.
func IsAdmin(role Role) bool { return role == RoleAdmin }

// IsHelper reports whether role is the restricted same-day entry role.
func IsHelper(role Role) bool { return role == RoleHelper }

// CanAccessAdvancedFeatures gates date filters, reports, advances and fat-rate
// administration.
func CanAccessAdvancedFeatures(role Role) bool {
	return role == RoleAdmin || role == RoleUser
}

// CanModifyData gates editing collections and managing farmers.
func CanModifyData(role Role) bool {
	return role == RoleAdmin || role == RoleUser
}

// Page identifies a dashboard section.
type Page string

const (
	PageCollection Page = "collection"
	PageUsers      Page = "users"
	PageReports    Page = "reports"
	PageAdvances   Page = "advances"
	PageFatRates   Page = "fatrates"
)

// NavigationItem is one entry of the dashboard menu.
type NavigationItem struct {
	ID    Page   `json:"id"`
	Name  string `json:"name"`
	Roles []Role `json:"-"`
}

var allNavigation = []NavigationItem{
	{ID: PageCollection, Name: "Milk Collection", Roles: []Role{RoleAdmin, RoleUser, RoleHelper}},
	{ID: PageUsers, Name: "Users", Roles: []Role{RoleAdmin, RoleUser}},
	{ID: PageReports, Name: "Reports", Roles: []Role{RoleAdmin, RoleUser}},
	{ID: PageAdvances, Name: "Advances", Roles: []Role{RoleAdmin, RoleUser}},
	{ID: PageFatRates, Name: "Fat Rates", Roles: []Role{RoleAdmin, RoleUser}},
}

// Navigation returns the menu entries visible to role, in menu order.
func Navigation(role Role) []NavigationItem {
	items := make([]NavigationItem, 0, len(allNavigation))
	for _, item := range allNavigation {
		for _, allowed := range item.Roles {
			if allowed == role {
				items = append(items, item)
				break
			}
		}
	}
	return items
}

// CanVisit reports whether role may open page.
func CanVisit(role Role, page Page) bool {
	for _, item := range Navigation(role) {
		if item.ID == page {
			return true
		}
	}
	return false
}

// Capabilities summarizes what the current role may do.
type Capabilities struct {
	IsAdmin                   bool `json:"isAdmin"`
	CanAccessAdvancedFeatures bool `json:"canAccessAdvancedFeatures"`
	CanModifyData             bool `json:"canModifyData"`
}

// CapabilitiesFor evaluates all predicates for role.
func CapabilitiesFor(role Role) Capabilities {
	return Capabilities{
		IsAdmin:                   IsAdmin(role),
		CanAccessAdvancedFeatures: CanAccessAdvancedFeatures(role),
		CanModifyData:             CanModifyData(role),
	}
}
