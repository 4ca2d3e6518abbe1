package enums

import "fmt"

// ActorRole identifies which side of the marketplace a user acts for.
type ActorRole string

const (
	ActorRoleYayasan ActorRole = "yayasan"
	ActorRoleDapur   ActorRole = "dapur"
	ActorRoleVendor  ActorRole = "vendor"
	ActorRoleDriver  ActorRole = "driver"
)

var validActorRoles = []ActorRole{
	ActorRoleYayasan,
	ActorRoleDapur,
	ActorRoleVendor,
	ActorRoleDriver,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ActsForVendor reports whether the role operates under a vendor id.
// Drivers belong to a vendor and ship on its behalf.
func (a ActorRole) ActsForVendor() bool {
	return a == ActorRoleVendor || a == ActorRoleDriver
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
