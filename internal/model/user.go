package model

import (
    "fmt"
    "strings"
    "time"
)

// Role is the closed set of principal roles.  New roles must be added
// to Roles() so that every projection switch is forced to handle them.
type Role string

const (
    RoleAdmin    Role = "admin"
    RoleMerchant Role = "merchant"
    RoleCustomer Role = "customer"
)

// Roles lists every Role variant.
func Roles() []Role { return []Role{RoleAdmin, RoleMerchant, RoleCustomer} }

// ParseRole converts a stored or claimed role string into a Role.  The
// comparison ignores case and surrounding whitespace.
func ParseRole(s string) (Role, error) {
    r := Role(strings.ToLower(strings.TrimSpace(s)))
    for _, known := range Roles() {
        if r == known {
            return r, nil
        }
    }
    return "", fmt.Errorf("unknown role %q", s)
}

// Principal is the authenticated caller of a request.  It is built once
// by the authentication middleware and never mutated afterwards.
type Principal struct {
    UserID uint64
    Role   Role
}

// User represents a row in the `users` table.  Only the columns the
// seeder needs are mapped.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – admin, merchant or customer.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password
    Role         Role      // users.role
    CreatedAt    time.Time // users.created_at
}

// Customer is the booking owner as seen by this service.  PushToken is
// the registered device token; nil or empty means the customer has no
// reachable device.
type Customer struct {
    ID             uint64  // customers.id
    Name           string  // customers.name
    Email          string  // customers.email
    Phone          *string // customers.phone (nullable)
    ProfilePicture *string // customers.profile_picture (nullable)
    PushToken      *string // customers.push_token (nullable)
}

// HasPushToken reports whether a device token is registered.
func (c Customer) HasPushToken() bool {
    return c.PushToken != nil && strings.TrimSpace(*c.PushToken) != ""
}
