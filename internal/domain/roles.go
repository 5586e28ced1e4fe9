package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleGuest      Role = "GUEST"
	RoleRegistered Role = "REGISTERED"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleRegistered, RoleManager, RoleAdmin:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

// Caller is the authenticated identity a request runs as. It is passed
// explicitly into every service call.
type Caller struct {
	UserID string
	Role   Role
}

// Guest is the identity of an unauthenticated caller.
func Guest() Caller {
	return Caller{Role: RoleGuest}
}

// System is the trusted actor used by the background sweep.
func System() Caller {
	return Caller{UserID: "system", Role: RoleAdmin}
}

type Action string

const (
	ActionCreateCategory Action = "create_category"
	ActionUpdateCategory Action = "update_category"
	ActionDeleteCategory Action = "delete_category"
	ActionUpdateUser     Action = "update_user"
	ActionDeleteUser     Action = "delete_user"
	ActionGrantRole      Action = "grant_role"
	ActionCreateLot      Action = "create_lot"
	ActionUpdateLot      Action = "update_lot"
	ActionDeleteLot      Action = "delete_lot"
	ActionCreateAuction  Action = "create_auction"
	ActionUpdateAuction  Action = "update_auction"
	ActionDeleteAuction  Action = "delete_auction"
	ActionPlaceBid       Action = "place_bid"
	ActionDeleteBid      Action = "delete_bid"
)
