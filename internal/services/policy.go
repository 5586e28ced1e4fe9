package services

import "lot-auction/internal/domain"

var permissions = map[domain.Action][]domain.Role{
	domain.ActionCreateCategory: {domain.RoleManager, domain.RoleAdmin},
	domain.ActionUpdateCategory: {domain.RoleManager, domain.RoleAdmin},
	domain.ActionDeleteCategory: {domain.RoleManager, domain.RoleAdmin},
	domain.ActionUpdateUser:     {domain.RoleAdmin},
	domain.ActionDeleteUser:     {domain.RoleAdmin},
	domain.ActionGrantRole:      {domain.RoleAdmin},
	domain.ActionCreateLot:      {domain.RoleRegistered, domain.RoleManager, domain.RoleAdmin},
	domain.ActionUpdateLot:      {domain.RoleRegistered, domain.RoleManager, domain.RoleAdmin},
	domain.ActionDeleteLot:      {domain.RoleAdmin},
	domain.ActionCreateAuction:  {domain.RoleAdmin},
	domain.ActionUpdateAuction:  {domain.RoleAdmin},
	domain.ActionDeleteAuction:  {domain.RoleAdmin},
	domain.ActionPlaceBid:       {domain.RoleRegistered},
	domain.ActionDeleteBid:      {domain.RoleAdmin},
}

// Authorize returns an *UnauthorizedActionError unless role may perform
// action. Unknown actions are denied.
func Authorize(role domain.Role, action domain.Action) error {
	for _, allowed := range permissions[action] {
		if allowed == role {
			return nil
		}
	}
	return &domain.UnauthorizedActionError{Action: action, Role: role}
}
