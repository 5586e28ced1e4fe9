package services

import (
	"context"
	"strings"

	"lot-auction/internal/domain"
)

// UserUpdate carries the editable user fields. Empty fields are left as stored.
type UserUpdate struct {
	ID       string
	Username string
	Password string
	Role     domain.Role
}

// Register creates a REGISTERED user. It is open to anyone.
func (s *AuctionService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.AddUser(ctx, domain.Guest(), username, password, domain.RoleRegistered)
}

// AddUser creates a user with the given role. Creating anything above
// REGISTERED needs a caller allowed to grant roles.
func (s *AuctionService) AddUser(ctx context.Context, caller domain.Caller, username, password string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleRegistered
	}
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	if role != domain.RoleRegistered && role != domain.RoleGuest {
		if err := Authorize(caller.Role, domain.ActionGrantRole); err != nil {
			return nil, err
		}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username is required")
	}
	if password == "" {
		return nil, invalid("password is required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, invalid("password: %v", err)
	}

	var created *domain.User
	err = s.withLock(ctx, "user:"+username, func() error {
		if err := s.usernameFree(ctx, username, ""); err != nil {
			return err
		}
		var err error
		created, err = s.store.Users().Save(ctx, &domain.User{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    s.clock.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User created", "user_id", created.ID, "username", created.Username, "role", created.Role)
	return created, nil
}

func (s *AuctionService) usernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.store.Users().FindByUsername(ctx, username)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return conflict("username %q is taken", username)
	}
	return nil
}

// Authenticate checks a username and password pair. Any mismatch, including
// an unknown username, yields ErrInvalidCredentials.
func (s *AuctionService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if isNotFound(err) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.log.Info("Login rejected", "username", username)
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuctionService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.store.Users().FindByID(ctx, id)
}

func (s *AuctionService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.store.Users().FindByUsername(ctx, username)
}

func (s *AuctionService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.store.Users().FindAll(ctx)
}

// UpdateUser lets users edit themselves. Editing someone else, or changing
// any role, needs ADMIN.
func (s *AuctionService) UpdateUser(ctx context.Context, caller domain.Caller, in UserUpdate) (*domain.User, error) {
	if caller.UserID == "" || caller.UserID != in.ID {
		if err := Authorize(caller.Role, domain.ActionUpdateUser); err != nil {
			return nil, err
		}
	}

	current, err := s.store.Users().FindByID(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Role != "" && in.Role != current.Role {
		if !in.Role.Valid() {
			return nil, invalid("unknown role %q", in.Role)
		}
		if err := Authorize(caller.Role, domain.ActionGrantRole); err != nil {
			return nil, err
		}
		current.Role = in.Role
	}

	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, invalid("password: %v", err)
		}
		current.PasswordHash = hash
	}

	username := strings.TrimSpace(in.Username)
	if username == "" || username == current.Username {
		return s.saveUser(ctx, current)
	}

	var updated *domain.User
	err = s.withLock(ctx, "user:"+username, func() error {
		if err := s.usernameFree(ctx, username, current.ID); err != nil {
			return err
		}
		current.Username = username
		var err error
		updated, err = s.saveUser(ctx, current)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *AuctionService) saveUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	saved, err := s.store.Users().Save(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.Info("User updated", "user_id", saved.ID, "role", saved.Role)
	return saved, nil
}

// DeleteUser refuses to remove a user that still has bids.
func (s *AuctionService) DeleteUser(ctx context.Context, caller domain.Caller, id string) error {
	if err := Authorize(caller.Role, domain.ActionDeleteUser); err != nil {
		return err
	}
	if _, err := s.store.Users().FindByID(ctx, id); err != nil {
		return err
	}
	bids, err := s.store.Bids().FindByBidder(ctx, id)
	if err != nil {
		return err
	}
	if len(bids) > 0 {
		return conflict("user %s has %d bids", id, len(bids))
	}
	if err := s.store.Users().DeleteByID(ctx, id); err != nil {
		return err
	}

	s.log.Info("User deleted", "user_id", id, "caller_id", caller.UserID)
	return nil
}
