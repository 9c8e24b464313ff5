package storetest

import (
	"context"
	"database/sql"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok || stored.Version != user.Version {
		return sql.ErrNoRows
	}

	user.Email = stored.Email
	user.CreatedAt = stored.CreatedAt
	user.Version++
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertUser(user)
}

func (s *Store) insertUser(user *domain.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}

	user.ID = s.id()
	user.IsDeleted = false
	user.CreatedAt = s.now()
	user.Version = 1
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *Store) CheckEmailIfExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.invitations {
		if existing.Email == inv.Email && !existing.Used {
			delete(s.invitations, id)
		}
	}

	inv.ID = s.id()
	inv.Used = false
	inv.CreatedAt = s.now()
	c := *inv
	s.invitations[inv.ID] = &c
	return nil
}

func (s *Store) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.invitations {
		if inv.Token == token {
			c := *inv
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) AcceptInvitation(ctx context.Context, inv *domain.Invitation, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.invitations[inv.ID]
	if !ok || stored.Used {
		return sql.ErrNoRows
	}
	if err := s.insertUser(user); err != nil {
		return err
	}

	stored.Used = true
	inv.Used = true
	return nil
}

// Invitations 按创建顺序返回所有邀请
func (s *Store) Invitations() []*domain.Invitation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Invitation, 0, len(s.invitations))
	for _, inv := range s.invitations {
		c := *inv
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
