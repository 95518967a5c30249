package application

import (
	"errors"
	"fmt"

	"github.com/enterprise/user-service/internal/domain/entity"
	"github.com/enterprise/user-service/pkg/helpers"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credential is a plain-text account definition read from configuration.
type Credential struct {
	Username string
	Password string
	Roles    []string
}

// AuthService checks Basic credentials against accounts held in memory.
type AuthService struct {
	accounts map[string]*entity.Account
	// dummyHash is compared for unknown usernames so both paths cost one bcrypt run.
	dummyHash string
}

// NewAuthService hashes every credential once; plain passwords are not kept.
func NewAuthService(creds ...Credential) (*AuthService, error) {
	s := &AuthService{accounts: make(map[string]*entity.Account, len(creds))}
	for _, c := range creds {
		if c.Username == "" || c.Password == "" {
			return nil, fmt.Errorf("account %q: username and password are required", c.Username)
		}
		if _, dup := s.accounts[c.Username]; dup {
			return nil, fmt.Errorf("account %q defined twice", c.Username)
		}
		hash, err := helpers.HashPassword(c.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", c.Username, err)
		}
		s.accounts[c.Username] = &entity.Account{Username: c.Username, PasswordHash: hash, Roles: c.Roles}
	}
	dummy, err := helpers.HashPassword("not-a-real-password")
	if err != nil {
		return nil, err
	}
	s.dummyHash = dummy
	return s, nil
}

// Authenticate returns the account when username and password match.
func (s *AuthService) Authenticate(username, password string) (*entity.Account, error) {
	acc, ok := s.accounts[username]
	if !ok {
		_ = helpers.CompareHashAndPassword(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(acc.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}
