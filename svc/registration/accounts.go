package registration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// College is an institution an account belongs to.
type College struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Account is the durable record produced by finalization.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	College   College   `json:"college"`
	CreatedAt time.Time `json:"created_at"`
}

// FinalizeResult is what a completed registration returns, cached on the
// session so replays of the final step echo the same payload.
type FinalizeResult struct {
	AccessToken string  `json:"access_token"`
	Account     Account `json:"account"`
}

// CreateAccountParams carries everything finalization collected.
// CollegeID selects an existing college; when it is the zero UUID,
// CollegeName creates (or reuses by name) a new one in the same
// transaction as the account insert.
type CreateAccountParams struct {
	SessionID    string
	Email        string
	Phone        string
	Name         string
	Role         string
	PasswordHash []byte
	CollegeID    uuid.UUID
	CollegeName  string
	Position     string
	Department   string
}

// AccountStorage commits registrations. CreateAccount must be atomic and
// idempotent on SessionID: a replay with the same session returns the
// already-created account, while a different session reusing the email
// fails with ErrDuplicateAccount.
type AccountStorage interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error)
	GetCollege(ctx context.Context, id uuid.UUID) (*College, error)
}

// MemoryAccountStorage is the in-process AccountStorage for development
// and tests.
type MemoryAccountStorage struct {
	mu             sync.Mutex
	accounts       map[uuid.UUID]*Account
	bySession      map[string]uuid.UUID
	byEmail        map[string]uuid.UUID
	colleges       map[uuid.UUID]*College
	collegesByName map[string]uuid.UUID
}

// NewMemoryAccountStorage returns an empty storage.
func NewMemoryAccountStorage() *MemoryAccountStorage {
	return &MemoryAccountStorage{
		accounts:       make(map[uuid.UUID]*Account),
		bySession:      make(map[string]uuid.UUID),
		byEmail:        make(map[string]uuid.UUID),
		colleges:       make(map[uuid.UUID]*College),
		collegesByName: make(map[string]uuid.UUID),
	}
}

// SeedCollege inserts a college so tests and dev setups can reference it
// by id.
func (s *MemoryAccountStorage) SeedCollege(college College) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := college
	s.colleges[c.ID] = &c
	s.collegesByName[c.Name] = c.ID
}

func (s *MemoryAccountStorage) CreateAccount(_ context.Context, params CreateAccountParams) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.bySession[params.SessionID]; ok {
		acc := *s.accounts[id]
		return &acc, nil
	}
	if _, ok := s.byEmail[params.Email]; ok {
		return nil, ErrDuplicateAccount
	}

	var college *College
	if params.CollegeID != uuid.Nil {
		c, ok := s.colleges[params.CollegeID]
		if !ok {
			return nil, ErrCollegeNotFound
		}
		college = c
	} else {
		if id, ok := s.collegesByName[params.CollegeName]; ok {
			college = s.colleges[id]
		} else {
			college = &College{ID: uuid.New(), Name: params.CollegeName}
			s.colleges[college.ID] = college
			s.collegesByName[college.Name] = college.ID
		}
	}

	acc := &Account{
		ID:        uuid.New(),
		Email:     params.Email,
		Phone:     params.Phone,
		Name:      params.Name,
		Role:      params.Role,
		College:   *college,
		CreatedAt: time.Now(),
	}
	s.accounts[acc.ID] = acc
	s.bySession[params.SessionID] = acc.ID
	s.byEmail[acc.Email] = acc.ID
	result := *acc
	return &result, nil
}

func (s *MemoryAccountStorage) GetCollege(_ context.Context, id uuid.UUID) (*College, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colleges[id]
	if !ok {
		return nil, ErrCollegeNotFound
	}
	cp := *c
	return &cp, nil
}

// PasswordHasher abstracts credential hashing so tests can swap the
// bcrypt cost down.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// BcryptHasher hashes passwords with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost; zero or negative
// costs fall back to the bcrypt default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
