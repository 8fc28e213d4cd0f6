package accounts

import (
	"sort"
	"strings"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

// OwnerJoint marks accounts shared by the household.
const OwnerJoint = "JOINT"

// UnknownLast4 is used for account ids missing from the registry.
const UnknownLast4 = "0000"

// Service provides in-memory lookup over the household's accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Last4 returns the last four digits used in transaction fingerprints.
func (s *Service) Last4(id string) string {
	if a, ok := s.byID[id]; ok {
		return a.Last4
	}
	return UnknownLast4
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// WithPrefix returns the accounts whose id starts with prefix, e.g. "REVOLUT_".
func (s *Service) WithPrefix(prefix string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if strings.HasPrefix(a.ID, prefix) {
			result = append(result, a)
		}
	}
	return result
}

// ForFileName picks the account among those with prefix whose owner is named
// in fileName. Anything else ("joint", "compartida", no hint at all) resolves
// to the joint account.
func (s *Service) ForFileName(prefix, fileName string) (model.Account, bool) {
	lower := strings.ToLower(fileName)
	candidates := s.WithPrefix(prefix)

	// Longer owner names first so "ANA" never shadows "ANABEL".
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Owner) > len(candidates[j].Owner)
	})

	for _, a := range candidates {
		if a.Owner == "" || a.Owner == OwnerJoint {
			continue
		}
		if strings.Contains(lower, strings.ToLower(a.Owner)) {
			return a, true
		}
	}

	for _, a := range candidates {
		if a.Owner == OwnerJoint {
			return a, true
		}
	}
	return model.Account{}, false
}
