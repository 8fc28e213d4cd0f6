package model

// AccountType classifies where an account's money lives.
type AccountType string

const (
	AccountTypeBank AccountType = "BANK"
	AccountTypeCash AccountType = "CASH"
)

// Account is one money source of the household.
type Account struct {
	ID    string      `yaml:"id" json:"id"`
	Alias string      `yaml:"alias" json:"alias"`
	Last4 string      `yaml:"last4" json:"last4"`
	Type  AccountType `yaml:"type" json:"type"`
	Owner string      `yaml:"owner,omitempty" json:"owner,omitempty"`
}
