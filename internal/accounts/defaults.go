package accounts

import "github.com/SamuelPereira26/Finhouse/internal/model"

// Well-known account ids.
const (
	BBVA          = "BBVA"
	RevolutJoint  = "REVOLUT_JOINT"
	RevolutSamuel = "REVOLUT_SAMUEL"
	RevolutAndrea = "REVOLUT_ANDREA"
	Cash          = "CASH"

	RevolutPrefix = "REVOLUT_"
)

// Default returns the household's accounts used when the config lists none.
func Default() []model.Account {
	return []model.Account{
		{ID: BBVA, Alias: "BBVA", Last4: "0000", Type: model.AccountTypeBank, Owner: OwnerJoint},
		{ID: RevolutJoint, Alias: "REVOLUT_JOINT", Last4: "1111", Type: model.AccountTypeBank, Owner: OwnerJoint},
		{ID: RevolutSamuel, Alias: "REVOLUT_SAMUEL", Last4: "2222", Type: model.AccountTypeBank, Owner: "SAMUEL"},
		{ID: RevolutAndrea, Alias: "REVOLUT_ANDREA", Last4: "3333", Type: model.AccountTypeBank, Owner: "ANDREA"},
		{ID: Cash, Alias: "CASH", Last4: "CASH", Type: model.AccountTypeCash, Owner: OwnerJoint},
	}
}
