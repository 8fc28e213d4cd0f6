package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

func TestNewService(t *testing.T) {
	accts := Default()
	svc := NewService(accts)

	assert.Len(t, svc.All(), len(accts))
}

func TestGetExists(t *testing.T) {
	svc := NewService(Default())

	acct, ok := svc.Get(RevolutSamuel)
	assert.True(t, ok)
	assert.Equal(t, "2222", acct.Last4)

	_, ok = svc.Get("NOPE")
	assert.False(t, ok)

	assert.True(t, svc.Exists(Cash))
	assert.False(t, svc.Exists("NOPE"))
}

func TestLast4(t *testing.T) {
	svc := NewService(Default())

	assert.Equal(t, "1111", svc.Last4(RevolutJoint))
	assert.Equal(t, "CASH", svc.Last4(Cash))
	assert.Equal(t, UnknownLast4, svc.Last4("UNKNOWN"))
}

func TestByType(t *testing.T) {
	svc := NewService(Default())

	banks := svc.ByType(model.AccountTypeBank)
	assert.Len(t, banks, 4)
	cash := svc.ByType(model.AccountTypeCash)
	assert.Len(t, cash, 1)
	assert.Len(t, svc.WithPrefix(RevolutPrefix), 3)
}

func TestForFileName(t *testing.T) {
	svc := NewService(Default())

	tests := []struct {
		file string
		want string
	}{
		{"revolut_samuel_feb.csv", RevolutSamuel},
		{"Andrea-2026-02.csv", RevolutAndrea},
		{"cuenta_compartida.csv", RevolutJoint},
		{"pareja.csv", RevolutJoint},
		{"statement.csv", RevolutJoint},
	}
	for _, tt := range tests {
		acct, ok := svc.ForFileName(RevolutPrefix, tt.file)
		assert.True(t, ok, tt.file)
		assert.Equal(t, tt.want, acct.ID, tt.file)
	}
}

func TestForFileName_NoCandidates(t *testing.T) {
	svc := NewService([]model.Account{{ID: BBVA, Owner: OwnerJoint}})

	_, ok := svc.ForFileName(RevolutPrefix, "samuel.csv")
	assert.False(t, ok)
}
