package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionTypeValid(t *testing.T) {
	tests := []struct {
		in   TransactionType
		want bool
	}{
		{TypeIncome, true},
		{TypeExpense, true},
		{TypeReimbursement, true},
		{TypeTransfer, true},
		{"", false},
		{"income", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Valid(), "Valid(%q)", tt.in)
	}
}

func TestReviewStatusPending(t *testing.T) {
	assert.True(t, StatusNeedsReview.Pending())
	assert.True(t, StatusSuggested.Pending())
	assert.False(t, StatusAutoOK.Pending())
	assert.False(t, StatusUserConfirmed.Pending())
	assert.False(t, ReviewStatus("DONE").Valid())
}

func TestAddTagIsSetLike(t *testing.T) {
	r := MasterRow{Tags: []string{}}
	r.AddTag(TagInternalTransfer)
	r.AddTag(TagInternalTransfer)
	r.AddTag(TagCheckSaldo)
	assert.Equal(t, []string{TagInternalTransfer, TagCheckSaldo}, r.Tags)
	assert.Equal(t, "INTERNAL_TRANSFER;CHECK_SALDO", r.TagString())
}

func TestCloneCopiesTags(t *testing.T) {
	r := MasterRow{Tags: []string{"A"}}
	c := r.Clone()
	c.AddTag("B")
	assert.Equal(t, []string{"A"}, r.Tags)
	assert.Equal(t, []string{"A", "B"}, c.Tags)
}

func TestStrDeref(t *testing.T) {
	assert.Nil(t, Str(""))
	assert.Equal(t, "x", Deref(Str("x")))
	assert.Equal(t, "", Deref(nil))
}
