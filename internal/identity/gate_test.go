package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/database"
	"jobboard/internal/database/dbtest"
	"jobboard/internal/errcode"
)

var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newGate(t *testing.T) (*Gate, func(any)) {
	t.Helper()
	db := dbtest.New(t)
	gate := NewGate(db, WithClock(func() time.Time { return fixedNow }))
	return gate, func(v any) {
		require.NoError(t, db.Create(v).Error)
	}
}

func TestCheckAadhaar(t *testing.T) {
	gate, insert := newGate(t)
	ctx := context.Background()

	res, err := gate.CheckAadhaar(ctx, "1234-5678")
	require.NoError(t, err)
	assert.False(t, res.Exists)

	insert(&database.Job{
		Title: "Cook", Description: "d", Company: "c", PostedBy: "p",
		AadharNumber: "1234-5678", AadharFileURL: "https://files/a.pdf",
		Status: "rejected", CreatedAt: fixedNow.AddDate(0, -3, 0),
	})

	res, err = gate.CheckAadhaar(ctx, " 1234-5678 ")
	require.NoError(t, err)
	assert.True(t, res.Exists, "any prior job with the number counts regardless of status or age")
}

func TestCheckAadhaarRequiresNumber(t *testing.T) {
	gate, _ := newGate(t)
	_, err := gate.CheckAadhaar(context.Background(), "  ")
	assert.Equal(t, errcode.CodeValidation, errcode.CodeOf(err))
}

func TestCheckPhoneNoMatch(t *testing.T) {
	gate, _ := newGate(t)
	res, err := gate.CheckPhone(context.Background(), "9999")
	require.NoError(t, err)
	assert.Equal(t, PhoneResult{}, res)
}

func seeker(phone string, created time.Time, status string) *database.JobSeeker {
	return &database.JobSeeker{
		Name: "S", ContactNumber: phone, Email: "s@example.com",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      status, CreatedAt: created,
	}
}

func TestCheckPhoneRecentMatchIsFree(t *testing.T) {
	gate, insert := newGate(t)
	insert(seeker("555", fixedNow.AddDate(0, 0, -3), "approved"))

	res, err := gate.CheckPhone(context.Background(), "555")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.False(t, res.Expired)
	assert.False(t, res.NeedsPayment)
	require.NotNil(t, res.Status)
	assert.Equal(t, "approved", *res.Status)
}

func TestCheckPhoneUsesMostRecentMatch(t *testing.T) {
	gate, insert := newGate(t)
	insert(seeker("777", fixedNow.AddDate(0, 0, -30), "approved"))
	insert(seeker("777", fixedNow.AddDate(0, 0, -10), ""))

	res, err := gate.CheckPhone(context.Background(), "777")
	require.NoError(t, err)
	assert.True(t, res.Expired)
	assert.True(t, res.NeedsPayment)
	require.NotNil(t, res.CreatedAt)
	assert.True(t, res.CreatedAt.Equal(fixedNow.AddDate(0, 0, -10)))
	assert.Equal(t, "pending", *res.Status)
}
