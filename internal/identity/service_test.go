package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playpass/pkg/domainerrors"
)

func validAttributes() Attributes {
	return Attributes{
		GuardianName:  "Maria Lopez",
		GuardianID:    "CC-1023456789",
		ContactNumber: "3001234567",
		ChildName:     "Sofia Lopez",
		ChildID:       "TI-2015040512",
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryStore())

	first, isNew, err := svc.Register(ctx, validAttributes())
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.NotEmpty(t, first.Key)
	assert.Equal(t, "Sofia Lopez", first.DisplayName)

	second, isNew, err := svc.Register(ctx, validAttributes())
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, first.RegisteredAt, second.RegisteredAt)
}

func TestRegisterRejectsBlankAttributes(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryStore())

	attrs := validAttributes()
	attrs.ContactNumber = "   "
	_, _, err := svc.Register(ctx, attrs)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeValidation))
}

func TestDeriveKeyIsStableAndSeparatorSafe(t *testing.T) {
	a := validAttributes()
	assert.Equal(t, DeriveKey(a), DeriveKey(a))

	// Trimming must not change the derived key.
	padded := a
	padded.ChildName = "  " + a.ChildName + " "
	assert.Equal(t, DeriveKey(a), DeriveKey(padded))

	// Shifting characters between adjacent fields must change it.
	shifted := a
	shifted.GuardianID = a.GuardianID + "3"
	shifted.ContactNumber = a.ContactNumber[1:]
	assert.NotEqual(t, DeriveKey(a), DeriveKey(shifted))
}

func TestLookupUnknownKey(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryStore())

	_, err := svc.Lookup(ctx, "deadbeef00000000")
	assert.True(t, domainerrors.Is(err, domainerrors.CodeNotFound))
}

type failingStore struct{ err error }

func (f failingStore) Create(context.Context, Record) error { return f.err }
func (f failingStore) FindByKey(context.Context, string) (Record, error) {
	return Record{}, f.err
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(failingStore{err: errors.New("connection reset")})

	_, _, err := svc.Register(ctx, validAttributes())
	assert.True(t, domainerrors.Is(err, domainerrors.CodeStoreUnavailable))

	_, err = svc.Lookup(ctx, "any")
	assert.True(t, domainerrors.Is(err, domainerrors.CodeStoreUnavailable))
}

func TestRegisterUsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	svc := NewService(NewInMemoryStore(), WithClock(func() time.Time { return fixed }))

	record, _, err := svc.Register(ctx, validAttributes())
	require.NoError(t, err)
	assert.Equal(t, fixed, record.RegisteredAt)
}
