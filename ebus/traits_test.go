package ebus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraits_Validate(t *testing.T) {
	assert.NoError(t, Traits[recorder, NullID]{}.Validate(), "Zero value traits describe a single address bus")
	assert.NoError(t, Traits[recorder, string]{Addressing: ByID, Locking: Lockless}.Validate())
	assert.NoError(t, Traits[recorder, int]{
		Addressing: ByIDAndOrdered,
		IDLess:     func(a, b int) bool { return a < b },
		Handlers:   MultipleAndOrdered,
		HandlerLess: func(a, b recorder) bool {
			return a.Value() < b.Value()
		},
		EnableEventQueue:          true,
		QueueingInactiveByDefault: true,
		QueueLocking:              QueueLockMutex,
	}.Validate())

	tests := map[string]error{
		"Single with ID":        Traits[recorder, int]{Addressing: Single}.Validate(),
		"ByID with NullID":      Traits[recorder, NullID]{Addressing: ByID}.Validate(),
		"Ordered without less":  Traits[recorder, int]{Addressing: ByIDAndOrdered}.Validate(),
		"Less without ordering": Traits[recorder, int]{Addressing: ByID, IDLess: func(a, b int) bool { return a < b }}.Validate(),
		"Ordered handlers":      Traits[recorder, NullID]{Handlers: MultipleAndOrdered}.Validate(),
		"Unknown lock policy":   Traits[recorder, NullID]{Locking: LockPolicy(42)}.Validate(),
		"Queue options":         Traits[recorder, NullID]{EnableQueuedReferences: true}.Validate(),
	}
	for name, err := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, err, ErrInvalidTraits)
		})
	}
}

func TestTraits_Validate_CollectsAll(t *testing.T) {
	err := Traits[recorder, NullID]{
		Addressing:                ByIDAndOrdered,
		Handlers:                  MultipleAndOrdered,
		QueueingInactiveByDefault: true,
	}.Validate()
	require.ErrorIs(t, err, ErrInvalidTraits)
	assert.Contains(t, err.Error(), "NullID")
	assert.Contains(t, err.Error(), "IDLess")
	assert.Contains(t, err.Error(), "HandlerLess")
	assert.Contains(t, err.Error(), "EnableEventQueue")
}

func TestNew_Defaults(t *testing.T) {
	bus, err := New(Traits[recorder, NullID]{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBusName, bus.Name())
	assert.NotNil(t, bus.Traits().Logger)

	_, err = New(Traits[recorder, int]{})
	assert.ErrorIs(t, err, ErrInvalidTraits)
	assert.Panics(t, func() {
		MustNew(Traits[recorder, int]{})
	})
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "by-id-ordered", ByIDAndOrdered.String())
	assert.Equal(t, "multiple-ordered", MultipleAndOrdered.String())
	assert.Equal(t, "lockless", Lockless.String())
	assert.Equal(t, "unknown", LockPolicy(-1).String())
}
