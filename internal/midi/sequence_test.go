package midi

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func noteEvent(note int) Event {
	return Event{Type: "note", Ticks: 24, Note: intPtr(note)}
}

// TestNewSequenceRequest_ChannelBounds tests channel validation and the
// default channel fallback
func TestNewSequenceRequest_ChannelBounds(t *testing.T) {
	events := []Event{noteEvent(60)}

	tests := []struct {
		name        string
		channel     int
		wantChannel int
		wantErr     bool
	}{
		{"omitted channel defaults", 0, DefaultChannel, false},
		{"lowest channel", 1, 1, false},
		{"highest channel", 16, 16, false},
		{"negative channel", -1, 0, true},
		{"channel above range", 17, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request, err := NewSequenceRequest(tt.channel, events)
			if tt.wantErr {
				require.Error(t, err)

				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, ValidationOutOfRange, validationErr.Kind)
				assert.Equal(t, "channel", validationErr.Field)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantChannel, request.Channel)
		})
	}
}

// TestNewSequenceRequest_LengthBounds tests the sequence size limits
func TestNewSequenceRequest_LengthBounds(t *testing.T) {
	makeEvents := func(n int) []Event {
		events := make([]Event, n)
		for i := range events {
			events[i] = noteEvent(60)
		}
		return events
	}

	t.Run("empty sequence fails", func(t *testing.T) {
		_, err := NewSequenceRequest(1, nil)
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, ValidationEmpty, validationErr.Kind)
	})

	t.Run("one event succeeds", func(t *testing.T) {
		_, err := NewSequenceRequest(1, makeEvents(1))
		assert.NoError(t, err)
	})

	t.Run("max events succeeds", func(t *testing.T) {
		_, err := NewSequenceRequest(1, makeEvents(MaxEvents))
		assert.NoError(t, err)
	})

	t.Run("too many events fails", func(t *testing.T) {
		_, err := NewSequenceRequest(1, makeEvents(MaxEvents+1))
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, ValidationTooMany, validationErr.Kind)
		assert.Contains(t, err.Error(), fmt.Sprintf("%d", MaxEvents))
	})
}

// TestNewSequenceRequest_FailingEventIndex tests that the first invalid
// event aborts construction and its position is reported
func TestNewSequenceRequest_FailingEventIndex(t *testing.T) {
	events := []Event{
		noteEvent(60),
		{Type: "note", Ticks: 24}, // missing note number
		noteEvent(64),
	}

	_, err := NewSequenceRequest(1, events)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, validationErr.Index)
	assert.Contains(t, err.Error(), "sequence[1]:")
}

// TestNewSequenceRequest_PreservesOrder tests that event order survives
// normalization end to end
func TestNewSequenceRequest_PreservesOrder(t *testing.T) {
	events := []Event{
		noteEvent(60),
		{Type: "rest", Ticks: 12},
		noteEvent(64),
		noteEvent(67),
	}

	request, err := NewSequenceRequest(2, events)
	require.NoError(t, err)
	require.Len(t, request.Sequence, 4)

	assert.Equal(t, 60, *request.Sequence[0].Note)
	assert.Equal(t, "rest", request.Sequence[1].Type)
	assert.Equal(t, 64, *request.Sequence[2].Note)
	assert.Equal(t, 67, *request.Sequence[3].Note)
}

// TestSequenceRequest_WirePayload tests the exact device payload: absent
// optional fields are omitted entirely, never emitted as null
func TestSequenceRequest_WirePayload(t *testing.T) {
	request, err := NewSequenceRequest(1, []Event{
		noteEvent(60),
		{Type: "rest", Ticks: 12, Note: intPtr(99), Velocity: intPtr(50)},
	})
	require.NoError(t, err)

	data, err := json.Marshal(request)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"channel":1,"sequence":[{"type":"note","ticks":24,"note":60,"velocity":100},{"type":"rest","ticks":12}]}`,
		string(data))

	// The rest's payload must not contain the keys at all
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	rest := decoded["sequence"].([]any)[1].(map[string]any)
	assert.NotContains(t, rest, "note")
	assert.NotContains(t, rest, "velocity")
}

// TestSequenceRequest_Messages tests the raw-MIDI debug rendering
func TestSequenceRequest_Messages(t *testing.T) {
	request, err := NewSequenceRequest(2, []Event{
		noteEvent(60),
		{Type: "rest", Ticks: 12},
		{Type: "note", Ticks: 24, Note: intPtr(64), Velocity: intPtr(90)},
	})
	require.NoError(t, err)

	messages := request.Messages()
	require.Len(t, messages, 4)

	// Channel 2 maps to wire channel 1; rests emit nothing
	assert.Equal(t, gomidi.NoteOn(1, 60, 100), messages[0])
	assert.Equal(t, gomidi.NoteOff(1, 60), messages[1])
	assert.Equal(t, gomidi.NoteOn(1, 64, 90), messages[2])
	assert.Equal(t, gomidi.NoteOff(1, 64), messages[3])
}
