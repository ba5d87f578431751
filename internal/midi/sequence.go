package midi

import (
	"errors"

	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	// DefaultChannel is used when the caller omits a target channel.
	DefaultChannel = 1
	// MaxEvents bounds how many events the device will buffer in one upload.
	MaxEvents = 64

	MinChannel = 1
	MaxChannel = 16
)

// SequenceRequest is one validated upload: an ordered batch of events plus
// the channel the device should play them on. Construct it with
// NewSequenceRequest; a zero-value request is not valid. The JSON form is
// exactly the device wire payload, with absent optional fields omitted.
type SequenceRequest struct {
	Channel  int     `json:"channel"`
	Sequence []Event `json:"sequence"`
}

// NewSequenceRequest validates the channel, the sequence bounds, and each
// event in order. A channel of 0 means "not supplied" and falls back to
// DefaultChannel. The first failing event aborts construction and its
// position is recorded on the returned error.
func NewSequenceRequest(channel int, events []Event) (*SequenceRequest, error) {
	if channel == 0 {
		channel = DefaultChannel
	}
	if channel < MinChannel || channel > MaxChannel {
		return nil, outOfRange("channel", channel, MinChannel, MaxChannel)
	}
	if len(events) == 0 {
		return nil, emptyCollection("sequence")
	}
	if len(events) > MaxEvents {
		return nil, tooManyItems("sequence", MaxEvents)
	}

	normalized := make([]Event, len(events))
	for i, event := range events {
		n, err := NormalizeEvent(event)
		if err != nil {
			var validationErr *ValidationError
			if errors.As(err, &validationErr) {
				validationErr.Index = i
			}
			return nil, err
		}
		normalized[i] = n
	}

	return &SequenceRequest{Channel: channel, Sequence: normalized}, nil
}

// Messages renders the request as the raw MIDI messages the device will
// emit during playback, for debug traces. Rests produce no messages; the
// user-facing channel 1-16 maps to wire channel 0-15.
func (r *SequenceRequest) Messages() []gomidi.Message {
	wireChannel := uint8(r.Channel - 1)
	messages := make([]gomidi.Message, 0, 2*len(r.Sequence))

	for _, event := range r.Sequence {
		if EventKind(event.Type) != KindNote {
			continue
		}
		key := uint8(*event.Note)
		velocity := uint8(*event.Velocity)
		messages = append(messages,
			gomidi.NoteOn(wireChannel, key, velocity),
			gomidi.NoteOff(wireChannel, key))
	}

	return messages
}
