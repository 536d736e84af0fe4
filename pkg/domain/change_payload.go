package domain

import (
	"encoding/json"
	"errors"
)

// ErrEmptyChangePayload is returned when decoding a payload that carries no
// snapshot, such as the Before side of a batch creation.
var ErrEmptyChangePayload = errors.New("change payload is empty")

// ChangePayload is the JSON image of a batch, ledger entry or certificate on
// one side of a committed change. A created batch or an appended transfer has
// only an After image; price and status updates carry both.
type ChangePayload struct {
	set  bool
	body json.RawMessage
}

// NewChangePayload wraps an encoded image. The bytes are copied. A nil slice
// yields a set but empty payload, which is distinct from
// UndefinedChangePayload.
func NewChangePayload(body json.RawMessage) ChangePayload {
	p := ChangePayload{set: true}
	if body != nil {
		p.body = append(json.RawMessage(nil), body...)
	}
	return p
}

// NewChangePayloadFromValue encodes a Batch, Transfer or GradingCertificate
// as a change image.
func NewChangePayloadFromValue[T any](value T) (ChangePayload, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return ChangePayload{}, err
	}
	return NewChangePayload(body), nil
}

// UndefinedChangePayload marks the missing side of a change.
func UndefinedChangePayload() ChangePayload {
	return ChangePayload{}
}

// Defined reports whether the store recorded this side of the change.
func (p ChangePayload) Defined() bool {
	return p.set
}

// IsEmpty reports whether there is no image to decode.
func (p ChangePayload) IsEmpty() bool {
	return !p.set || len(p.body) == 0
}

// Raw returns a copy of the encoded image, or nil when empty.
func (p ChangePayload) Raw() json.RawMessage {
	if p.IsEmpty() {
		return nil
	}
	return append(json.RawMessage(nil), p.body...)
}

// DecodeChangePayload decodes the image into the entity type the rule
// expects. Empty payloads return ErrEmptyChangePayload.
func DecodeChangePayload[T any](p ChangePayload) (T, error) {
	var out T
	if p.IsEmpty() {
		return out, ErrEmptyChangePayload
	}
	err := json.Unmarshal(p.body, &out)
	return out, err
}
