// Package reference turns booking ids into short public codes and back.
package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	DefaultMinLength = 8
	alphabet         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrInvalid = errors.New("invalid booking reference")

type Encoder struct {
	h *hashids.HashID
}

func New(salt string, minLength int) (*Encoder, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = minLength
	hd.Alphabet = alphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("init hashids: %w", err)
	}
	return &Encoder{h: h}, nil
}

func (e *Encoder) Encode(id int64) (string, error) {
	return e.h.EncodeInt64([]int64{id})
}

// Decode is case-insensitive, since codes get read out over the phone.
func (e *Encoder) Decode(ref string) (int64, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if ref == "" {
		return 0, ErrInvalid
	}
	ids, err := e.h.DecodeInt64WithError(ref)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalid
	}
	// hashids accepts some strings that do not round-trip
	if again, err := e.Encode(ids[0]); err != nil || again != ref {
		return 0, ErrInvalid
	}
	return ids[0], nil
}
