package domain

import (
	"time"
)

// SanctionState is the account standing derived from the player flags.
// Exactly one state holds at a time.
type SanctionState int

const (
	StateNormal SanctionState = iota
	StateRestricted
	StateBanned
)

func (s SanctionState) String() string {
	switch s {
	case StateRestricted:
		return "restricted"
	case StateBanned:
		return "banned"
	}
	return "normal"
}

type Player struct {
	ID       int64
	Username string
	// SafeName is the normalized form of Username: lowercase, spaces
	// replaced with underscores. Unique across all players.
	SafeName string
	Country  string

	Banned   bool
	Warnings int

	PendingVerification bool

	DonorExpiry time.Time
	Subscriber  bool

	LastVisit time.Time
}

// State derives the sanction state from the flags. A banned player is
// reported as banned even if a warning is also set.
func (p *Player) State() SanctionState {
	if p.Banned {
		return StateBanned
	}
	if p.Warnings != 0 {
		return StateRestricted
	}
	return StateNormal
}

func (p *Player) IsRestricted() bool {
	return p.Warnings != 0
}

// HasKnownCountry reports whether the player has a usable country code.
// "XX" is the placeholder for players whose country could not be determined.
func (p *Player) HasKnownCountry() bool {
	return p.Country != "" && p.Country != UnknownCountry
}

const UnknownCountry = "XX"
