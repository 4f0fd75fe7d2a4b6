// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package sim contains the minimal park simulation state and the
// generic game command channel the scripting host mutates it through.
package sim

import "time"

// State is the live park state. It is owned by the simulation
// goroutine: all reads and writes happen on that goroutine, once per
// tick, so no locking is required. Mutations go through game commands
// to stay deterministic across network peers.
type State struct {
	ParkName    string
	Money       int64 // in cents, can go negative
	Loan        int64
	GuestCount  int
	LitterCount int
	Rating      int // 0..999
	Rides       []Ride

	Tick int64 // simulation ticks since park open
	Day  int   // in-game day
}

// Ride is one ride in the park.
type Ride struct {
	ID         int
	Name       string
	BrokenDown bool
	Inspection time.Duration // interval between inspections
}

// NewState creates a park with sensible opening-day defaults.
func NewState(parkName string) *State {
	return &State{
		ParkName: parkName,
		Money:    100_000,
		Rating:   500,
		Rides: []Ride{
			{ID: 0, Name: "Wooden Rollercoaster", Inspection: 30 * time.Minute},
			{ID: 1, Name: "Haunted House", Inspection: 30 * time.Minute},
		},
	}
}

// Advance moves the simulation forward one tick. A day is 16384 ticks,
// matching the classic park clock. Returns true when the day rolled
// over.
func (s *State) Advance() bool {
	s.Tick++
	if s.Tick%ticksPerDay == 0 {
		s.Day++
		return true
	}
	return false
}

const ticksPerDay = 16384

// SessionMode describes the multiplayer role of this process.
type SessionMode uint8

// Session modes.
const (
	ModeNone SessionMode = iota
	ModeClient
	ModeServer
)

func (m SessionMode) String() string {
	switch m {
	case ModeClient:
		return "client"
	case ModeServer:
		return "server"
	default:
		return "none"
	}
}

// Player is one connected peer in a multiplayer session.
type Player struct {
	ID    int
	Name  string
	Group int
}

// Session is the read-only network session view exposed to scripts
// through the network capability.
type Session struct {
	Mode    SessionMode
	Players []Player
}
