package session

import "github.com/google/uuid"

// ClientEvent is the interface implemented by every event a Session
// delivers upstream, per spec.md §6 "Core exposes to surroundings".
type ClientEvent interface{ clientEvent() }

// LoggedIn is emitted once a session completes Login and transitions to
// Play.
type LoggedIn struct {
	UUID     uuid.UUID
	Username string
}

// Logout is emitted when a session leaves Play for any reason.
type Logout struct {
	Reason string
}

// ChatMessage carries a player's typed chat line.
type ChatMessage struct {
	Message string
}

// PlayerPosition carries a reported absolute position.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

// PlayerRotation carries a reported yaw/pitch.
type PlayerRotation struct {
	Yaw, Pitch float32
	OnGround   bool
}

// EntityAction carries a sneak/sprint/jump action id.
type EntityAction struct {
	ActionID  int32
	JumpBoost int32
}

// Animation carries a swing-arm hand selector.
type Animation struct {
	Hand int32
}

// PlayerAbilities carries the client's reported flight toggle flags.
type PlayerAbilities struct {
	Flags byte
}

// Ping carries the measured round-trip time of the most recent KeepAlive
// exchange.
type Ping struct {
	RoundTrip int64 // milliseconds
}

func (LoggedIn) clientEvent()        {}
func (Logout) clientEvent()          {}
func (ChatMessage) clientEvent()     {}
func (PlayerPosition) clientEvent()  {}
func (PlayerRotation) clientEvent()  {}
func (EntityAction) clientEvent()    {}
func (Animation) clientEvent()       {}
func (PlayerAbilities) clientEvent() {}
func (Ping) clientEvent()            {}
