// Package wire defines the JSON envelope exchanged between the bridge and a
// local automation endpoint, and the vocabulary shared with the hosted game.
//
// Every relay message is exactly one JSON object. Outbound traffic (bridge to
// endpoint) is always an Envelope. Inbound traffic is either an Envelope
// (configuration updates) or an action command:
//
//	{"event": "nextTurn", "data": ["peer-1", "ab"]}
//	{"event": "configUpdate", "data": {"autojoin": true}}
//	{"action": "escribir_palabra", "word": "abeja"}
//
// The vocabulary below is coupled by hand to an external game; keep it in
// this file only.
package wire

import "encoding/json"

// Relay event names produced or consumed by the bridge itself.
const (
	EventConfigUpdate  = "configUpdate"
	EventInitialConfig = "initialConfig"
	EventCustomMessage = "customMessage"
	EventSetup         = "setup"
)

// SnapshotEvent is the game event carrying a full state description. The most
// recent one is cached and replayed to a freshly connected endpoint.
const SnapshotEvent = EventSetup

// RelayedEvents is the allow-list of game events forwarded to the endpoint.
var RelayedEvents = []string{
	"setup",
	"nextTurn",
	"correctWord",
	"failWord",
	"setMilestone",
	"setPlayerWord",
	"livesLost",
	"bonusAlphabetCompleted",
	"setRules",
	"addPlayer",
	"removePlayer",
}

var relayed = func() map[string]struct{} {
	m := make(map[string]struct{}, len(RelayedEvents))
	for _, name := range RelayedEvents {
		m[name] = struct{}{}
	}
	return m
}()

// IsRelayed reports whether a game event with the given name is forwarded.
func IsRelayed(name string) bool {
	_, ok := relayed[name]
	return ok
}

// Action is the discriminator of an inbound command.
type Action string

// Inbound command actions, as sent by the automation endpoint.
const (
	ActionSubmitWord Action = "escribir_palabra"
	ActionTypeText   Action = "teclear_texto"
	ActionJoinRound  Action = "unirse_juego"
)

// Outbound game channel calls the commands map onto.
const (
	GameSetWord   = "setWord"
	GameJoinRound = "joinRound"
)

// Envelope is the transport-agnostic unit relayed to and from the endpoint.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Command is an inbound action request. Word and Text are pointers so a
// missing field can be told apart from an empty string.
type Command struct {
	Action Action  `json:"action"`
	Word   *string `json:"word,omitempty"`
	Text   *string `json:"text,omitempty"`
}

// Inbound is the union of everything the endpoint may send. Exactly one of
// Command or Envelope is non-nil.
type Inbound struct {
	Command  *Command
	Envelope *Envelope
}
