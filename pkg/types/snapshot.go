package types

// RoomSnapshot is what the room/session layer pushes whenever game state
// changes. Missing fields are tolerated: an empty phase maps to the
// configured default phase and a nil player list to an empty roster.
//
//   phase: "LOBBY" | "DAY_DEBATE" | "DAY_VOTE" | "NIGHT" | "NIGHT_SABOTEURS" | ...
//   players: [{ id, name, alive, has_video, has_audio }]
type RoomSnapshot struct {
	Phase   string   `json:"phase,omitempty" yaml:"phase,omitempty"`
	Players []Player `json:"players,omitempty" yaml:"players,omitempty"`
}

type Player struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Alive    bool   `json:"alive" yaml:"alive"`
	HasVideo bool   `json:"has_video,omitempty" yaml:"has_video,omitempty"`
	HasAudio bool   `json:"has_audio,omitempty" yaml:"has_audio,omitempty"`
}
