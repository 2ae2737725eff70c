package main

import "time"

// MatchPhase represents the lifecycle of a run
type MatchPhase int

const (
	PhaseLobby   MatchPhase = 0
	PhasePlaying MatchPhase = 1
	PhaseResult  MatchPhase = 2
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlaying:
		return "playing"
	case PhaseResult:
		return "result"
	}
	return "unknown"
}

// MatchState holds the current run state of a session
type MatchState struct {
	Phase        MatchPhase
	RunID        string
	StartedAt    time.Time
	Elapsed      float64 // seconds of simulated play
	ReadyPlayers map[string]bool
	BestWave     int // highest wave completed
	PauseReason  string
	PausedBy     string
}

// NewMatchState creates a lobby state
func NewMatchState() MatchState {
	return MatchState{
		Phase:        PhaseLobby,
		ReadyPlayers: make(map[string]bool),
	}
}

// AllReady reports whether every connected player is ready
func (ms *MatchState) AllReady(players map[string]*Player) bool {
	if len(players) == 0 {
		return false
	}
	for id := range players {
		if !ms.ReadyPlayers[id] {
			return false
		}
	}
	return true
}

// Begin enters Playing with a fresh run id
func (ms *MatchState) Begin(now time.Time) {
	ms.Phase = PhasePlaying
	ms.RunID = GenerateUUID()
	ms.StartedAt = now
	ms.Elapsed = 0
	ms.BestWave = 0
	ms.PauseReason = ""
	ms.PausedBy = ""
}

// ResetLobby returns to the lobby for a rematch
func (ms *MatchState) ResetLobby() {
	ms.Phase = PhaseLobby
	ms.ReadyPlayers = make(map[string]bool)
	ms.PauseReason = ""
	ms.PausedBy = ""
}

// PlayerMatchStats is the per-player summary recorded at game over
type PlayerMatchStats struct {
	Kills         int
	Level         int
	DamageTaken   float64
	FlawlessWaves int
	Purchases     int
	Credits       int
}

// SummaryFor builds the run summary of one player
func SummaryFor(p *Player, wave int) PlayerMatchStats {
	return PlayerMatchStats{
		Kills:         p.Kills,
		Level:         p.Stats.Level,
		DamageTaken:   p.DamageTaken,
		FlawlessWaves: p.FlawlessWaves,
		Purchases:     p.Purchases,
		Credits:       CreditsPerRun(wave, p.Kills, p.FlawlessWaves),
	}
}
