package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgCreate   = "create"   // create session
	MsgList     = "list"     // list sessions
	MsgCheck    = "check"    // check if session exists
	MsgReady    = "ready"    // lobby ready toggle
	MsgRematch  = "rematch"  // restart after game over
	MsgPick     = "pick"     // choose a level-up upgrade
	MsgBuy      = "buy"      // buy a shop item
	MsgShopDone = "shop_done"
	MsgPause    = "pause"
	MsgResume   = "resume"
	MsgAbility  = "ability" // fire the AoE pulse ability
	MsgDash     = "dash"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgState       = "state"
	MsgWelcome     = "welcome"
	MsgDeath       = "death"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should navigate
	MsgError       = "error"
	MsgChecked     = "checked" // session check response
	MsgPhase       = "phase"   // lobby / playing / result
	MsgWave        = "wave"    // wave started or complete
	MsgLevelUp     = "levelup" // level-up choices offered
	MsgPicked      = "picked"
	MsgShop        = "shop" // shop items for this break
	MsgBought      = "bought"
	MsgPaused      = "paused"
	MsgGameOver    = "gameover"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgAchievement = "achievement"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages. json.RawMessage avoids double-unmarshal.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is sent by the client at 20Hz
type ClientInput struct {
	MX   float64 `json:"mx"`   // move direction X, -1..1
	MZ   float64 `json:"mz"`   // move direction Z, -1..1
	Aim  float64 `json:"aim"`  // aim angle in radians on the floor
	Fire bool    `json:"fire"` // trigger held
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
}

// IndexMsg selects a level-up choice or shop item
type IndexMsg struct {
	Index int `json:"i"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg logs into an account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries account stats
type ProfileDataMsg struct {
	Username     string   `json:"username"`
	Level        int      `json:"level"`
	XP           int      `json:"xp"`
	Runs         int      `json:"runs"`
	BestWave     int      `json:"best_wave"`
	Kills        int      `json:"kills"`
	Credits      int      `json:"credits"`
	Playtime     float64  `json:"playtime"`
	Achievements []string `json:"achievements"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"n" msgpack:"n"`
	X        float64 `json:"x" msgpack:"x"`
	Z        float64 `json:"z" msgpack:"z"`
	R        float64 `json:"r" msgpack:"r"` // aim radians
	HP       float64 `json:"hp" msgpack:"hp"`
	MaxHP    float64 `json:"mhp" msgpack:"mhp"`
	Shield   float64 `json:"sh" msgpack:"sh"`
	MaxSh    float64 `json:"msh" msgpack:"msh"`
	Energy   float64 `json:"en" msgpack:"en"`
	MaxEn    float64 `json:"men" msgpack:"men"`
	Level    int     `json:"lv" msgpack:"lv"`
	XP       float64 `json:"xp" msgpack:"xp"`
	XPNext   float64 `json:"xpn" msgpack:"xpn"`
	Credits  int     `json:"cr" msgpack:"cr"`
	Weapon   uint8   `json:"w" msgpack:"w"`
	Alive    bool    `json:"a" msgpack:"a"`
	Invuln   bool    `json:"inv,omitempty" msgpack:"inv,omitempty"`
	Kills    int     `json:"k" msgpack:"k"`
	Pulse    float64 `json:"pc,omitempty" msgpack:"pc,omitempty"` // pulse cooldown left
	HasDrone bool    `json:"dr,omitempty" msgpack:"dr,omitempty"`
}

// ProjectileState is broadcast per projectile
type ProjectileState struct {
	ID    string   `json:"id" msgpack:"id"`
	Kind  ShotKind `json:"k" msgpack:"k"`
	X     float64  `json:"x" msgpack:"x"`
	Z     float64  `json:"z" msgpack:"z"`
	R     float64  `json:"r" msgpack:"r"`
	Owner string   `json:"o" msgpack:"o"`
}

// BeamState is a laser beam fired this tick
type BeamState struct {
	Owner string  `json:"o" msgpack:"o"`
	X1    float64 `json:"x1" msgpack:"x1"`
	Z1    float64 `json:"z1" msgpack:"z1"`
	X2    float64 `json:"x2" msgpack:"x2"`
	Z2    float64 `json:"z2" msgpack:"z2"`
}

// EnemyState is broadcast per enemy
type EnemyState struct {
	ID    string  `json:"id" msgpack:"id"`
	Type  uint8   `json:"t" msgpack:"t"`
	X     float64 `json:"x" msgpack:"x"`
	Z     float64 `json:"z" msgpack:"z"`
	R     float64 `json:"r" msgpack:"r"`
	HP    float64 `json:"hp" msgpack:"hp"`
	MaxHP float64 `json:"mhp" msgpack:"mhp"`
	AI    uint8   `json:"ai" msgpack:"ai"`
}

// AsteroidState is broadcast per asteroid
type AsteroidState struct {
	ID string  `json:"id" msgpack:"id"`
	X  float64 `json:"x" msgpack:"x"`
	Z  float64 `json:"z" msgpack:"z"`
	R  float64 `json:"r" msgpack:"r"`
	S  float64 `json:"s" msgpack:"s"` // radius
}

// PickupState is broadcast per pickup
type PickupState struct {
	ID     string  `json:"id" msgpack:"id"`
	Kind   uint8   `json:"k" msgpack:"k"`
	X      float64 `json:"x" msgpack:"x"`
	Z      float64 `json:"z" msgpack:"z"`
	Amount float64 `json:"v" msgpack:"v"`
}

// WaveInfo is the HUD view of the wave manager
type WaveInfo struct {
	Wave     int     `json:"n" msgpack:"n"`
	State    string  `json:"s" msgpack:"s"`
	Spawned  int     `json:"sp" msgpack:"sp"`
	ToSpawn  int     `json:"ts" msgpack:"ts"`
	Alive    int     `json:"al" msgpack:"al"`
	Mult     float64 `json:"m" msgpack:"m"`
	CanPause bool    `json:"cp" msgpack:"cp"`
}

// GameState is the full state broadcast
type GameState struct {
	Players     []PlayerState     `json:"p" msgpack:"p"`
	Projectiles []ProjectileState `json:"pr" msgpack:"pr"`
	Beams       []BeamState       `json:"b,omitempty" msgpack:"b,omitempty"`
	Enemies     []EnemyState      `json:"e" msgpack:"e"`
	Asteroids   []AsteroidState   `json:"a,omitempty" msgpack:"a,omitempty"`
	Pickups     []PickupState     `json:"pk" msgpack:"pk"`
	Wave        WaveInfo          `json:"w" msgpack:"w"`
	Phase       int               `json:"ph" msgpack:"ph"`
	Tick        uint64            `json:"tick" msgpack:"tick"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID    string  `json:"id"`
	Arena float64 `json:"arena"` // arena radius
	Phase int     `json:"phase"`
}

// DeathMsg notifies a player their ship was destroyed
type DeathMsg struct {
	Wave   int    `json:"wave"`
	Source string `json:"src"` // enemy type or "boundary"
}

// PhaseMsg announces a session phase change
type PhaseMsg struct {
	Phase int `json:"phase"`
}

// WaveMsg announces wave lifecycle events
type WaveMsg struct {
	Wave    int     `json:"wave"`
	Event   string  `json:"event"` // "started" or "complete"
	Enemies int     `json:"enemies,omitempty"`
	Mult    float64 `json:"mult,omitempty"`
}

// UpgradeOffer is one upgrade as the client sees it
type UpgradeOffer struct {
	Index       int     `json:"i"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Description string  `json:"desc"`
	Amount      float64 `json:"amount,omitempty"`
	Level       int     `json:"level"`
	MaxLevel    int     `json:"max"`
	Price       int     `json:"price,omitempty"`
}

// NewUpgradeOffer converts an upgrade at position i
func NewUpgradeOffer(i int, u Upgrade) UpgradeOffer {
	return UpgradeOffer{
		Index:       i,
		Kind:        u.Kind.String(),
		Name:        u.Name,
		Description: u.Description,
		Amount:      u.Amount,
		Level:       u.Level,
		MaxLevel:    u.MaxLevel,
		Price:       u.Price(),
	}
}

// LevelUpMsg offers level-up choices
type LevelUpMsg struct {
	Level   int            `json:"level"`
	Pending int            `json:"pending"` // level-ups still to pick, including this one
	Choices []UpgradeOffer `json:"choices"`
}

// PickedMsg confirms a level-up pick
type PickedMsg struct {
	OK   bool   `json:"ok"`
	Name string `json:"name,omitempty"`
}

// ShopMsg lists shop items during the break between waves
type ShopMsg struct {
	Wave    int            `json:"wave"`
	Credits int            `json:"credits"`
	Items   []UpgradeOffer `json:"items"`
}

// BoughtMsg is the result of a purchase
type BoughtMsg struct {
	OK      bool   `json:"ok"`
	Name    string `json:"name,omitempty"`
	Credits int    `json:"credits"`
}

// PausedMsg announces a pause or resume
type PausedMsg struct {
	Paused bool   `json:"paused"`
	By     string `json:"by,omitempty"`
	Reason string `json:"reason,omitempty"` // "player" or "levelup"
}

// RunResult is one player's line in the game over summary
type RunResult struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Level   int     `json:"level"`
	Kills   int     `json:"kills"`
	Damage  float64 `json:"damage"`
	Credits int     `json:"credits"` // account credits earned
}

// GameOverMsg ends a run
type GameOverMsg struct {
	Wave     int         `json:"wave"`
	Duration float64     `json:"duration"`
	Players  []RunResult `json:"players"`
}

// AchievementMsg announces an unlocked achievement
type AchievementMsg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Wave    int    `json:"wave"`
	Phase   int    `json:"phase"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}
