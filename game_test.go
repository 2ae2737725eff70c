package main

import (
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// mockBroadcaster captures sent messages for testing
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

// find returns the envelopes of type t in send order
func (m *mockBroadcaster) find(t string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, msg := range m.messages {
		if env, ok := msg.(Envelope); ok && env.T == t {
			out = append(out, env)
		}
	}
	return out
}

func testGameConfig() *GameConfig {
	cfg := DefaultConfig()
	cfg.Server.Seed = 42
	return cfg
}

// newTestGame creates a session with one connected player
func newTestGame(t *testing.T, cfg *GameConfig) (*Game, *Player, *mockBroadcaster) {
	t.Helper()
	g := NewGame("test", cfg, nil, nil)
	mock := &mockBroadcaster{}
	p := g.AddPlayer("Pilot", 0)
	if p == nil {
		t.Fatal("expected a player")
	}
	g.SetClient(p.ID, mock)
	return g, p, mock
}

// runToActive ticks until wave 1 is active
func runToActive(t *testing.T, g *Game) {
	t.Helper()
	for i := 0; i < 300; i++ {
		g.update()
		g.mu.RLock()
		active := g.waves.State == WaveActive
		g.mu.RUnlock()
		if active {
			return
		}
	}
	t.Fatal("wave never became active")
}

func TestGameAddRemovePlayer(t *testing.T) {
	g, p, _ := newTestGame(t, testGameConfig())
	if p.Name != "Pilot" {
		t.Errorf("expected name Pilot, got %s", p.Name)
	}
	if g.PlayerCount() != 1 || !g.HasPlayer(p.ID) {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
	if g.Phase() != PhasePlaying {
		t.Errorf("auto start should begin the run, got %s", g.Phase())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("expected 0 players, got %d", g.PlayerCount())
	}
	if g.Phase() != PhaseLobby {
		t.Errorf("empty session should return to the lobby, got %s", g.Phase())
	}
}

func TestGameMaxPlayers(t *testing.T) {
	cfg := testGameConfig()
	cfg.Server.MaxPlayers = 2
	g := NewGame("full", cfg, nil, nil)
	g.AddPlayer("A", 0)
	g.AddPlayer("B", 0)
	if p := g.AddPlayer("C", 0); p != nil {
		t.Error("third player should be rejected")
	}
}

func TestGameStartPositionsDiffer(t *testing.T) {
	g := NewGame("ring", testGameConfig(), nil, nil)
	a := g.AddPlayer("A", 0)
	b := g.AddPlayer("B", 0)
	if FlatDistance(a.Pos, b.Pos) < 1 {
		t.Errorf("ships should start apart, got %v and %v", a.Pos, b.Pos)
	}
}

func TestGameReadyStartsRun(t *testing.T) {
	cfg := testGameConfig()
	cfg.Server.AutoStart = false
	g := NewGame("lobby", cfg, nil, nil)
	a := g.AddPlayer("A", 0)
	b := g.AddPlayer("B", 0)
	if g.Phase() != PhaseLobby {
		t.Fatal("should wait in the lobby")
	}
	g.HandleReady(a.ID)
	if g.Phase() != PhaseLobby {
		t.Error("one ready player should not start the run")
	}
	g.HandleReady(b.ID)
	if g.Phase() != PhasePlaying {
		t.Error("all ready should start the run")
	}
	if g.HandleReady(a.ID) {
		t.Error("ready outside the lobby should be rejected")
	}
}

func TestGameHandleInput(t *testing.T) {
	g, p, _ := newTestGame(t, testGameConfig())
	g.HandleInput(p.ID, ClientInput{MX: 1, MZ: 0, Aim: 1.5, Fire: true})

	g.mu.RLock()
	player := g.players[p.ID]
	g.mu.RUnlock()

	if !player.Firing || player.MoveX != 1 || player.Aim != 1.5 {
		t.Errorf("input not applied: %+v", player)
	}
	g.HandleInput("nobody", ClientInput{Fire: true})
}

func TestGameBroadcastsState(t *testing.T) {
	g, p, mock := newTestGame(t, testGameConfig())
	for i := 0; i < 10; i++ {
		g.update()
	}
	if g.tick != 10 {
		t.Errorf("expected tick 10, got %d", g.tick)
	}

	mock.mu.Lock()
	frames := len(mock.frames)
	last := mock.frames[frames-1]
	mock.mu.Unlock()
	if frames != 10/BroadcastEvery {
		t.Errorf("expected %d state frames, got %d", 10/BroadcastEvery, frames)
	}

	var state GameState
	if err := msgpack.Unmarshal(last, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Players) != 1 || state.Players[0].ID != p.ID {
		t.Errorf("unexpected players %+v", state.Players)
	}
	if state.Phase != int(PhasePlaying) || state.Wave.Wave != 1 {
		t.Errorf("unexpected phase/wave %d/%d", state.Phase, state.Wave.Wave)
	}
	if len(state.Asteroids) != DefaultConfig().Arena.AsteroidCount {
		t.Errorf("expected asteroids in the frame, got %d", len(state.Asteroids))
	}
}

func TestGameFiresProjectiles(t *testing.T) {
	g, p, _ := newTestGame(t, testGameConfig())
	g.HandleInput(p.ID, ClientInput{Aim: 0, Fire: true})
	g.update()

	g.mu.RLock()
	projCount := len(g.projectiles)
	g.mu.RUnlock()
	if projCount != 1 {
		t.Errorf("expected 1 projectile, got %d", projCount)
	}
}

func TestGameWaveStarts(t *testing.T) {
	g, _, mock := newTestGame(t, testGameConfig())
	runToActive(t, g)

	if g.Wave() != 1 {
		t.Errorf("expected wave 1, got %d", g.Wave())
	}
	started := mock.find(MsgWave)
	if len(started) == 0 {
		t.Fatal("expected a wave message")
	}
	msg := started[0].Data.(WaveMsg)
	if msg.Event != "started" || msg.Enemies != 10 {
		t.Errorf("unexpected wave message %+v", msg)
	}
}

func TestGamePauseResume(t *testing.T) {
	g, p, mock := newTestGame(t, testGameConfig())
	if g.HandlePause(p.ID) {
		t.Error("preparing waves cannot be paused")
	}
	runToActive(t, g)

	if !g.HandlePause(p.ID) {
		t.Fatal("first pause should succeed")
	}
	if s := g.Snapshot(); s.Wave.State != "paused" || s.Wave.CanPause {
		t.Errorf("unexpected wave info %+v", s.Wave)
	}

	g.mu.RLock()
	elapsed := g.match.Elapsed
	g.mu.RUnlock()
	for i := 0; i < 30; i++ {
		g.update()
	}
	g.mu.RLock()
	frozen := g.match.Elapsed == elapsed
	g.mu.RUnlock()
	if !frozen {
		t.Error("a paused wave should freeze the arena")
	}

	if !g.HandleResume(p.ID) {
		t.Fatal("resume should succeed")
	}
	if g.HandlePause(p.ID) {
		t.Error("a wave may only be paused once")
	}
	if n := len(mock.find(MsgPaused)); n != 2 {
		t.Errorf("expected pause and resume broadcasts, got %d", n)
	}
}

func TestGameLevelupAutoPause(t *testing.T) {
	cfg := testGameConfig()
	cfg.Upgrades.ShuffleChoices = false
	g, p, mock := newTestGame(t, cfg)
	runToActive(t, g)

	g.mu.Lock()
	p.Stats.AddExperience(100)
	g.levelUp(p, 1)
	paused := g.waves.State == WavePaused
	g.mu.Unlock()

	if !paused {
		t.Fatal("level-up should pause the wave")
	}
	offers := mock.find(MsgLevelUp)
	if len(offers) != 1 || len(offers[0].Data.(LevelUpMsg).Choices) != 3 {
		t.Fatalf("expected three choices, got %+v", offers)
	}

	u, ok := g.HandlePick(p.ID, 0)
	if !ok {
		t.Fatal("pick should apply")
	}
	if u.Kind != UpgradeHealth || p.Stats.MaxHealth != 125 {
		t.Errorf("expected health upgrade, got %s with max %v", u.Kind, p.Stats.MaxHealth)
	}
	if g.Snapshot().Wave.State != "active" {
		t.Error("wave should resume once no picks are pending")
	}
	if _, ok := g.HandlePick(p.ID, 0); ok {
		t.Error("no pick should be pending")
	}
}

func TestGameWaveCompleteOpensShop(t *testing.T) {
	g, p, mock := newTestGame(t, testGameConfig())
	runToActive(t, g)

	g.mu.Lock()
	g.waves.EnemiesSpawned = g.waves.EnemiesToSpawn
	g.waves.EnemiesAlive = 0
	g.mu.Unlock()
	g.update()

	if g.Snapshot().Wave.State != "shop" {
		t.Fatalf("expected shop phase, got %s", g.Snapshot().Wave.State)
	}
	if p.FlawlessWaves != 1 {
		t.Errorf("undamaged wave should count as flawless, got %d", p.FlawlessWaves)
	}
	if len(mock.find(MsgShop)) != 1 {
		t.Error("expected a shop offer")
	}

	g.mu.Lock()
	p.Stats.AddCurrency(50)
	g.mu.Unlock()

	u, ok := g.HandleBuy(p.ID, 0)
	if !ok || u.Kind != UpgradeHealth {
		t.Fatalf("expected to buy health, got %+v %v", u, ok)
	}
	if g.Credits(p.ID) != 30 {
		t.Errorf("expected 30 credits left, got %d", g.Credits(p.ID))
	}
	if _, ok := g.HandleBuy(p.ID, 99); ok {
		t.Error("unknown item should fail")
	}

	if !g.HandleShopDone(p.ID) {
		t.Fatal("shop done should be accepted")
	}
	if g.Wave() != 2 || g.Snapshot().Wave.State != "preparing" {
		t.Errorf("expected wave 2 preparing, got %d %s", g.Wave(), g.Snapshot().Wave.State)
	}
	if _, ok := g.HandleBuy(p.ID, 0); ok {
		t.Error("buying outside the shop should fail")
	}
}

func TestGameEnemyKilledDropsLoot(t *testing.T) {
	g, p, _ := newTestGame(t, testGameConfig())
	runToActive(t, g)

	g.mu.Lock()
	e := testEnemy(EnemyTank, Vec3{X: 8})
	g.enemies[e.ID] = e
	g.waves.EnemiesAlive++
	e.TakeDamage(1000)
	g.enemyKilled(e, p)
	pickups := len(g.pickups)
	alive := g.waves.EnemiesAlive
	g.mu.Unlock()

	if p.Kills != 1 {
		t.Errorf("expected 1 kill, got %d", p.Kills)
	}
	if pickups < 2 {
		t.Errorf("expected experience and currency drops, got %d", pickups)
	}
	if alive != 0 {
		t.Errorf("kill should be counted by the wave, got %d alive", alive)
	}
}

func TestGameAbilityGating(t *testing.T) {
	g, p, _ := newTestGame(t, testGameConfig())
	if g.HandleAbility(p.ID) || g.HandleDash(p.ID) {
		t.Error("locked abilities should be rejected")
	}
	g.mu.Lock()
	p.Stats.Unlock(AbilityAoePulse)
	p.Stats.Unlock(AbilityDash)
	g.mu.Unlock()
	if !g.HandleAbility(p.ID) || !g.HandleDash(p.ID) {
		t.Error("unlocked abilities should be accepted")
	}
}

func TestGameOverAndRematch(t *testing.T) {
	g, p, mock := newTestGame(t, testGameConfig())
	g.update()

	if g.HandleRematch(p.ID) {
		t.Error("rematch during a run should be rejected")
	}

	g.mu.Lock()
	p.Stats.TakeDamage(1e6)
	g.mu.Unlock()
	g.update()

	if g.Phase() != PhaseResult {
		t.Fatalf("expected result phase, got %s", g.Phase())
	}
	over := mock.find(MsgGameOver)
	if len(over) != 1 {
		t.Fatalf("expected one game over message, got %d", len(over))
	}
	if res := over[0].Data.(GameOverMsg); res.Wave != 1 || len(res.Players) != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	if !g.HandleRematch(p.ID) {
		t.Fatal("rematch should be accepted")
	}
	if g.Phase() != PhasePlaying {
		t.Errorf("auto start should begin a new run, got %s", g.Phase())
	}
	g.mu.RLock()
	fresh := g.players[p.ID]
	g.mu.RUnlock()
	if !fresh.Alive() || fresh.Stats.Health != 100 || g.Wave() != 1 {
		t.Error("rematch should reset ships and waves")
	}
}

func TestGameOverRecordsStats(t *testing.T) {
	db := openTestDB(t)
	accountID, _ := db.CreatePlayer("ace", "h")

	g := NewGame("rec", testGameConfig(), db, nil)
	p := g.AddPlayer("ace", accountID)
	g.mu.Lock()
	p.Kills = 4
	p.Stats.TakeDamage(1e6)
	g.mu.Unlock()
	g.update()

	s, err := db.GetStats(accountID)
	if err != nil || s == nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Runs != 1 || s.Kills != 4 {
		t.Errorf("expected one recorded run with 4 kills, got %+v", s)
	}
	hist, _ := db.GetRunHistory(accountID, 5)
	if len(hist) != 1 {
		t.Errorf("expected one history row, got %d", len(hist))
	}
}
