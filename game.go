package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const (
	maxProjectilesPerSession = 600
	maxPickupsPerSession     = 300
	startRingRadius          = 2.0 // ships start on a ring around the center
	gridMargin               = 5.0
	gridSlack                = 0.5 // enemies move after the grid is built
)

// Pause reasons
const (
	PauseByPlayer  = "player"
	PauseByLevelup = "levelup"
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game holds the state for one survival session. The session goroutine
// owns the tick; every exported method takes the mutex.
type Game struct {
	mu  sync.RWMutex
	id  string
	cfg *GameConfig
	rng *rand.Rand

	match   MatchState
	waves   *WaveManager
	catalog *EnemyCatalog
	loot    LootTable
	center  Vec3

	players     map[string]*Player
	enemies     map[string]*Enemy
	projectiles map[string]*Projectile
	missiles    map[string]*HomingMissile
	pickups     map[string]*Pickup
	asteroids   []*Asteroid
	beams       []BeamState

	grid      *SpatialGrid
	enemyList []*Enemy
	refBuf    []EntityRef
	maxRadius float64 // largest enemy radius, for grid queries

	clients   map[string]Broadcaster // playerID -> client
	db        *DB
	analytics *Analytics

	tick    uint64
	stopped bool
	stop    chan struct{}
}

// NewGame creates a session in the lobby. db and analytics may be nil.
func NewGame(id string, cfg *GameConfig, db *DB, analytics *Analytics) *Game {
	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	extent := math.Max(cfg.Arena.SpawnRadius, math.Max(cfg.Arena.Radius, cfg.Enemies.SpawnDistanceMax)) + gridMargin
	g := &Game{
		id:        id,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		match:     NewMatchState(),
		players:   make(map[string]*Player),
		clients:   make(map[string]Broadcaster),
		grid:      NewSpatialGrid(extent, SpatialCellSize),
		db:        db,
		analytics: analytics,
		stop:      make(chan struct{}),
	}
	for _, t := range AllEnemyTypes {
		g.maxRadius = math.Max(g.maxRadius, cfg.Enemies.statsFor(t).Radius)
	}
	g.resetWorld()
	return g
}

// resetWorld rebuilds the wave manager and clears every entity
func (g *Game) resetWorld() {
	g.catalog = NewEnemyCatalog(g.cfg.Enemies)
	g.loot = NewLootTable(g.cfg.Loot, g.cfg.Enemies)
	g.waves = NewWaveManager(g.cfg, g.catalog, NewSpawnSampler(g.cfg, g.center), g.rng)
	g.enemies = make(map[string]*Enemy)
	g.projectiles = make(map[string]*Projectile)
	g.missiles = make(map[string]*HomingMissile)
	g.pickups = make(map[string]*Pickup)
	g.asteroids = ScatterAsteroids(g.cfg.Arena, g.center, g.rng)
	g.beams = g.beams[:0]
}

// Run starts the game loop
func (g *Game) Run() {
	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop. It may be called before Run.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.stop)
	}
}

func (g *Game) startPos(i int) Vec3 {
	n := g.cfg.Server.MaxPlayers
	if n < 1 {
		n = 1
	}
	a := float64(i) * 2 * math.Pi / float64(n)
	return g.center.Add(Vec3{X: math.Cos(a) * startRingRadius, Z: math.Sin(a) * startRingRadius})
}

// AddPlayer adds a new ship to the session. Returns nil when full.
func (g *Game) AddPlayer(name string, accountID int64) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.players) >= g.cfg.Server.MaxPlayers {
		return nil
	}

	id := GenerateID(4)
	p := NewPlayer(id, name, g.startPos(len(g.players)), g.cfg, g.rng)
	p.AccountID = accountID
	g.players[id] = p

	if g.match.Phase == PhaseLobby && g.cfg.Server.AutoStart {
		g.startRun()
	}
	return p
}

// RemovePlayer removes a player from the game
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.players, id)
	delete(g.clients, id)
	delete(g.match.ReadyPlayers, id)

	if len(g.players) == 0 {
		if g.match.Phase != PhaseLobby {
			log.Printf("[game %s] all players left, back to lobby", g.id)
		}
		g.match.ResetLobby()
		g.resetWorld()
		return
	}
	switch g.waves.State {
	case WaveShopPhase:
		g.maybeEndShop()
	case WavePaused:
		g.maybeResumeLevelup()
	}
}

// SetClient associates a broadcaster with a player
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// HandleInput processes input from a player
func (g *Game) HandleInput(playerID string, input ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok {
		return
	}
	p.SetInput(input.MX, input.MZ, input.Aim, input.Fire)
}

// HandleReady toggles lobby readiness and starts the run once everyone is ready
func (g *Game) HandleReady(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.match.Phase != PhaseLobby {
		return false
	}
	p, ok := g.players[playerID]
	if !ok {
		return false
	}
	p.Ready = !p.Ready
	g.match.ReadyPlayers[playerID] = p.Ready
	if g.match.AllReady(g.players) {
		g.startRun()
	}
	return true
}

// HandleRematch returns a finished run to the lobby
func (g *Game) HandleRematch(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.match.Phase != PhaseResult {
		return false
	}
	if _, ok := g.players[playerID]; !ok {
		return false
	}
	g.match.ResetLobby()
	g.resetWorld()
	i := 0
	for id, p := range g.players {
		np := NewPlayer(id, p.Name, g.startPos(i), g.cfg, g.rng)
		np.AccountID = p.AccountID
		g.players[id] = np
		i++
	}
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{Phase: int(PhaseLobby)}})
	if g.cfg.Server.AutoStart {
		g.startRun()
	}
	return true
}

// HandlePick applies level-up choice i. Returns the upgrade and whether
// it was applied.
func (g *Game) HandlePick(playerID string, i int) (Upgrade, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || !p.Alive() || p.PendingLevelups == 0 {
		return Upgrade{}, false
	}
	u, ok := p.Upgrades.LevelupChoice(i)
	if !ok {
		return Upgrade{}, false
	}
	if !p.Upgrades.ApplyUpgrade(u, p.Stats) {
		return u, false
	}
	p.Upgrades.ClearOffer()
	p.PendingLevelups--
	g.track(EvtUpgrade, p.AccountID, fmt.Sprintf(`{"kind":%q,"level":%d,"shop":false}`, u.Kind, p.Stats.Level))

	if p.PendingLevelups > 0 {
		g.offerLevelup(p)
	} else {
		g.maybeResumeLevelup()
	}
	return u, true
}

// HandleBuy purchases shop item i during the shop phase
func (g *Game) HandleBuy(playerID string, i int) (Upgrade, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || !p.Alive() || g.waves.State != WaveShopPhase || p.ShopDone {
		return Upgrade{}, false
	}
	u, ok := p.Upgrades.Purchase(i, p.Stats)
	if !ok {
		return u, false
	}
	p.Purchases++
	g.track(EvtUpgrade, p.AccountID, fmt.Sprintf(`{"kind":%q,"price":%d,"shop":true}`, u.Kind, u.Price()))
	g.sendShop(p)
	return u, true
}

// HandleShopDone marks a player finished shopping. The next wave is
// prepared once every living player is done.
func (g *Game) HandleShopDone(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || g.waves.State != WaveShopPhase {
		return false
	}
	p.ShopDone = true
	g.maybeEndShop()
	return true
}

// HandlePause pauses the active wave. Each wave may be paused once.
func (g *Game) HandlePause(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || g.match.Phase != PhasePlaying {
		return false
	}
	return g.pause(PauseByPlayer, p.Name)
}

// HandleResume resumes a paused wave
func (g *Game) HandleResume(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.players[playerID]; !ok {
		return false
	}
	return g.resume()
}

// HandleAbility requests the AoE pulse ability for the next tick
func (g *Game) HandleAbility(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || !p.Alive() || !p.Stats.Has(AbilityAoePulse) {
		return false
	}
	p.WantPulse = true
	return true
}

// HandleDash requests a dash for the next tick
func (g *Game) HandleDash(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.players[playerID]
	if !ok || !p.Alive() || !p.Stats.Has(AbilityDash) {
		return false
	}
	p.WantDash = true
	return true
}

// PlayerCount returns the number of players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// HasPlayer reports whether id is in the session
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.players[id]
	return ok
}

// Wave returns the current wave number
func (g *Game) Wave() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.waves.CurrentWave
}

// Phase returns the session phase
func (g *Game) Phase() MatchPhase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.match.Phase
}

// Credits returns a player's run currency
func (g *Game) Credits(playerID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if p, ok := g.players[playerID]; ok {
		return p.Stats.Currency
	}
	return 0
}

// ArenaRadius returns the playable radius
func (g *Game) ArenaRadius() float64 {
	return g.cfg.Arena.Radius
}

func (g *Game) startRun() {
	g.resetWorld()
	g.match.Begin(time.Now())
	for _, p := range g.players {
		p.Ready = false
	}
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{Phase: int(PhasePlaying)}})
	g.track(EvtRunStart, 0, fmt.Sprintf(`{"run":%q,"players":%d}`, g.match.RunID, len(g.players)))
	log.Printf("[game %s] run %s started with %d players", g.id, g.match.RunID, len(g.players))
}

func (g *Game) pause(reason, by string) bool {
	if !g.waves.PauseWave() {
		return false
	}
	g.match.PauseReason = reason
	g.match.PausedBy = by
	g.broadcastMsg(Envelope{T: MsgPaused, Data: PausedMsg{Paused: true, By: by, Reason: reason}})
	return true
}

func (g *Game) resume() bool {
	if !g.waves.ResumeWave() {
		return false
	}
	g.match.PauseReason = ""
	g.match.PausedBy = ""
	g.broadcastMsg(Envelope{T: MsgPaused, Data: PausedMsg{Paused: false}})
	return true
}

// maybeResumeLevelup resumes a level-up pause once nobody has picks left
func (g *Game) maybeResumeLevelup() {
	if g.waves.State != WavePaused || g.match.PauseReason != PauseByLevelup {
		return
	}
	for _, p := range g.players {
		if p.Alive() && p.PendingLevelups > 0 {
			return
		}
	}
	g.resume()
}

func (g *Game) maybeEndShop() {
	for _, p := range g.players {
		if p.Alive() && !p.ShopDone {
			return
		}
	}
	if !g.waves.CompleteShopPhase() {
		return
	}
	g.broadcastMsg(Envelope{T: MsgWave, Data: WaveMsg{Wave: g.waves.CurrentWave, Event: "preparing"}})
}

func (g *Game) offerLevelup(p *Player) {
	choices := p.Upgrades.LevelupChoices(g.cfg.Upgrades.MaxUpgradeChoices)
	if len(choices) == 0 {
		// every level-up upgrade is maxed
		p.PendingLevelups = 0
		return
	}
	offers := make([]UpgradeOffer, len(choices))
	for i, u := range choices {
		offers[i] = NewUpgradeOffer(i, u)
	}
	g.sendTo(p.ID, Envelope{T: MsgLevelUp, Data: LevelUpMsg{
		Level:   p.Stats.Level,
		Pending: p.PendingLevelups,
		Choices: offers,
	}})
}

func (g *Game) levelUp(p *Player, gained int) {
	first := p.PendingLevelups == 0
	p.PendingLevelups += gained
	if first {
		g.offerLevelup(p)
	}
	if p.PendingLevelups > 0 && g.cfg.UI.AutoPauseOnLevelup {
		g.pause(PauseByLevelup, p.Name)
	}
}

func (g *Game) sendShop(p *Player) {
	items := p.Upgrades.ShopItems()
	offers := make([]UpgradeOffer, len(items))
	for i, u := range items {
		offers[i] = NewUpgradeOffer(i, u)
	}
	g.sendTo(p.ID, Envelope{T: MsgShop, Data: ShopMsg{
		Wave:    g.waves.CurrentWave,
		Credits: p.Stats.Currency,
		Items:   offers,
	}})
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	if g.match.Phase == PhasePlaying {
		g.step(1.0 / float64(TickRate))
	}

	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// step advances the run by dt. A paused wave freezes the whole arena.
func (g *Game) step(dt float64) {
	if g.waves.State == WavePaused {
		return
	}
	g.match.Elapsed += dt
	g.beams = g.beams[:0]

	for _, a := range g.asteroids {
		a.Update(dt)
	}
	g.updatePlayers(dt)
	g.updateWaves(dt)
	g.rebuildGrid()
	g.updateEnemies(dt)
	g.updateProjectiles(dt)
	g.updateMissiles(dt)
	g.sweepEnemies()
	g.updatePickups(dt)
	g.checkRunOver()
}

func (g *Game) updatePlayers(dt float64) {
	for _, p := range g.players {
		if !p.Alive() {
			continue
		}
		p.Update(dt, g.cfg.Arena, g.center)
		if !p.Alive() {
			g.playerDied(p, "boundary")
			continue
		}
		for _, a := range g.asteroids {
			if pos, hit := a.PushOut(p.Pos, g.cfg.Player.Radius); hit {
				p.Pos = pos
			}
		}
		g.fire(p, dt)
	}
}

func (g *Game) fire(p *Player, dt float64) {
	out := p.Weapon.Update(dt, p.Firing, p.Muzzle(), p.Stats, g.cfg, &p.Cooldowns)
	for _, pr := range out.Projectiles {
		if len(g.projectiles) >= maxProjectilesPerSession {
			break
		}
		g.projectiles[pr.ID] = pr
	}
	if out.Beam != nil {
		g.resolveBeam(p, out.Beam, dt)
	}
	if out.Pulse {
		g.pulse(p)
	}
	if p.WantPulse {
		p.WantPulse = false
		if p.Cooldowns.TryPulse(p.Stats, g.cfg.Weapons.AoePulse) {
			g.pulse(p)
		}
	}
	if g.waves.EnemiesAlive > 0 && p.Cooldowns.DroneReady(p.Stats) {
		m := NewHomingMissile(p.Cooldowns.DronePos(p.Pos), p.Rotation, p.ID, MissileDamage*p.Stats.DamageMultiplier)
		g.missiles[m.ID] = m
	}
}

func (g *Game) resolveBeam(p *Player, b *Beam, dt float64) {
	hits := BeamTargets(b, g.enemies, g.asteroids)
	end := b.To
	if len(hits) > 0 && len(hits) == b.Pierce {
		end = hits[len(hits)-1].Enemy.Pos
	}
	for _, h := range hits {
		if h.Enemy.TakeDamage(b.DPS * dt) {
			g.enemyKilled(h.Enemy, p)
		}
	}
	g.beams = append(g.beams, BeamState{
		Owner: b.OwnerID,
		X1:    round2(b.From.X),
		Z1:    round2(b.From.Z),
		X2:    round2(end.X),
		Z2:    round2(end.Z),
	})
}

func (g *Game) pulse(p *Player) {
	cfg := g.cfg.Weapons.AoePulse
	for _, e := range Explode(p.Pos, cfg.Radius, cfg.Damage*p.Stats.DamageMultiplier, g.enemies) {
		g.enemyKilled(e, p)
	}
}

// centroid returns the mean position of living ships
func (g *Game) centroid() (Vec3, bool) {
	var sum Vec3
	n := 0
	for _, p := range g.players {
		if p.Alive() {
			sum = sum.Add(p.Pos)
			n++
		}
	}
	if n == 0 {
		return Vec3{}, false
	}
	return sum.Scale(1 / float64(n)), true
}

func (g *Game) updateWaves(dt float64) {
	if s, ok := NewSpawnSampler(g.cfg, g.center).(ScatterSampler); ok {
		if c, alive := g.centroid(); alive {
			s.Exclude = c
		}
		g.waves.SetSampler(s)
	}

	for _, ev := range g.waves.Update(dt) {
		switch ev.Kind {
		case EventWaveStarted:
			for _, p := range g.players {
				p.WaveDamage = 0
			}
			g.broadcastMsg(Envelope{T: MsgWave, Data: WaveMsg{
				Wave:    ev.Wave,
				Event:   "started",
				Enemies: g.waves.EnemiesToSpawn,
				Mult:    round2(g.waves.DifficultyMultiplier),
			}})
			log.Printf("[game %s] wave %d started: %d enemies x%.2f", g.id, ev.Wave, g.waves.EnemiesToSpawn, g.waves.DifficultyMultiplier)

		case EventSpawnEnemy:
			stats, ok := g.catalog.Stats(ev.Spawn.Type)
			if !ok {
				g.waves.EnemyKilled()
				continue
			}
			e := NewEnemy(ev.Spawn, stats)
			g.enemies[e.ID] = e

		case EventWaveComplete:
			g.match.BestWave = ev.Wave
			for _, p := range g.players {
				if p.Alive() && p.WaveDamage == 0 {
					p.FlawlessWaves++
				}
			}
			g.broadcastMsg(Envelope{T: MsgWave, Data: WaveMsg{Wave: ev.Wave, Event: "complete"}})
			g.track(EvtWaveComplete, 0, fmt.Sprintf(`{"run":%q,"wave":%d,"elapsed":%.1f}`, g.match.RunID, ev.Wave, g.match.Elapsed))

		case EventShopPhaseStarted:
			for _, p := range g.players {
				p.ShopDone = !p.Alive()
				if p.Alive() {
					g.sendShop(p)
				}
			}
		}
	}
}

// rebuildGrid indexes live enemies by position for neighbour queries
func (g *Game) rebuildGrid() {
	g.grid.Clear()
	g.enemyList = g.enemyList[:0]
	for _, e := range g.enemies {
		if !e.Alive {
			continue
		}
		g.grid.Insert(e.Pos.X, e.Pos.Z, EntityRef{Kind: RefEnemy, Idx: len(g.enemyList)})
		g.enemyList = append(g.enemyList, e)
	}
}

// enemiesNear returns live enemies indexed near pos within reach plus the
// largest enemy radius
func (g *Game) enemiesNear(pos Vec3, reach float64) []EntityRef {
	g.refBuf = g.grid.QueryBuf(pos.X, pos.Z, reach+g.maxRadius+gridSlack, g.refBuf[:0])
	return g.refBuf
}

func (g *Game) updateEnemies(dt float64) {
	for _, e := range g.enemyList {
		target := nearestPlayer(e.Pos, g.players)
		var act EnemyAction
		if target != nil {
			act = e.Update(dt, target.Pos, true)
		} else {
			act = e.Update(dt, Vec3{}, false)
		}
		if act.Melee && target != nil {
			if HitPlayer(target, e.Damage) {
				g.playerDied(target, e.Type.String())
			}
		}
		if act.Fire && len(g.projectiles) < maxProjectilesPerSession {
			shot := NewEnemyShot(e, act.Dir)
			g.projectiles[shot.ID] = shot
		}
		for _, a := range g.asteroids {
			if pos, hit := a.PushOut(e.Pos, e.Radius); hit {
				e.Pos = pos
			}
		}
	}

	for i, e := range g.enemyList {
		for _, ref := range g.enemiesNear(e.Pos, e.Radius*EnemySeparation) {
			if ref.Kind == RefEnemy && ref.Idx > i {
				e.Separate(g.enemyList[ref.Idx])
			}
		}
	}
}

func (g *Game) updateProjectiles(dt float64) {
	for id, pr := range g.projectiles {
		pr.Update(dt)
		if pr.Alive {
			for _, a := range g.asteroids {
				if CirclesOverlap(pr.Pos, pr.Radius, a.Pos, a.Radius) {
					g.detonate(pr)
					pr.Alive = false
					break
				}
			}
		}
		if pr.Alive {
			if pr.Kind == ShotEnemy {
				g.hitPlayers(pr)
			} else {
				g.hitEnemies(pr)
			}
		}
		if !pr.Alive {
			delete(g.projectiles, id)
		}
	}
}

func (g *Game) hitPlayers(pr *Projectile) {
	for _, p := range g.players {
		if !p.Alive() || !CirclesOverlap(pr.Pos, pr.Radius, p.Pos, g.cfg.Player.Radius) {
			continue
		}
		pr.Alive = false
		src := "shooter"
		if e, ok := g.enemies[pr.OwnerID]; ok {
			src = e.Type.String()
		}
		if HitPlayer(p, pr.Damage) {
			g.playerDied(p, src)
		}
		return
	}
}

func (g *Game) hitEnemies(pr *Projectile) {
	owner := g.players[pr.OwnerID]
	for _, ref := range g.enemiesNear(pr.Pos, pr.Radius) {
		if ref.Kind != RefEnemy {
			continue
		}
		e := g.enemyList[ref.Idx]
		if !e.Alive || !CirclesOverlap(pr.Pos, pr.Radius, e.Pos, e.Radius) {
			continue
		}
		if !pr.Strike(e.ID) {
			continue
		}
		// rockets deal all their damage through the explosion
		if pr.Kind != ShotRocket && e.TakeDamage(pr.Damage) {
			g.enemyKilled(e, owner)
		}
		g.detonate(pr)
		if !pr.Alive {
			return
		}
	}
}

// detonate applies splash damage at the projectile position
func (g *Game) detonate(pr *Projectile) {
	if pr.Splash <= 0 || pr.Kind == ShotEnemy {
		return
	}
	owner := g.players[pr.OwnerID]
	for _, e := range Explode(pr.Pos, pr.Splash, pr.SplashDamage, g.enemies) {
		g.enemyKilled(e, owner)
	}
}

func (g *Game) updateMissiles(dt float64) {
	for id, m := range g.missiles {
		m.Update(dt, g.enemies)
		if m.Alive {
			for _, ref := range g.enemiesNear(m.Pos, MissileRadius) {
				if ref.Kind != RefEnemy {
					continue
				}
				e := g.enemyList[ref.Idx]
				if !e.Alive || !CirclesOverlap(m.Pos, MissileRadius, e.Pos, e.Radius) {
					continue
				}
				m.Alive = false
				if e.TakeDamage(m.Damage) {
					g.enemyKilled(e, g.players[m.OwnerID])
				}
				break
			}
		}
		if !m.Alive {
			delete(g.missiles, id)
		}
	}
}

// enemyKilled is called once per death: TakeDamage reports the killing
// blow only
func (g *Game) enemyKilled(e *Enemy, killer *Player) {
	g.waves.EnemyKilled()
	if killer != nil {
		killer.Kills++
	}
	for _, d := range g.loot.RollDrops(e.Snapshot(), g.rng) {
		if len(g.pickups) >= maxPickupsPerSession {
			break
		}
		pk := NewPickup(g.cfg.Loot.Modifiers.Apply(d), e.Pos, g.cfg.Loot.Lifetime, g.rng)
		g.pickups[pk.ID] = pk
	}
}

func (g *Game) sweepEnemies() {
	for id, e := range g.enemies {
		if !e.Alive {
			delete(g.enemies, id)
		}
	}
}

func (g *Game) updatePickups(dt float64) {
	loot := g.cfg.Loot
	attract := loot.AttractionRange + loot.Modifiers.AttractionBonus
	for id, pk := range g.pickups {
		target := nearestPlayer(pk.Pos, g.players)
		if target == nil {
			pk.Update(dt, Vec3{}, false, attract, loot.AttractionSpeed)
		} else {
			pk.Update(dt, target.Pos, true, attract, loot.AttractionSpeed)
			if pk.Alive && FlatDistance(pk.Pos, target.Pos) <= loot.PickupRange {
				before := target.Stats.Level
				pk.Collect(target.Stats)
				if gained := target.Stats.Level - before; gained > 0 {
					g.levelUp(target, gained)
				}
			}
		}
		if !pk.Alive {
			delete(g.pickups, id)
		}
	}
}

func (g *Game) playerDied(p *Player, source string) {
	p.PendingLevelups = 0
	p.Upgrades.ClearOffer()
	g.sendTo(p.ID, Envelope{T: MsgDeath, Data: DeathMsg{Wave: g.waves.CurrentWave, Source: source}})
	log.Printf("[game %s] %s destroyed by %s on wave %d", g.id, p.Name, source, g.waves.CurrentWave)
	switch g.waves.State {
	case WavePaused:
		g.maybeResumeLevelup()
	case WaveShopPhase:
		g.maybeEndShop()
	}
}

func (g *Game) checkRunOver() {
	if g.match.Phase != PhasePlaying || len(g.players) == 0 {
		return
	}
	for _, p := range g.players {
		if p.Alive() {
			return
		}
	}
	g.endRun()
}

// endRun records the finished run and moves to Result
func (g *Game) endRun() {
	wave := g.waves.CurrentWave
	duration := g.match.Elapsed
	g.match.Phase = PhaseResult

	var runID int64
	if g.db != nil {
		id, err := g.db.RecordRun(g.match.RunID, g.id, wave, duration)
		if err != nil {
			log.Printf("[game %s] record run: %v", g.id, err)
		}
		runID = id
	}

	results := make([]RunResult, 0, len(g.players))
	for _, p := range g.players {
		sum := SummaryFor(p, wave)
		results = append(results, RunResult{
			ID:      p.ID,
			Name:    p.Name,
			Level:   sum.Level,
			Kills:   sum.Kills,
			Damage:  round1(sum.DamageTaken),
			Credits: sum.Credits,
		})
		g.persistRun(p, runID, wave, duration, sum)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Kills != results[j].Kills {
			return results[i].Kills > results[j].Kills
		}
		return results[i].Name < results[j].Name
	})

	g.broadcastMsg(Envelope{T: MsgGameOver, Data: GameOverMsg{
		Wave:     wave,
		Duration: round1(duration),
		Players:  results,
	}})
	g.broadcastMsg(Envelope{T: MsgPhase, Data: PhaseMsg{Phase: int(PhaseResult)}})
	g.track(EvtRunEnd, 0, fmt.Sprintf(`{"run":%q,"wave":%d,"duration":%.1f,"players":%d}`, g.match.RunID, wave, duration, len(g.players)))
	log.Printf("[game %s] run %s over on wave %d after %.0fs", g.id, g.match.RunID, wave, duration)
}

func (g *Game) persistRun(p *Player, runID int64, wave int, duration float64, sum PlayerMatchStats) {
	if g.db == nil || p.AccountID == 0 {
		return
	}
	if runID > 0 {
		if err := g.db.RecordRunPlayer(runID, p.AccountID, sum); err != nil {
			log.Printf("[game %s] record run player: %v", g.id, err)
		}
	}
	if _, err := g.db.UpdateStatsAfterRun(p.AccountID, wave, duration, sum); err != nil {
		log.Printf("[game %s] update stats: %v", g.id, err)
		return
	}
	for _, a := range CheckAchievements(g.db, p.AccountID, wave, sum) {
		g.sendTo(p.ID, Envelope{T: MsgAchievement, Data: AchievementMsg{ID: a.ID, Name: a.Name, Desc: a.Description}})
		g.track(EvtAchievement, p.AccountID, fmt.Sprintf(`{"id":%q}`, a.ID))
	}
}

func (g *Game) track(evt string, playerID int64, data string) {
	if g.analytics != nil {
		g.analytics.Track(evt, playerID, g.id, data)
	}
}

// Snapshot returns the current state frame
func (g *Game) Snapshot() GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.buildState()
}

func (g *Game) buildState() GameState {
	w := g.waves
	state := GameState{
		Players:     make([]PlayerState, 0, len(g.players)),
		Projectiles: make([]ProjectileState, 0, len(g.projectiles)+len(g.missiles)),
		Enemies:     make([]EnemyState, 0, len(g.enemies)),
		Pickups:     make([]PickupState, 0, len(g.pickups)),
		Beams:       append([]BeamState(nil), g.beams...),
		Wave: WaveInfo{
			Wave:     w.CurrentWave,
			State:    w.State.String(),
			Spawned:  w.EnemiesSpawned,
			ToSpawn:  w.EnemiesToSpawn,
			Alive:    w.EnemiesAlive,
			Mult:     round2(w.DifficultyMultiplier),
			CanPause: w.CanPause,
		},
		Phase: int(g.match.Phase),
		Tick:  g.tick,
	}
	for _, p := range g.players {
		state.Players = append(state.Players, p.ToState())
	}
	for _, pr := range g.projectiles {
		state.Projectiles = append(state.Projectiles, pr.ToState())
	}
	for _, m := range g.missiles {
		state.Projectiles = append(state.Projectiles, m.ToState())
	}
	for _, e := range g.enemies {
		state.Enemies = append(state.Enemies, e.ToState())
	}
	for _, a := range g.asteroids {
		state.Asteroids = append(state.Asteroids, a.ToState())
	}
	for _, pk := range g.pickups {
		state.Pickups = append(state.Pickups, pk.ToState())
	}
	return state
}

// broadcastState sends the current state to all clients as a msgpack frame
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	data, err := msgpack.Marshal(g.buildState())
	if err != nil {
		log.Printf("[game %s] state marshal error: %v", g.id, err)
		return
	}
	for _, client := range g.clients {
		client.SendBinary(data)
	}
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}

func (g *Game) sendTo(playerID string, msg Envelope) {
	if c, ok := g.clients[playerID]; ok {
		c.SendJSON(msg)
	}
}
