package main

// Pickup is a loot drop lying in the arena, collected on contact
type Pickup struct {
	ID    string
	Drop  LootDrop
	Pos   Vec3
	Life  float64
	Alive bool
}

// NewPickup places a modified drop at pos with a small scatter so stacked
// drops stay visible
func NewPickup(d LootDrop, pos Vec3, life float64, rng RandSource) *Pickup {
	const scatter = 0.6
	pos.X += (rng.Float64()*2 - 1) * scatter
	pos.Z += (rng.Float64()*2 - 1) * scatter
	return &Pickup{
		ID:    GenerateID(4),
		Drop:  d,
		Pos:   pos,
		Life:  life,
		Alive: true,
	}
}

// Update ticks the lifetime and drifts toward target when it is inside
// the attraction range
func (p *Pickup) Update(dt float64, target Vec3, hasTarget bool, attractRange, attractSpeed float64) {
	if !p.Alive {
		return
	}
	p.Life -= dt
	if p.Life <= 0 {
		p.Alive = false
		return
	}
	if !hasTarget {
		return
	}
	to := target.Sub(p.Pos)
	to.Y = 0
	d := to.Len()
	if d == 0 || d > attractRange {
		return
	}
	step := attractSpeed * dt
	if step > d {
		step = d
	}
	p.Pos = p.Pos.Add(to.Scale(step / d))
}

// Collect grants the drop to stats. Returns true if a level was gained.
func (p *Pickup) Collect(s *PlayerStats) bool {
	if !p.Alive {
		return false
	}
	p.Alive = false
	switch p.Drop.Kind {
	case LootExperience:
		return s.AddExperience(p.Drop.Amount)
	case LootHealth:
		s.Heal(p.Drop.Amount)
	case LootEnergy:
		s.RestoreEnergy(p.Drop.Amount)
	case LootCurrency:
		s.AddCurrency(p.Drop.Credits)
	}
	return false
}

// ToState converts to protocol state
func (p *Pickup) ToState() PickupState {
	amount := p.Drop.Amount
	if p.Drop.Kind == LootCurrency {
		amount = float64(p.Drop.Credits)
	}
	return PickupState{
		ID:     p.ID,
		Kind:   uint8(p.Drop.Kind),
		X:      round2(p.Pos.X),
		Z:      round2(p.Pos.Z),
		Amount: round1(amount),
	}
}
