package main

// DefaultLevelupPool is the free choice pool offered on level-up
func DefaultLevelupPool() []Upgrade {
	return []Upgrade{
		{Kind: UpgradeHealth, Amount: 25, Name: "Hull Plating", Description: "+25 max health", MaxLevel: 5},
		{Kind: UpgradeShields, Amount: 15, Name: "Shield Capacitor", Description: "+15 max shields", MaxLevel: 5},
		{Kind: UpgradeDamage, Amount: 0.2, Name: "Overcharged Cells", Description: "+20% weapon damage", MaxLevel: 5},
		{Kind: UpgradeFireRate, Amount: 0.15, Name: "Rapid Cycler", Description: "+15% fire rate", MaxLevel: 5},
		{Kind: UpgradeSpeed, Amount: 0.5, Name: "Thruster Tuning", Description: "+0.5 speed", MaxLevel: 4},
		{Kind: UpgradeWeapon, Weapon: WeaponRocket, Name: "Rocket Pod", Description: "Swap to rockets with splash damage", MaxLevel: 1},
		{Kind: UpgradeSpecial, Ability: AbilityDoubleShot, Name: "Twin Barrels", Description: "Blaster fires two bolts", MaxLevel: 1},
	}
}

// DefaultShopPool is the credit shop offered between waves
func DefaultShopPool() []Upgrade {
	return []Upgrade{
		{Kind: UpgradeHealth, Amount: 20, Name: "Armor Refit", Description: "+20 max health", Cost: 20, MaxLevel: 5},
		{Kind: UpgradeFireRate, Amount: 0.1, Name: "Trigger Mod", Description: "+10% fire rate", Cost: 25, MaxLevel: 5},
		{Kind: UpgradeWeapon, Weapon: WeaponLaser, Name: "Beam Laser", Description: "Piercing hitscan beam, drains energy", Cost: 75, MaxLevel: 1},
		{Kind: UpgradeSpecial, Ability: AbilityShieldRegen, Name: "Regen Matrix", Description: "Double shield regeneration", Cost: 40, MaxLevel: 1},
		{Kind: UpgradeAbilityAoe, Name: "Pulse Emitter", Description: "Unlock the AoE pulse ability", Cost: 50, MaxLevel: 1},
		{Kind: UpgradeAbilityDrone, Name: "Escort Drone", Description: "A drone that launches homing missiles", Cost: 100, MaxLevel: 1},
	}
}

// CreditsPerRun returns the account credits earned for a finished run
func CreditsPerRun(wave, kills, flawlessWaves int) int {
	if wave < 1 {
		wave = 1
	}
	return 10 + (wave-1)*10 + kills + flawlessWaves*5
}
