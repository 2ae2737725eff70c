package main

// AchievementDef describes an unlockable achievement
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_kill", "First Contact", "Destroy your first enemy"},
	{"wave_5", "Holding the Line", "Reach wave 5"},
	{"wave_10", "Void Veteran", "Reach wave 10"},
	{"wave_20", "Unbreakable", "Reach wave 20"},
	{"kills_100", "Exterminator", "Reach 100 total kills"},
	{"kills_1000", "Swarm Breaker", "Reach 1000 total kills"},
	{"shop_spree", "Big Spender", "Buy 5 shop items in a single run"},
	{"flawless_wave", "Untouched", "Clear a wave without taking damage"},
	{"veteran", "Seasoned Pilot", "Reach account level 10"},
	{"survivor", "Survivor", "Play for 1 hour total"},
}

// CheckAchievements unlocks achievements earned by a finished run. Call it
// after the run was folded into the account stats. Returns the newly
// unlocked ones.
func CheckAchievements(db *DB, playerID int64, wave int, run PlayerMatchStats) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_kill":
			return stats.Kills >= 1
		case "wave_5":
			return wave >= 5
		case "wave_10":
			return wave >= 10
		case "wave_20":
			return wave >= 20
		case "kills_100":
			return stats.Kills >= 100
		case "kills_1000":
			return stats.Kills >= 1000
		case "shop_spree":
			return run.Purchases >= 5
		case "flawless_wave":
			return run.FlawlessWaves >= 1
		case "veteran":
			return stats.Level >= 10
		case "survivor":
			return stats.Playtime >= 3600
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}
