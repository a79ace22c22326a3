package domain

import (
	"sort"
	"strings"
	"time"
)

// MaterialKey identifies a material tier in the collection.
type MaterialKey string

const (
	MaterialCopper      MaterialKey = "copper"
	MaterialBronze      MaterialKey = "bronze"
	MaterialSilver      MaterialKey = "silver"
	MaterialGold        MaterialKey = "gold"
	MaterialPlatinum    MaterialKey = "platinum"
	MaterialPearl       MaterialKey = "pearl"
	MaterialJade        MaterialKey = "jade"
	MaterialSapphire    MaterialKey = "sapphire"
	MaterialEmerald     MaterialKey = "emerald"
	MaterialRuby        MaterialKey = "ruby"
	MaterialDiamond     MaterialKey = "diamond"
	MaterialOpal        MaterialKey = "opal"
	MaterialTopaz       MaterialKey = "topaz"
	MaterialAmethyst    MaterialKey = "amethyst"
	MaterialTurquoise   MaterialKey = "turquoise"
	MaterialOnyx        MaterialKey = "onyx"
	MaterialQuartz      MaterialKey = "quartz"
	MaterialMoonstone   MaterialKey = "moonstone"
	MaterialCitrine     MaterialKey = "citrine"
	MaterialGarnet      MaterialKey = "garnet"
	MaterialAquamarine  MaterialKey = "aquamarine"
	MaterialObsidian    MaterialKey = "obsidian"
	MaterialAlexandrite MaterialKey = "alexandrite"
	MaterialCelestite   MaterialKey = "celestite"
)

// MaterialTier is a collectible awarded for a session whose study time falls
// in [MinHours, MaxHours).
type MaterialTier struct {
	Key      MaterialKey
	Name     string
	Emoji    string
	Color    string
	MinHours float64
	MaxHours float64
}

// Contains reports whether hours falls inside the tier's half-open range.
func (t MaterialTier) Contains(hours float64) bool {
	return hours >= t.MinHours && hours < t.MaxHours
}

// Materials is ordered by range; the ranges tile [MinTargetHours, 24).
var Materials = []MaterialTier{
	{MaterialCopper, "Copper", "🟤", "#b87333", 0.42, 1},
	{MaterialBronze, "Bronze", "🥉", "#cd7f32", 1, 2},
	{MaterialSilver, "Silver", "🥈", "#c0c0c0", 2, 3},
	{MaterialGold, "Gold", "🥇", "#ffd700", 3, 4},
	{MaterialPlatinum, "Platinum", "⚪", "#e5e4e2", 4, 5},
	{MaterialPearl, "Pearl", "🦪", "#f0ead6", 5, 6},
	{MaterialJade, "Jade", "💚", "#00a86b", 6, 7},
	{MaterialSapphire, "Sapphire", "💙", "#0f52ba", 7, 8},
	{MaterialEmerald, "Emerald", "💚", "#50c878", 8, 9},
	{MaterialRuby, "Ruby", "❤️", "#e0115f", 9, 10},
	{MaterialDiamond, "Diamond", "💎", "#b9f2ff", 10, 11},
	{MaterialOpal, "Opal", "🌈", "#a8c3bc", 11, 12},
	{MaterialTopaz, "Topaz", "🟡", "#ffcc00", 12, 13},
	{MaterialAmethyst, "Amethyst", "💜", "#9966cc", 13, 14},
	{MaterialTurquoise, "Turquoise", "🩵", "#40e0d0", 14, 15},
	{MaterialOnyx, "Onyx", "⚫", "#353839", 15, 16},
	{MaterialQuartz, "Quartz", "⚪", "#f8f8f8", 16, 17},
	{MaterialMoonstone, "Moonstone", "🌙", "#d4d4f7", 17, 18},
	{MaterialCitrine, "Citrine", "🟠", "#e4d00a", 18, 19},
	{MaterialGarnet, "Garnet", "🔴", "#9a2a2a", 19, 20},
	{MaterialAquamarine, "Aquamarine", "🩵", "#7fffd4", 20, 21},
	{MaterialObsidian, "Obsidian", "⚫", "#000000", 21, 22},
	{MaterialAlexandrite, "Alexandrite", "💎", "#ca3767", 22, 23},
	{MaterialCelestite, "Celestite", "✨", "#b0c4de", 23, 24},
}

// MaterialFor picks the tier for a session of the given study hours. Sessions
// of a full day or more earn the top tier; anything below the table earns the
// lowest one.
func MaterialFor(hours float64) MaterialTier {
	for _, m := range Materials {
		if m.Contains(hours) {
			return m
		}
	}
	top := Materials[len(Materials)-1]
	if hours >= top.MaxHours {
		return top
	}
	return Materials[0]
}

// MaterialByKey looks a tier up by key, falling back to the lowest tier.
func MaterialByKey(key MaterialKey) MaterialTier {
	k := MaterialKey(strings.ToLower(string(key)))
	for _, m := range Materials {
		if m.Key == k {
			return m
		}
	}
	return Materials[0]
}

// MaterialCollection counts awarded materials. Counts only ever grow.
type MaterialCollection map[MaterialKey]int

// Add returns a copy of the collection with one more of key.
func (c MaterialCollection) Add(key MaterialKey) MaterialCollection {
	next := make(MaterialCollection, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	next[key]++
	return next
}

// Total returns the number of materials collected across all tiers.
func (c MaterialCollection) Total() int {
	total := 0
	for _, v := range c {
		total += v
	}
	return total
}

// DailyLevel is a threshold in the day-scoped level table.
type DailyLevel struct {
	Level       int
	Title       string
	Emoji       string
	Color       string
	HoursNeeded float64
}

// DailyLevels is ordered by strictly increasing HoursNeeded.
var DailyLevels = []DailyLevel{
	{1, "Seed", "🌾", "#95a5a6", 0},
	{2, "Sprout", "🌱", "#1abc9c", 1},
	{3, "Seedling", "🌿", "#16a085", 2},
	{4, "Sapling", "🪴", "#27ae60", 4},
	{5, "Young Tree", "🌳", "#2ecc71", 6},
	{6, "Mighty Oak", "🌲", "#229954", 8},
	{7, "Ancient Tree", "🌴", "#1e8449", 10},
	{8, "Forest Guardian", "🏞️", "#186a3b", 12},
	{9, "Mystic Grove", "🌄", "#0e4b24", 14},
	{10, "Sacred Woods", "⛰️", "#0b5345", 16},
	{11, "Eternal Forest", "🌌", "#145a32", 18},
	{12, "World Tree", "🌍", "#186a3b", 20},
	{13, "Cosmic Tree", "✨", "#1e8449", 22},
	{14, "Legendary Yggdrasil", "🔱", "#27ae60", 24},
}

// DailyLevelFor returns the highest level whose threshold hoursToday reaches.
func DailyLevelFor(hoursToday float64) int {
	for i := len(DailyLevels) - 1; i >= 0; i-- {
		if hoursToday >= DailyLevels[i].HoursNeeded {
			return DailyLevels[i].Level
		}
	}
	return 1
}

// LevelInfo describes a level and how many hours the next one needs.
type LevelInfo struct {
	DailyLevel
	NextLevelHours *float64
}

// DailyLevelInfo returns display data for level, defaulting to the first.
func DailyLevelInfo(level int) LevelInfo {
	info := LevelInfo{DailyLevel: DailyLevels[0]}
	for i, l := range DailyLevels {
		if l.Level != level {
			continue
		}
		info.DailyLevel = l
		if i+1 < len(DailyLevels) {
			next := DailyLevels[i+1].HoursNeeded
			info.NextLevelHours = &next
		}
		return info
	}
	next := DailyLevels[1].HoursNeeded
	info.NextLevelHours = &next
	return info
}

// Streak is the number of consecutive study days.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// CalculateStreak derives the current and longest run of consecutive days with
// at least one completed session. Days are taken from each session's start in
// loc. The current streak survives only if the newest study day is today or
// yesterday.
func CalculateStreak(sessions []Session, today time.Time, loc *time.Location) Streak {
	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, s := range sessions {
		if s.Status != SessionStatusCompleted {
			continue
		}
		d := CalendarDay(s.StartTime, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return Streak{}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	var streak Streak
	if DaysBetween(days[0], CalendarDay(today, loc)) <= 1 {
		streak.Current = 1
		for i := 1; i < len(days); i++ {
			if DaysBetween(days[i], days[i-1]) != 1 {
				break
			}
			streak.Current++
		}
	}

	run := 1
	for i := 1; i < len(days); i++ {
		if DaysBetween(days[i], days[i-1]) == 1 {
			run++
			continue
		}
		streak.Longest = max(streak.Longest, run)
		run = 1
	}
	streak.Longest = max(streak.Longest, run)
	return streak
}

// DailyRewardData is the reward summary for today.
type DailyRewardData struct {
	TodayLevel             int                `json:"todayLevel"`
	TodayHoursStudied      float64            `json:"todayHoursStudied"`
	TodaySessionsCompleted int                `json:"todaySessionsCompleted"`
	MaterialCollection     MaterialCollection `json:"materialCollection"`
	CurrentStreak          int                `json:"currentStreak"`
	LongestStreak          int                `json:"longestStreak"`
}
