package card

import (
	"encoding/json"
	"strings"

	"account-manager/internal/domain"
)

const (
	Unranked      = "UNRANKED"
	SoloQueueType = "RANKED_SOLO_5x5"
)

type Elo struct {
	Tier string
	Rank string
	LP   int
}

type leagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints *int   `json:"leaguePoints"`
	LP           *int   `json:"lp"`
}

func (e leagueEntry) points() int {
	switch {
	case e.LeaguePoints != nil:
		return *e.LeaguePoints
	case e.LP != nil:
		return *e.LP
	}
	return 0
}

// ParseElo accepts a single league entry or a list of entries. Lists prefer
// the solo queue entry and otherwise take the first one.
func ParseElo(raw json.RawMessage) Elo {
	if !domain.HasPayload(raw) {
		return Elo{Tier: Unranked}
	}

	var entry leagueEntry
	var entries []leagueEntry
	switch {
	case json.Unmarshal(raw, &entries) == nil:
		if len(entries) == 0 {
			return Elo{Tier: Unranked}
		}
		entry = entries[0]
		for _, e := range entries {
			if e.QueueType == SoloQueueType {
				entry = e
				break
			}
		}
	case json.Unmarshal(raw, &entry) == nil:
	default:
		return Elo{Tier: Unranked}
	}

	tier := strings.ToUpper(strings.TrimSpace(entry.Tier))
	if tier == "" {
		return Elo{Tier: Unranked}
	}
	return Elo{Tier: tier, Rank: strings.TrimSpace(entry.Rank), LP: entry.points()}
}

var tierBorders = map[string]string{
	"IRON":        "border-stone-500",
	"BRONZE":      "border-amber-800",
	"SILVER":      "border-slate-400",
	"GOLD":        "border-yellow-500",
	"PLATINUM":    "border-teal-400",
	"EMERALD":     "border-emerald-500",
	"DIAMOND":     "border-sky-400",
	"MASTER":      "border-purple-500",
	"GRANDMASTER": "border-red-500",
	"CHALLENGER":  "border-cyan-300",
}

func TierBorderClass(tier string) string {
	if c, ok := tierBorders[tier]; ok {
		return c
	}
	return "border-gray-500"
}

var roleNames = map[string]string{
	"TOP":     "TOP",
	"JUNGLE":  "JUNGLE",
	"MIDDLE":  "MID",
	"MID":     "MID",
	"BOTTOM":  "ADC",
	"ADC":     "ADC",
	"UTILITY": "SUPPORT",
	"SUPPORT": "SUPPORT",
}

func FormatRoleName(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if name, ok := roleNames[r]; ok {
		return name
	}
	return r
}
