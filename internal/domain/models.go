package domain

import (
	"encoding/json"
	"time"
)

type Account struct {
	Region       string `json:"region"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	SummonerName string `json:"summonerName"`
	Tagline      string `json:"tagline"`

	// Puuid is fetched once and never refreshed afterwards.
	Puuid string `json:"puuid,omitempty"`

	// EloData is the rank payload as returned by the remote service.
	EloData               json.RawMessage   `json:"eloData,omitempty"`
	ChampionMasteriesData []ChampionMastery `json:"championMasteriesData"`
	SummonerLaneData      *SummonerLaneData `json:"summonerLaneData,omitempty"`

	// LastUpdated is epoch milliseconds, 0 when never refreshed.
	LastUpdated int64 `json:"lastUpdated,omitempty"`

	IsLoading bool `json:"-"`
}

type ChampionMastery struct {
	ChampionID     int   `json:"championId"`
	ChampionLevel  int   `json:"championLevel"`
	ChampionPoints int   `json:"championPoints"`
	LastPlayTime   int64 `json:"lastPlayTime"`
}

type RoleStatistic struct {
	Matches    int     `json:"matches"`
	Percentage float64 `json:"percentage"`
}

type SummonerLaneData struct {
	MainRole       string                   `json:"mainRole"`
	RoleStatistics map[string]RoleStatistic `json:"roleStatistics"`
	TotalMatches   int                      `json:"totalMatches"`
	AnalysisNote   string                   `json:"analysisNote"`
}

// HasElo reports whether the account carries a non-null rank payload.
func (a *Account) HasElo() bool {
	return HasPayload(a.EloData)
}

func (a *Account) LastUpdatedAt() time.Time {
	if a.LastUpdated == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.LastUpdated)
}

// Clone returns a copy that shares no mutable state with a.
func (a Account) Clone() Account {
	out := a
	if a.EloData != nil {
		out.EloData = append(json.RawMessage(nil), a.EloData...)
	}
	if a.ChampionMasteriesData != nil {
		out.ChampionMasteriesData = append([]ChampionMastery(nil), a.ChampionMasteriesData...)
	}
	if a.SummonerLaneData != nil {
		lane := *a.SummonerLaneData
		if lane.RoleStatistics != nil {
			lane.RoleStatistics = make(map[string]RoleStatistic, len(a.SummonerLaneData.RoleStatistics))
			for k, v := range a.SummonerLaneData.RoleStatistics {
				lane.RoleStatistics[k] = v
			}
		}
		out.SummonerLaneData = &lane
	}
	return out
}

// HasPayload is false for empty input and for a JSON null.
func HasPayload(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	return string(raw) != "null"
}
