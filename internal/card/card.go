// Package card turns account records into the view model of an account card.
package card

import (
	"fmt"
	"strconv"
	"strings"

	"account-manager/internal/constants"
	"account-manager/internal/domain"
	"account-manager/internal/staleness"
)

const Fill = "FILL"

type Champions interface {
	ChampionName(id int) string
	ChampionIcon(id int) string
}

type Champion struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	IconURL         string `json:"iconUrl"`
	FallbackIconURL string `json:"fallbackIconUrl"`
}

type Card struct {
	Index        int    `json:"index"`
	Username     string `json:"username"`
	SummonerName string `json:"summonerName"`
	Tagline      string `json:"tagline"`

	Loading     bool `json:"loading"`
	LoadingRank bool `json:"loadingRank"`

	ShowFreshness    bool   `json:"showFreshness"`
	Fresh            bool   `json:"fresh"`
	HoursSinceUpdate int    `json:"hoursSinceUpdate"`
	FreshnessTitle   string `json:"freshnessTitle,omitempty"`

	Tier        string `json:"tier"`
	Rank        string `json:"rank"`
	LP          int    `json:"lp"`
	TierDisplay string `json:"tierDisplay"`
	LPDisplay   string `json:"lpDisplay"`
	BorderClass string `json:"borderClass"`

	MainRole string `json:"mainRole"`

	Champions     []Champion `json:"champions"`
	NoMasteryData bool       `json:"noMasteryData"`
}

type Options struct {
	Index        int
	IsLoadingElo bool
}

type Renderer struct {
	policy       *staleness.Policy
	champions    Champions
	fallbackIcon string
}

func NewRenderer(policy *staleness.Policy, champions Champions, fallbackIcon string) *Renderer {
	return &Renderer{policy: policy, champions: champions, fallbackIcon: fallbackIcon}
}

// Build derives a card from account alone; it performs no I/O.
func (r *Renderer) Build(account domain.Account, opts Options) Card {
	c := Card{
		Index:        opts.Index,
		Username:     account.Username,
		SummonerName: account.SummonerName,
		Tagline:      account.Tagline,
		Loading:      account.IsLoading,
		LoadingRank:  opts.IsLoadingElo && !account.HasElo(),
	}

	if account.LastUpdated != 0 {
		c.ShowFreshness = true
		c.Fresh = r.policy.IsFresh(account.LastUpdated)
		c.HoursSinceUpdate = r.policy.HoursSince(account.LastUpdated)
		state := "outdated"
		if c.Fresh {
			state = "updated"
		}
		c.FreshnessTitle = fmt.Sprintf("Data %s - %dh ago", state, c.HoursSinceUpdate)
	}

	elo := ParseElo(account.EloData)
	c.Tier, c.Rank, c.LP = elo.Tier, elo.Rank, elo.LP
	c.TierDisplay = Unranked
	if elo.Tier != Unranked {
		c.TierDisplay = strings.TrimSpace(elo.Tier + " " + elo.Rank)
	}
	if elo.LP > 0 {
		c.LPDisplay = strconv.Itoa(elo.LP) + " LP"
	}
	c.BorderClass = TierBorderClass(elo.Tier)

	c.MainRole = Fill
	if account.SummonerLaneData != nil && account.SummonerLaneData.MainRole != "" {
		c.MainRole = FormatRoleName(account.SummonerLaneData.MainRole)
	}

	masteries := account.ChampionMasteriesData
	if len(masteries) > constants.TopChampionCount {
		masteries = masteries[:constants.TopChampionCount]
	}
	c.Champions = make([]Champion, 0, len(masteries))
	for _, m := range masteries {
		c.Champions = append(c.Champions, Champion{
			ID:              m.ChampionID,
			Name:            r.champions.ChampionName(m.ChampionID),
			IconURL:         r.champions.ChampionIcon(m.ChampionID),
			FallbackIconURL: r.fallbackIcon,
		})
	}
	c.NoMasteryData = len(c.Champions) == 0

	return c
}

func (r *Renderer) BuildAll(accounts []domain.Account, isLoadingElo bool) []Card {
	cards := make([]Card, len(accounts))
	for i, acc := range accounts {
		cards[i] = r.Build(acc, Options{Index: i, IsLoadingElo: isLoadingElo})
	}
	return cards
}
