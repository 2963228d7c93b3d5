package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"account-manager/internal/config"
	"account-manager/internal/domain"
	"account-manager/internal/staleness"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// StatsFetcher returns zero values when data is unavailable; it never fails.
type StatsFetcher interface {
	FetchPuuid(ctx context.Context, summonerName, tagline string) string
	FetchElo(ctx context.Context, summonerName, tagline string) json.RawMessage
	FetchChampionMasteries(ctx context.Context, summonerName, tagline string) []domain.ChampionMastery
	FetchSummonerLane(ctx context.Context, summonerName, tagline string) *domain.SummonerLaneData
}

type RefreshStats struct {
	RunID     string
	Total     int
	Refreshed int
	Skipped   int
	// MissingFields counts sub-fetches that came back without data.
	MissingFields int
}

type RefreshService struct {
	fetcher     StatsFetcher
	policy      *staleness.Policy
	concurrency int
	logger      zerolog.Logger
}

func NewRefreshService(fetcher StatsFetcher, policy *staleness.Policy, cfg *config.Config, logger zerolog.Logger) *RefreshService {
	return &RefreshService{
		fetcher:     fetcher,
		policy:      policy,
		concurrency: cfg.RefreshConcurrency,
		logger:      logger.With().Str("component", "refresh").Logger(),
	}
}

// UpdateAccounts refreshes every stale account and passes fresh ones through
// untouched. The result has the same length and order as the input.
func (s *RefreshService) UpdateAccounts(ctx context.Context, accounts []domain.Account) ([]domain.Account, RefreshStats) {
	return s.refreshAll(ctx, accounts, false)
}

func (s *RefreshService) ForceUpdateAllAccounts(ctx context.Context, accounts []domain.Account) ([]domain.Account, RefreshStats) {
	return s.refreshAll(ctx, accounts, true)
}

func (s *RefreshService) ForceUpdateAccount(ctx context.Context, account domain.Account) domain.Account {
	updated, missing := s.refreshOne(ctx, account)
	s.logger.Info().
		Str("username", account.Username).
		Int("missing_fields", missing).
		Msg("account force refreshed")
	return updated
}

func (s *RefreshService) refreshAll(ctx context.Context, accounts []domain.Account, force bool) ([]domain.Account, RefreshStats) {
	start := time.Now()
	stats := RefreshStats{RunID: newRunID(), Total: len(accounts)}
	log := s.logger.With().Str("run_id", stats.RunID).Bool("force", force).Logger()

	results := make([]domain.Account, len(accounts))
	var refreshed, missing atomic.Int64

	g := new(errgroup.Group)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i := range accounts {
		if !force && !s.policy.NeedsUpdate(accounts[i].LastUpdated) {
			results[i] = accounts[i]
			stats.Skipped++
			continue
		}

		i := i // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			updated, m := s.refreshOne(ctx, accounts[i])
			results[i] = updated
			refreshed.Add(1)
			missing.Add(int64(m))
			return nil
		})
	}
	_ = g.Wait()

	stats.Refreshed = int(refreshed.Load())
	stats.MissingFields = int(missing.Load())

	log.Info().
		Int("total", stats.Total).
		Int("refreshed", stats.Refreshed).
		Int("skipped", stats.Skipped).
		Int("missing_fields", stats.MissingFields).
		Dur("duration", time.Since(start)).
		Msg("account refresh completed")

	return results, stats
}

// refreshOne merges remote results onto a copy of account. Absent results
// keep the previous value; lastUpdated is always stamped.
func (s *RefreshService) refreshOne(ctx context.Context, account domain.Account) (domain.Account, int) {
	var (
		puuid     string
		elo       json.RawMessage
		masteries []domain.ChampionMastery
		lane      *domain.SummonerLaneData
	)

	name, tag := account.SummonerName, account.Tagline
	needPuuid := account.Puuid == ""

	g := new(errgroup.Group)
	if needPuuid {
		g.Go(func() error {
			puuid = s.fetcher.FetchPuuid(ctx, name, tag)
			return nil
		})
	}
	g.Go(func() error {
		elo = s.fetcher.FetchElo(ctx, name, tag)
		return nil
	})
	g.Go(func() error {
		masteries = s.fetcher.FetchChampionMasteries(ctx, name, tag)
		return nil
	})
	g.Go(func() error {
		lane = s.fetcher.FetchSummonerLane(ctx, name, tag)
		return nil
	})
	_ = g.Wait()

	out := account.Clone()
	missing := 0

	if needPuuid {
		if puuid != "" {
			out.Puuid = puuid
		} else {
			missing++
		}
	}
	if domain.HasPayload(elo) {
		out.EloData = elo
	} else {
		missing++
	}
	if masteries != nil {
		out.ChampionMasteriesData = masteries
	} else {
		missing++
	}
	if lane != nil {
		out.SummonerLaneData = lane
	} else {
		missing++
	}

	out.LastUpdated = s.stamp(account.LastUpdated)

	s.logger.Debug().
		Str("username", account.Username).
		Str("summoner", name+"#"+tag).
		Int("missing_fields", missing).
		Msg("account refreshed")

	return out, missing
}

// stamp never moves lastUpdated backwards, even if the clock does.
func (s *RefreshService) stamp(previous int64) int64 {
	now := time.Now().UnixMilli()
	if s.policy.Now != nil {
		now = s.policy.Now().UnixMilli()
	}
	if now < previous {
		return previous
	}
	return now
}

func newRunID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		return ""
	}
	return id
}
