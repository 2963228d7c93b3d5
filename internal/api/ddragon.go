package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"account-manager/internal/config"
	"account-manager/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const DDragonBaseURL = "https://ddragon.leagueoflegends.com"

// FallbackChampionIcon replaces icons that fail to load.
const FallbackChampionIcon = DDragonBaseURL + "/cdn/15.13.1/img/champion/Ashe.png"

type Champion struct {
	ID   int
	Key  string
	Name string
}

// ChampionCatalog resolves numeric champion ids to display names and icons.
// An empty catalog is valid and falls back to generic names.
type ChampionCatalog struct {
	baseURL string
	version string
	byID    map[int]Champion
}

func NewStaticCatalog(version string, champions ...Champion) *ChampionCatalog {
	c := &ChampionCatalog{baseURL: DDragonBaseURL, version: version, byID: make(map[int]Champion, len(champions))}
	for _, ch := range champions {
		c.byID[ch.ID] = ch
	}
	return c
}

func NewChampionCatalog(cfg *config.Config, logger zerolog.Logger) *ChampionCatalog {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ExternalAPITimeout)
	defer cancel()

	client := &fasthttp.Client{
		ReadTimeout:  constants.ExternalAPITimeout,
		WriteTimeout: constants.ExternalAPITimeout,
	}
	return loadCatalog(ctx, client, DDragonBaseURL, cfg.DDragonVersion, logger)
}

func loadCatalog(ctx context.Context, client *fasthttp.Client, baseURL, version string, logger zerolog.Logger) *ChampionCatalog {
	catalog := NewStaticCatalog(version)
	catalog.baseURL = baseURL

	champions, err := fetchChampions(ctx, client, baseURL, version)
	if err != nil {
		logger.Warn().Err(err).Str("version", version).Msg("failed to load champion catalog, using generic names")
		return catalog
	}
	for _, ch := range champions {
		catalog.byID[ch.ID] = ch
	}

	logger.Info().Str("version", version).Int("champions", len(champions)).Msg("champion catalog loaded")
	return catalog
}

type championFile struct {
	Data map[string]struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"data"`
}

func fetchChampions(ctx context.Context, client *fasthttp.Client, baseURL, version string) ([]Champion, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", baseURL, version))
	req.Header.SetMethod(fasthttp.MethodGet)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}
	if err := client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode()}
	}

	var file championFile
	if err := json.Unmarshal(resp.Body(), &file); err != nil {
		return nil, fmt.Errorf("failed to decode champion.json: %w", err)
	}

	champions := make([]Champion, 0, len(file.Data))
	for _, entry := range file.Data {
		id, err := strconv.Atoi(entry.Key)
		if err != nil {
			continue
		}
		champions = append(champions, Champion{ID: id, Key: entry.ID, Name: entry.Name})
	}
	return champions, nil
}

func (c *ChampionCatalog) ChampionName(id int) string {
	if ch, ok := c.byID[id]; ok {
		return ch.Name
	}
	return "Champion " + strconv.Itoa(id)
}

func (c *ChampionCatalog) ChampionIcon(id int) string {
	ch, ok := c.byID[id]
	if !ok || ch.Key == "" {
		return FallbackChampionIcon
	}
	return fmt.Sprintf("%s/cdn/%s/img/champion/%s.png", strings.TrimRight(c.baseURL, "/"), c.version, ch.Key)
}

func (c *ChampionCatalog) Len() int {
	return len(c.byID)
}
