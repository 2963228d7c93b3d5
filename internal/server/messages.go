package server

import (
	"account-manager/internal/card"
	"account-manager/internal/domain"
	"account-manager/internal/service"
)

type ListAccountsRequest struct {
	Raw bool `json:"raw"`
}

type ListAccountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
}

type SyncAccountsRequest struct{}

type RefreshSummary struct {
	RunID         string `json:"runId"`
	Total         int    `json:"total"`
	Refreshed     int    `json:"refreshed"`
	Skipped       int    `json:"skipped"`
	MissingFields int    `json:"missingFields"`
}

func summarize(s service.RefreshStats) RefreshSummary {
	return RefreshSummary{
		RunID:         s.RunID,
		Total:         s.Total,
		Refreshed:     s.Refreshed,
		Skipped:       s.Skipped,
		MissingFields: s.MissingFields,
	}
}

type SyncAccountsResponse struct {
	Accounts []domain.Account `json:"accounts"`
	Summary  RefreshSummary   `json:"summary"`
}

type SaveAccountsRequest struct {
	Accounts []domain.Account `json:"accounts"`
}

type SaveAccountsResponse struct {
	Success bool `json:"success"`
}

type UpdateAccountRequest struct {
	Account domain.Account `json:"account"`
}

type UpdateAccountResponse struct{}

type DeleteAccountRequest struct {
	Username string `json:"username"`
}

type DeleteAccountResponse struct{}

type RefreshAccountRequest struct {
	Username string `json:"username"`
}

type RefreshAccountResponse struct {
	Account domain.Account `json:"account"`
}

type RefreshAllAccountsRequest struct{}

type ListCardsRequest struct {
	IsLoadingElo bool `json:"isLoadingElo"`
}

type ListCardsResponse struct {
	Cards []card.Card `json:"cards"`
}
