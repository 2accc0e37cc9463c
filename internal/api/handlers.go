package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// Registry is the method surface the API exposes over HTTP.
type Registry interface {
	OpenVoting(ctx context.Context) (string, error)
	CloseVoting(ctx context.Context) (string, error)
	IsClosed(ctx context.Context) (bool, error)
	AddOption(ctx context.Context, id uint64, name string) (string, error)
	Option(ctx context.Context, id uint64) (string, bool, error)
	Results(ctx context.Context) ([]model.Option, error)
	Vote(ctx context.Context, voter common.Address, id uint64) error
	VoteCount(ctx context.Context, id uint64) (uint64, error)
	HasVoted(ctx context.Context, voter common.Address) (bool, error)
	Winner(ctx context.Context) (string, error)
}

type App struct {
	Registry Registry
	Log      log.SimpleLogger
}

type addOptionRequest struct {
	ID   *uint64 `json:"id"`
	Name string  `json:"name"`
}

type voteRequest struct {
	Voter    string  `json:"voter"`
	OptionID *uint64 `json:"option_id"`
}

// writeRegistryError maps registry failures onto status codes. Rejected votes
// carry the registry's message verbatim.
func (a *App) writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidOption),
		errors.Is(err, model.ErrDuplicateVote),
		errors.Is(err, model.ErrVotingClosed):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrNoWinner):
		Error(w, http.StatusNotFound, err.Error())
	default:
		a.Log.Errorw("Registry call failed", "err", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func optionIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func (a *App) OpenVotingHandler(w http.ResponseWriter, r *http.Request) {
	msg, err := a.Registry.OpenVoting(r.Context())
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (a *App) CloseVotingHandler(w http.ResponseWriter, r *http.Request) {
	msg, err := a.Registry.CloseVoting(r.Context())
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (a *App) VotingStatusHandler(w http.ResponseWriter, r *http.Request) {
	closed, err := a.Registry.IsClosed(r.Context())
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"closed": closed})
}

func (a *App) AddOptionHandler(w http.ResponseWriter, r *http.Request) {
	var req addOptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == nil {
		Error(w, http.StatusBadRequest, "invalid request")
		return
	}

	msg, err := a.Registry.AddOption(r.Context(), *req.ID, req.Name)
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusCreated, messageResponse{Message: msg})
}

func (a *App) ListOptionsHandler(w http.ResponseWriter, r *http.Request) {
	results, err := a.Registry.Results(r.Context())
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	if results == nil {
		results = []model.Option{}
	}
	JSON(w, http.StatusOK, results)
}

func (a *App) GetOptionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := optionIDParam(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid option id")
		return
	}

	name, ok, err := a.Registry.Option(r.Context(), id)
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "option not found")
		return
	}
	JSON(w, http.StatusOK, model.Option{ID: id, Name: name})
}

func (a *App) VoteCountHandler(w http.ResponseWriter, r *http.Request) {
	id, err := optionIDParam(r)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid option id")
		return
	}

	count, err := a.Registry.VoteCount(r.Context(), id)
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]uint64{"option_id": id, "votes": count})
}

func (a *App) VoteHandler(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OptionID == nil {
		Error(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !common.IsHexAddress(req.Voter) {
		Error(w, http.StatusBadRequest, "invalid voter address")
		return
	}

	if err := a.Registry.Vote(r.Context(), common.HexToAddress(req.Voter), *req.OptionID); err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, messageResponse{Message: "vote recorded"})
}

func (a *App) HasVotedHandler(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	if !common.IsHexAddress(addr) {
		Error(w, http.StatusBadRequest, "invalid voter address")
		return
	}

	voted, err := a.Registry.HasVoted(r.Context(), common.HexToAddress(addr))
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"voted": voted})
}

func (a *App) WinnerHandler(w http.ResponseWriter, r *http.Request) {
	name, err := a.Registry.Winner(r.Context())
	if err != nil {
		a.writeRegistryError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"winner": name})
}
