package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-ai/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-ai/internal/entity"
	"github.com/rocketscienceinc/tictactoe-ai/internal/game"
	"github.com/rocketscienceinc/tictactoe-ai/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-ai/internal/service"
	"github.com/rocketscienceinc/tictactoe-ai/pkg/handlers"
)

const maxTableBytes = 32 << 20

type Handlers interface {
	MoveHandler(w http.ResponseWriter, r *http.Request)

	GetTableHandler(w http.ResponseWriter, r *http.Request)
	PutTableHandler(w http.ResponseWriter, r *http.Request)
	DeleteTableHandler(w http.ResponseWriter, r *http.Request)
	TableSizeHandler(w http.ResponseWriter, r *http.Request)
}

type moveRequest struct {
	Board  []int  `json:"board"`
	Policy string `json:"policy"`
}

type moveResponse struct {
	Move  int    `json:"move"`
	Mover string `json:"mover"`
}

type sizeResponse struct {
	Size int `json:"size"`
}

type handlersImpl struct {
	logger *slog.Logger

	// guards agent and the random policy
	mu       sync.Mutex
	agent    *qlearning.Agent
	policies map[string]service.Policy
}

// NewHandlers serves moves from every known policy and exposes agent's table.
func NewHandlers(logger *slog.Logger, agent *qlearning.Agent, src rand.Source) Handlers {
	return &handlersImpl{
		logger: logger.With("component", "rest"),
		agent:  agent,
		policies: map[string]service.Policy{
			service.RandomPolicyName:    service.NewRandomPolicy(src),
			service.MinimaxPolicyName:   service.NewMinimaxPolicy(),
			service.QLearningPolicyName: service.NewQLearningPolicy(agent),
		},
	}
}

func (that *handlersImpl) MoveHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "MoveHandler")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Policy == "" {
		req.Policy = service.MinimaxPolicyName
	}

	policy, ok := that.policies[req.Policy]
	if !ok {
		handlers.WriteError(w, http.StatusBadRequest, "unknown policy: "+req.Policy)
		return
	}

	board, err := entity.BoardFromInts(req.Board)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := game.FromBoard(board)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if g.IsFinished() {
		handlers.WriteError(w, http.StatusConflict, "game is already finished: "+g.Status().String())
		return
	}

	mover := g.CurrentMover()

	that.mu.Lock()
	move, err := service.NewBotService(policy).MakeTurn(g)
	that.mu.Unlock()

	if err != nil {
		log.Error("failed to select move", "policy", req.Policy, "board", board.Key(), "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Debug("move selected", "policy", req.Policy, "board", board.Key(), "move", move)

	handlers.WriteJSON(w, http.StatusOK, moveResponse{Move: move, Mover: mover.String()})
}

func (that *handlersImpl) GetTableHandler(w http.ResponseWriter, _ *http.Request) {
	that.mu.Lock()
	table := that.agent.Export()
	that.mu.Unlock()

	data, err := qlearning.EncodeTable(table)
	if err != nil {
		that.logger.Error("failed to encode table", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (that *handlersImpl) PutTableHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "PutTableHandler")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTableBytes))
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "can't read table")
		return
	}

	table, err := qlearning.ParseTable(data)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	that.mu.Lock()
	err = that.agent.Import(table)
	size := that.agent.Size()
	that.mu.Unlock()

	if errors.Is(err, apperror.ErrMalformedTable) {
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error("failed to import table", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	log.Info("table imported", "size", size)

	handlers.WriteJSON(w, http.StatusOK, sizeResponse{Size: size})
}

func (that *handlersImpl) DeleteTableHandler(w http.ResponseWriter, _ *http.Request) {
	that.mu.Lock()
	that.agent.Reset()
	that.mu.Unlock()

	that.logger.Info("table reset")

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlersImpl) TableSizeHandler(w http.ResponseWriter, _ *http.Request) {
	that.mu.Lock()
	size := that.agent.Size()
	that.mu.Unlock()

	handlers.WriteJSON(w, http.StatusOK, sizeResponse{Size: size})
}
