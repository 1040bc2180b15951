package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/eventpubsub"
	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

var ErrAccountNotFound = fmt.Errorf("account not found")

// AccountFactory builds an unconnected account for the given id.
type AccountFactory func(id string, cfg models.MockAccountConfig) *models.MockAccount

type CreateAccountRequest struct {
	ID             string  `json:"id"`
	InitialBalance float64 `json:"initial_balance"`
	DailyCap       float64 `json:"daily_cap"`
	LookbackDays   int     `json:"lookback_days"`
	PlaybackSpeed  float64 `json:"playback_speed"`
}

// session serializes every call on one account; the engine itself holds no
// locks.
type session struct {
	mu      sync.Mutex
	account *models.MockAccount
}

type AccountRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session
	defaults models.MockAccountConfig
	factory  AccountFactory
	bus      *eventpubsub.Bus
}

func NewAccountRegistry(defaults models.MockAccountConfig, factory AccountFactory, bus *eventpubsub.Bus) *AccountRegistry {
	return &AccountRegistry{
		sessions: make(map[string]*session),
		defaults: defaults,
		factory:  factory,
		bus:      bus,
	}
}

// NewAccountFactory wires each account to a state file under stateDir and to
// the fill publisher.
func NewAccountFactory(hours *models.MarketHours, sources []models.HistoricalDataSource, stateDir string, bus *eventpubsub.Bus) AccountFactory {
	return func(id string, cfg models.MockAccountConfig) *models.MockAccount {
		opts := []models.MockAccountOption{
			models.WithMarketHours(hours),
		}

		if stateDir != "" {
			opts = append(opts, models.WithStateStore(NewJSONFileStateStore(StatePath(stateDir, id))))
		}

		if bus != nil {
			opts = append(opts, models.WithFillPublisher(NewEventBusFillPublisher(bus)))
		}

		return models.NewMockAccount(id, cfg, sources, opts...)
	}
}

func (r *AccountRegistry) config(req CreateAccountRequest) models.MockAccountConfig {
	cfg := r.defaults
	if req.InitialBalance > 0 {
		cfg.InitialBalance = req.InitialBalance
	}
	if req.DailyCap > 0 {
		cfg.DailyCap = req.DailyCap
	}
	if req.LookbackDays > 0 {
		cfg.LookbackDays = req.LookbackDays
	}
	if req.PlaybackSpeed > 0 {
		cfg.PlaybackSpeed = req.PlaybackSpeed
	}

	return cfg
}

// Open connects an account and registers it. Opening an id that is already
// registered returns the live session's id unchanged.
func (r *AccountRegistry) Open(ctx context.Context, req CreateAccountRequest) (string, error) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.sessions[id]; found {
		return id, nil
	}

	account := r.factory(id, r.config(req))
	if err := account.Connect(ctx); err != nil {
		return "", fmt.Errorf("Open: %w", err)
	}

	r.sessions[id] = &session{account: account}

	return id, nil
}

func (r *AccountRegistry) get(id string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, found := r.sessions[id]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	return s, nil
}

// Do runs fn while holding the account's session lock.
func (r *AccountRegistry) Do(id string, fn func(account *models.MockAccount) error) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.account)
}

// Close disconnects the account, which persists its state, and forgets it.
func (r *AccountRegistry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, found := r.sessions[id]
	if found {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.account.Disconnect(ctx); err != nil {
		return fmt.Errorf("Close: %w", err)
	}

	if r.bus != nil {
		r.bus.Publish(eventpubsub.AccountClosedEvent, id)
	}

	return nil
}

func (r *AccountRegistry) CloseAll(ctx context.Context) {
	for _, id := range r.IDs() {
		if err := r.Close(ctx, id); err != nil {
			log.Errorf("CloseAll: failed to close %s: %v", id, err)
		}
	}
}

func (r *AccountRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
