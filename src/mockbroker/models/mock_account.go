package models

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// MockAccount is the broker-facing facade over the simulation engine. It holds
// no locks: callers serialize every call on a given account.
type MockAccount struct {
	id        string
	cfg       MockAccountConfig
	sources   []HistoricalDataSource
	store     StateStore
	publisher FillPublisher
	hours     *MarketHours
	now       func() time.Time
	newID     func() string

	clock     *VirtualClock
	cache     *HistoricalDataCache
	snapshots *SnapshotGenerator
	matcher   *FillMatcher
	lifecycle *OrderLifecycle
	positions *PositionBook
	orderIDs  *OrderIdentifierMap
	state     *AccountState
	connected bool
}

// NewMockAccount takes historical sources in order of preference: a connected
// upstream account first, then market-data feeds.
func NewMockAccount(id string, cfg MockAccountConfig, sources []HistoricalDataSource, opts ...MockAccountOption) *MockAccount {
	defaults := DefaultMockAccountConfig()
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = defaults.InitialBalance
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = defaults.DailyCap
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaults.LookbackDays
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = defaults.WindowDays
	}
	if cfg.PlaybackSpeed == 0 {
		cfg.PlaybackSpeed = defaults.PlaybackSpeed
	}
	if len(cfg.SupportedSpeeds) == 0 {
		cfg.SupportedSpeeds = defaults.SupportedSpeeds
	}

	account := &MockAccount{
		id:      id,
		cfg:     cfg,
		sources: sources,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(account)
	}

	if account.hours == nil {
		account.hours = DefaultMarketHours()
	}

	account.orderIDs = NewOrderIdentifierMap()
	account.state = NewAccountState(cfg.InitialBalance)

	return account
}

func (a *MockAccount) ID() string {
	return a.id
}

func (a *MockAccount) IsConnected() bool {
	return a.connected
}

func (a *MockAccount) Hours() *MarketHours {
	return a.hours
}

func (a *MockAccount) Config() MockAccountConfig {
	return a.cfg
}

func (a *MockAccount) restoreState(ctx context.Context) *AccountState {
	fresh := NewAccountState(a.cfg.InitialBalance)
	if a.store == nil {
		return fresh
	}

	persisted, err := a.store.Load(ctx)
	if err != nil {
		log.Errorf("Connect: failed to load state for %s, starting fresh: %v", a.id, err)
		return fresh
	}

	if persisted == nil {
		return fresh
	}

	state, err := persisted.ToAccountState()
	if err != nil {
		log.Errorf("Connect: failed to restore state for %s, starting fresh: %v", a.id, err)
		return fresh
	}

	log.Infof("Connect: restored %s with balance %.2f, %d fills and %d orders", a.id, state.Balance, state.Ledger.Len(), len(state.AllOrders()))

	return state
}

// Connect starts a session: it anchors the clock, restores persisted state and
// rebuilds positions from the ledger. Connecting twice is a no-op.
func (a *MockAccount) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}

	clock := NewVirtualClock(a.hours, a.cfg.SupportedSpeeds, a.now)
	if err := clock.Initialize(a.now(), a.cfg.LookbackDays, a.cfg.PlaybackSpeed); err != nil {
		return fmt.Errorf("Connect: %w", err)
	}

	a.clock = clock
	a.cache = NewHistoricalDataCache(a.hours, a.cfg.WindowDays, a.cfg.ProviderTimeout, a.sources...)
	a.snapshots = NewSnapshotGenerator(a.hours, a.cache)
	a.matcher = NewFillMatcher(a.hours, a.cache)

	a.state = a.restoreState(ctx)
	a.orderIDs = NewOrderIdentifierMap()

	// restored cursors belong to the previous session's timeline
	mockNow := clock.CurrentMockTime()
	for _, order := range a.state.AllOrders() {
		a.orderIDs.Bind(order.ClientOrderID, order.ID)
		if order.Status.IsCommitted() || order.Status == OrderStatusPlaced {
			order.MatchCursor = mockNow
		}
	}

	a.positions = NewPositionBook(a.state)
	a.positions.Reconstruct()

	a.lifecycle = NewOrderLifecycle(a.state, a.positions, a.orderIDs, a.hours, a.cfg.DailyCap)
	if a.newID != nil {
		a.lifecycle.newID = a.newID
	}

	a.connected = true

	log.WithFields(log.Fields{
		"account":      a.id,
		"window_start": clock.WindowStart().Format(time.RFC3339),
		"speed":        clock.Speed(),
	}).Info("Connect: mock account connected")

	return nil
}

// Disconnect persists the session. A persistence failure is logged and does
// not keep the account connected.
func (a *MockAccount) Disconnect(ctx context.Context) error {
	if !a.connected {
		return ErrNotConnected
	}

	a.persist(ctx)
	a.connected = false

	log.Infof("Disconnect: mock account %s disconnected", a.id)

	return nil
}

func (a *MockAccount) persist(ctx context.Context) {
	if a.store == nil {
		return
	}

	doc := NewPersistedState(a.id, a.state, a.now())
	if err := a.store.Save(ctx, doc); err != nil {
		log.Errorf("persist: failed to save state for %s: %v", a.id, err)
	}
}

func (a *MockAccount) checkConnected(fn string) error {
	if !a.connected {
		return fmt.Errorf("%s: %w", fn, ErrNotConnected)
	}

	return nil
}

// match runs the fill scan up to the current mock time, rebuilds positions
// when anything filled and publishes the fills.
func (a *MockAccount) match(ctx context.Context) []MatchedFill {
	matched := a.matcher.Match(ctx, a.state, a.clock.WindowStart(), a.clock.CurrentMockTime())
	if len(matched) == 0 {
		return matched
	}

	a.positions.Reconstruct()

	if a.publisher != nil {
		for _, m := range matched {
			a.publisher.PublishFill(&OrderFilledEvent{
				AccountID: a.id,
				Order:     m.Order.Clone(),
				Fill:      m.Fill,
				Balance:   a.state.Balance,
			})
		}
	}

	return matched
}

// MatchOrders returns copies of the filled orders.
func (a *MockAccount) MatchOrders(ctx context.Context) ([]MatchedFill, error) {
	if err := a.checkConnected("MatchOrders"); err != nil {
		return nil, err
	}

	matched := a.match(ctx)
	for i := range matched {
		matched[i].Order = matched[i].Order.Clone()
	}

	return matched, nil
}

func (a *MockAccount) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	if err := a.checkConnected("Snapshot"); err != nil {
		return nil, err
	}

	a.match(ctx)

	return a.snapshots.Generate(ctx, symbol, a.clock.WindowStart(), a.clock.CurrentMockTime()), nil
}

func (a *MockAccount) Snapshots(ctx context.Context, symbols []string) ([]*Snapshot, error) {
	if err := a.checkConnected("Snapshots"); err != nil {
		return nil, err
	}

	a.match(ctx)

	mockNow := a.clock.CurrentMockTime()
	result := make([]*Snapshot, 0, len(symbols))
	for _, symbol := range symbols {
		result = append(result, a.snapshots.Generate(ctx, symbol, a.clock.WindowStart(), mockNow))
	}

	return result, nil
}

// KBars queries the historical sources directly and bypasses the replay
// window. Provider failures yield an empty slice.
func (a *MockAccount) KBars(ctx context.Context, symbol string, start, end time.Time, interval BarInterval) ([]*Bar, error) {
	if err := a.checkConnected("KBars"); err != nil {
		return nil, err
	}

	if err := interval.Validate(); err != nil {
		return nil, fmt.Errorf("KBars: %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("KBars: end %s is before start %s", end, start)
	}

	return a.cache.FetchRange(ctx, symbol, start, end, interval), nil
}

func (a *MockAccount) ListPositions(ctx context.Context) ([]*Position, error) {
	if err := a.checkConnected("ListPositions"); err != nil {
		return nil, err
	}

	a.match(ctx)

	return a.positions.List(), nil
}

// ListTrades returns copies of every order the session knows about, in list
// order: placed, committed, filled, cancelled.
func (a *MockAccount) ListTrades(ctx context.Context) ([]*Order, error) {
	if err := a.checkConnected("ListTrades"); err != nil {
		return nil, err
	}

	a.match(ctx)

	orders := a.state.AllOrders()
	for i, order := range orders {
		orders[i] = order.Clone()
	}

	return orders, nil
}

func (a *MockAccount) Fills() []FillRecord {
	return a.state.Ledger.Records()
}

func (a *MockAccount) Balance() float64 {
	return a.state.Balance
}

func (a *MockAccount) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if err := a.checkConnected("PlaceOrder"); err != nil {
		return nil, err
	}

	a.match(ctx)

	return a.lifecycle.PlaceOrder(req, a.clock.CurrentMockTime()).detached(), nil
}

func (a *MockAccount) CommitOrder(ctx context.Context, id string) (*OrderResult, error) {
	if err := a.checkConnected("CommitOrder"); err != nil {
		return nil, err
	}

	return a.lifecycle.CommitOrder(id, a.clock.CurrentMockTime()).detached(), nil
}

// CancelOrder scans for fills first so an order that has already crossed its
// limit reports ALREADY_FILLED.
func (a *MockAccount) CancelOrder(ctx context.Context, id string) (*OrderResult, error) {
	if err := a.checkConnected("CancelOrder"); err != nil {
		return nil, err
	}

	a.match(ctx)

	return a.lifecycle.CancelOrder(id, a.clock.CurrentMockTime()).detached(), nil
}

func (a *MockAccount) SetPlaybackSpeed(speed float64) error {
	if err := a.checkConnected("SetPlaybackSpeed"); err != nil {
		return err
	}

	if err := a.clock.SetSpeed(speed); err != nil {
		return err
	}

	a.cfg.PlaybackSpeed = speed
	return nil
}

func (a *MockAccount) Clock() (ClockReading, error) {
	if err := a.checkConnected("Clock"); err != nil {
		return ClockReading{}, err
	}

	return a.clock.Now(), nil
}

func (a *MockAccount) SupportedSpeeds() []float64 {
	return append([]float64(nil), a.cfg.SupportedSpeeds...)
}

// Summary marks open positions to the latest replayed close.
func (a *MockAccount) Summary(ctx context.Context) (*AccountSummary, error) {
	if err := a.checkConnected("Summary"); err != nil {
		return nil, err
	}

	a.match(ctx)

	reading := a.clock.Now()
	positions := a.positions.List()

	equity := a.state.Balance
	for _, position := range positions {
		snapshot := a.snapshots.Generate(ctx, position.Symbol, a.clock.WindowStart(), reading.MockNow)
		equity += float64(position.Quantity) * snapshot.Close
	}

	return &AccountSummary{
		AccountID:     a.id,
		Balance:       a.state.Balance,
		Equity:        equity,
		Positions:     positions,
		OpenOrders:    len(a.state.PlacedOrders) + len(a.state.CommittedOrders),
		FilledOrders:  len(a.state.FilledOrders),
		Fills:         a.state.Ledger.Len(),
		Clock:         reading,
		IsConnected:   a.connected,
		PlaybackSpeed: reading.Speed,
	}, nil
}
