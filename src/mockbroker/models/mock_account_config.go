package models

import "time"

type MockAccountConfig struct {
	InitialBalance  float64
	DailyCap        float64
	LookbackDays    int
	WindowDays      int
	PlaybackSpeed   float64
	SupportedSpeeds []float64
	ProviderTimeout time.Duration
}

func DefaultMockAccountConfig() MockAccountConfig {
	return MockAccountConfig{
		InitialBalance:  1_000_000,
		DailyCap:        5_000_000,
		LookbackDays:    30,
		WindowDays:      5,
		PlaybackSpeed:   1,
		SupportedSpeeds: SupportedPlaybackSpeeds,
		ProviderTimeout: 10 * time.Second,
	}
}

type MockAccountOption func(*MockAccount)

func WithStateStore(store StateStore) MockAccountOption {
	return func(a *MockAccount) {
		a.store = store
	}
}

func WithFillPublisher(publisher FillPublisher) MockAccountOption {
	return func(a *MockAccount) {
		a.publisher = publisher
	}
}

// WithNowFunc replaces the wall clock driving the virtual clock.
func WithNowFunc(now func() time.Time) MockAccountOption {
	return func(a *MockAccount) {
		a.now = now
	}
}

func WithMarketHours(hours *MarketHours) MockAccountOption {
	return func(a *MockAccount) {
		a.hours = hours
	}
}

func WithIDGenerator(newID func() string) MockAccountOption {
	return func(a *MockAccount) {
		a.newID = newID
	}
}
