// Package testutil provides shared test doubles
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// PriceCall records one GetDailyCloses invocation.
type PriceCall struct {
	Code     string
	From, To time.Time
}

// MockPriceClient implements PriceClient for testing
type MockPriceClient struct {
	mu     sync.Mutex
	Series map[string][]models.PricePoint
	Errors map[string]error
	Calls  []PriceCall
}

// NewMockPriceClient creates a mock price client
func NewMockPriceClient() *MockPriceClient {
	return &MockPriceClient{
		Series: make(map[string][]models.PricePoint),
		Errors: make(map[string]error),
	}
}

// GetDailyCloses returns the configured series filtered to [from, to].
func (m *MockPriceClient) GetDailyCloses(ctx context.Context, code string, from, to time.Time) ([]models.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, PriceCall{Code: code, From: from, To: to})
	if err := m.Errors[code]; err != nil {
		return nil, err
	}
	var out []models.PricePoint
	for _, p := range m.Series[code] {
		if !from.IsZero() && p.Date.Before(from) {
			continue
		}
		if !to.IsZero() && p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// CallsFor returns the calls made for code.
func (m *MockPriceClient) CallsFor(code string) []PriceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PriceCall
	for _, c := range m.Calls {
		if c.Code == code {
			out = append(out, c)
		}
	}
	return out
}

// MockPriceTable implements PriceTable for testing
type MockPriceTable struct {
	Series map[string][]models.PricePoint
	Err    error
	Calls  int
}

func (m *MockPriceTable) LoadAll(ctx context.Context, codes []string) (map[string][]models.PricePoint, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string][]models.PricePoint)
	for code, series := range m.Series {
		out[code] = series
	}
	return out, nil
}

// MockPriceCache is an in-memory PriceCache
type MockPriceCache struct {
	mu      sync.Mutex
	Data    map[string][]models.PricePoint
	LoadErr error
	SaveErr error
	Saves   int
}

// NewMockPriceCache creates an empty in-memory cache
func NewMockPriceCache() *MockPriceCache {
	return &MockPriceCache{Data: make(map[string][]models.PricePoint)}
}

func (m *MockPriceCache) Load(ctx context.Context, code string) ([]models.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return append([]models.PricePoint(nil), m.Data[code]...), nil
}

func (m *MockPriceCache) Save(ctx context.Context, code string, points []models.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Data[code] = models.MergePricePoints(m.Data[code], points)
	return nil
}

func (m *MockPriceCache) Codes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0, len(m.Data))
	for code := range m.Data {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

func (m *MockPriceCache) Close() error { return nil }

// SentPhoto records one SendPhoto invocation.
type SentPhoto struct {
	BotToken string
	ChatID   string
	Filename string
	Size     int
	Caption  string
}

// MockPhotoSender implements PhotoSender for testing
type MockPhotoSender struct {
	mu     sync.Mutex
	Sent   []SentPhoto
	Errors map[string]error // keyed by chat id
}

func (m *MockPhotoSender) SendPhoto(ctx context.Context, botToken, chatID, filename string, image []byte, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errors[chatID]; err != nil {
		return err
	}
	m.Sent = append(m.Sent, SentPhoto{BotToken: botToken, ChatID: chatID, Filename: filename, Size: len(image), Caption: caption})
	return nil
}

// DailyPrices builds n consecutive daily points starting at start.
func DailyPrices(start time.Time, prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}
