package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// StatePath is the server endpoint serving the backing document.
const StatePath = "/api/v1/state"

var httpClient = &http.Client{Timeout: 10 * time.Second}

// ErrUnavailable is returned while the circuit breaker rejects requests.
var ErrUnavailable = errors.New("backing store unavailable")

// HTTPStore reads and writes the document through a homebar server. Calls go
// through a circuit breaker so an unreachable server fails fast.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[Columns]
	logger  *zap.Logger
}

var _ Store = (*HTTPStore)(nil)

func NewHTTPStore(baseURL string, logger *zap.Logger) *HTTPStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
	s.cb = gobreaker.NewCircuitBreaker[Columns](gobreaker.Settings{
		Name:        "homebar-state",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return s
}

func (s *HTTPStore) Read(ctx context.Context) (Columns, error) {
	return s.execute(func() (Columns, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+StatePath, nil)
		if err != nil {
			return Columns{}, fmt.Errorf("build state request: %w", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return Columns{}, fmt.Errorf("fetch state: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return Columns{}, statusError("fetch state", resp)
		}
		return DecodeColumns(resp.Body)
	})
}

func (s *HTTPStore) Write(ctx context.Context, cols Columns) error {
	body, err := json.Marshal(cols.Pad())
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.execute(func() (Columns, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+StatePath, bytes.NewReader(body))
		if err != nil {
			return Columns{}, fmt.Errorf("build state request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return Columns{}, fmt.Errorf("store state: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			return Columns{}, statusError("store state", resp)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return Columns{}, nil
	})
	return err
}

func (s *HTTPStore) execute(fn func() (Columns, error)) (Columns, error) {
	cols, err := s.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn("state request rejected", zap.Error(err))
			return Columns{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return Columns{}, err
	}
	return cols, nil
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: %s: %s", op, resp.Status, strings.TrimSpace(string(msg)))
}
