package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/air-quality-zones/internal/airquality"
)

// RetryPolicy bounds how often a failed sensor poll is repeated.
type RetryPolicy struct {
	Retries  int
	Initial  time.Duration
	MaxDelay time.Duration
}

// delay returns the wait before retry number attempt (0-based), doubling each time.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.Initial << attempt
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		return p.MaxDelay
	}
	return d
}

// statusError is a non-2xx reply from the sensor server.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "sensor server replied " + http.StatusText(e.code)
}

// payloadError marks a reply that arrived but cannot be used. Retrying does not help.
type payloadError struct {
	err error
}

func (e *payloadError) Error() string { return e.err.Error() }
func (e *payloadError) Unwrap() error { return e.err }

// sensorPayload is the body of the sensor server's GET /aqi.
type sensorPayload struct {
	Sensors    []airquality.Reading `json:"sensors"`
	Generation uint64               `json:"generation"`
}

func (p sensorPayload) validate() error {
	if len(p.Sensors) == 0 {
		return eris.New("no sensors in reply")
	}
	for i, r := range p.Sensors {
		if !r.InUnitSquare() {
			return eris.Errorf("sensor %d at (%g, %g) is outside the unit square", i, r.X, r.Y)
		}
	}
	return nil
}

// RemoteSensorSource reads sensor snapshots from a sensor server's GET /aqi endpoint.
// Polls go through a circuit breaker and failed polls are retried with exponential backoff.
type RemoteSensorSource struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	retry    RetryPolicy
}

// NewRemoteSensorSource creates a source for the sensor server at baseURL.
func NewRemoteSensorSource(client *http.Client, baseURL string) *RemoteSensorSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RemoteSensorSource{
		endpoint: strings.TrimRight(baseURL, "/") + "/aqi",
		client:   client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "sensor-server",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		retry: RetryPolicy{Retries: 2, Initial: 200 * time.Millisecond, MaxDelay: 2 * time.Second},
	}
}

// Snapshot fetches the current readings. Every failure, including a reply with no
// sensors or sensors outside the unit square, is reported as ErrUpstreamUnavailable.
func (s *RemoteSensorSource) Snapshot(ctx context.Context) (airquality.Snapshot, error) {
	payload, err := s.poll(ctx)
	if err != nil {
		zap.L().Warn("sensor server poll failed", zap.String("url", s.endpoint), zap.Error(err))
		return airquality.Snapshot{}, eris.Wrapf(airquality.ErrUpstreamUnavailable, "sensor-server: %v", err)
	}

	return airquality.Snapshot{
		Readings:   payload.Sensors,
		Generation: payload.Generation,
		UpdatedAt:  time.Now().UTC(),
	}, nil
}

func (s *RemoteSensorSource) poll(ctx context.Context) (sensorPayload, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return sensorPayload{}, err
		}

		res, err := s.breaker.Execute(func() (interface{}, error) {
			return s.fetch(ctx)
		})
		if err == nil {
			return res.(sensorPayload), nil
		}
		if !retryable(err) || attempt >= s.retry.Retries {
			return sensorPayload{}, err
		}

		timer := time.NewTimer(s.retry.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return sensorPayload{}, ctx.Err()
		case <-timer.C:
		}
	}
}

// fetch performs a single GET and decodes a validated payload.
func (s *RemoteSensorSource) fetch(ctx context.Context) (sensorPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return sensorPayload{}, &payloadError{err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return sensorPayload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return sensorPayload{}, &statusError{code: resp.StatusCode}
	}

	var p sensorPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return sensorPayload{}, &payloadError{err: eris.Wrap(err, "decode")}
	}
	if err := p.validate(); err != nil {
		return sensorPayload{}, &payloadError{err: err}
	}
	return p, nil
}

// retryable reports whether another poll may succeed: transport failures, 429 and 5xx.
func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var pe *payloadError
	if errors.As(err, &pe) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}
