package services

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// RequestInfo describes one completed round trip.
type RequestInfo struct {
	Method   string
	URL      string
	Status   int // zero when the request failed before a response
	Duration time.Duration
	Err      error
}

// RequestObserver is notified after every request the client sends,
// including the OAuth token exchange.
type RequestObserver interface {
	Observe(info RequestInfo)
}

// ObserverFunc adapts a function to [RequestObserver].
type ObserverFunc func(info RequestInfo)

func (f ObserverFunc) Observe(info RequestInfo) { f(info) }

// Observers fans a request out to several observers.
type Observers []RequestObserver

func (o Observers) Observe(info RequestInfo) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(info)
		}
	}
}

// LogObserver logs every request at debug level.
func LogObserver(logger *log.Logger) RequestObserver {
	return ObserverFunc(func(info RequestInfo) {
		kv := []any{"method", info.Method, "url", info.URL, "status", info.Status, "elapsed", info.Duration.Round(time.Millisecond)}
		if info.Err != nil {
			logger.Debug("http request failed", append(kv, "error", info.Err)...)
			return
		}
		logger.Debug("http request", kv...)
	})
}

// observingTransport reports each round trip to an observer.
type observingTransport struct {
	next     http.RoundTripper
	observer RequestObserver
}

func (t *observingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	info := RequestInfo{
		Method:   req.Method,
		URL:      req.URL.Redacted(),
		Duration: time.Since(start),
		Err:      err,
	}
	if resp != nil {
		info.Status = resp.StatusCode
	}
	t.observer.Observe(info)

	return resp, err
}

// withObserver returns a shallow copy of client whose transport reports to observer.
func withObserver(client *http.Client, observer RequestObserver) *http.Client {
	if observer == nil {
		return client
	}

	next := client.Transport
	if next == nil {
		next = http.DefaultTransport
	}

	observed := *client
	observed.Transport = &observingTransport{next: next, observer: observer}
	return &observed
}
