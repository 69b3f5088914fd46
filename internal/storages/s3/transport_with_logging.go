package s3

import (
	"net/http"

	"github.com/wal-g/s3rm/internal/statistics"
	"github.com/wal-g/tracelog"
)

type loggingTransport struct {
	underlying http.RoundTripper
}

func (s *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := s.underlying.RoundTrip(r)
	if err != nil {
		return resp, err
	}

	statistics.WriteStatusCodeMetric(resp.StatusCode)
	tracelog.DebugLogger.Printf("%s %s response code: %d", r.Method, r.URL.Path, resp.StatusCode)
	if resp.StatusCode == http.StatusServiceUnavailable {
		tracelog.DebugLogger.Printf("%s %s was throttled", r.Method, r.URL.Path)
	}
	return resp, err
}

func NewRoundTripperWithLogging(old http.RoundTripper) http.RoundTripper {
	if old == nil {
		old = http.DefaultTransport
	}
	return &loggingTransport{underlying: old}
}
