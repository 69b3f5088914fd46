package s3

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/wal-g/tracelog"
)

func NewThrottleAwareRetryer(baseRetryer request.Retryer) *ThrottleAwareRetryer {
	return &ThrottleAwareRetryer{
		baseRetryer,
	}
}

// ThrottleAwareRetryer retries connection resets and signature glitches,
// and leaves throttled requests to the worker pool backoff.
type ThrottleAwareRetryer struct {
	request.Retryer
}

func (r ThrottleAwareRetryer) ShouldRetry(req *request.Request) bool {
	if req.Error != nil && strings.Contains(req.Error.Error(), "connection reset by peer") {
		return true
	}

	if isThrottlingError(req.Error) {
		return false
	}

	if req.Error != nil && strings.Contains(req.Error.Error(), "SignatureDoesNotMatch") {
		auth := r.getAuthHeader(req)

		stash := req.Error
		req.Error = nil // req.Sign() fails while req.Error is set
		err := req.Sign()
		req.Error = stash

		if err != nil {
			tracelog.ErrorLogger.Printf("Cannot re-sign request: %v", err)
			return false
		}
		tracelog.WarningLogger.Printf("Old signature '%v', new signature: '%v'", auth, r.getAuthHeader(req))
		return true
	}

	return r.Retryer.ShouldRetry(req)
}

func (r ThrottleAwareRetryer) getAuthHeader(req *request.Request) string {
	if req.HTTPRequest == nil {
		return ""
	}
	return req.HTTPRequest.Header.Get("Authorization")
}
