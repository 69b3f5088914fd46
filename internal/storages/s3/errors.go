package s3

import (
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

type Error struct {
	error
}

func NewError(err error, format string, args ...interface{}) Error {
	return Error{errors.Wrapf(err, "S3 error : "+format, args...)}
}

func (err Error) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}

func (err Error) Unwrap() error {
	return err.error
}

var throttlingCodes = map[string]bool{
	"SlowDown":                 true,
	"Throttling":               true,
	"ThrottlingException":      true,
	"RequestLimitExceeded":     true,
	"RequestThrottled":         true,
	"TooManyRequestsException": true,
}

func isThrottlingCode(code string) bool {
	return throttlingCodes[code]
}

// isThrottlingError reports whether S3 asked the caller to reduce its request rate.
func isThrottlingError(err error) bool {
	if err == nil {
		return false
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) && isThrottlingCode(awsErr.Code()) {
		return true
	}
	var requestFailure awserr.RequestFailure
	if errors.As(err, &requestFailure) && requestFailure.StatusCode() == http.StatusServiceUnavailable {
		return true
	}
	return request.IsErrorThrottle(err)
}
