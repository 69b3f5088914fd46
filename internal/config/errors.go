package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wal-g/tracelog"
)

type ConfigurationError struct {
	error
}

func NewConfigurationError(format string, args ...interface{}) ConfigurationError {
	return ConfigurationError{errors.Errorf(format, args...)}
}

func WrapConfigurationError(err error, format string, args ...interface{}) ConfigurationError {
	return ConfigurationError{errors.Wrapf(err, format, args...)}
}

func (err ConfigurationError) Error() string {
	return fmt.Sprintf(tracelog.GetErrorFormatter(), err.error)
}
