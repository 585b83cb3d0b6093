// Package maxprocs automatically sets GOMAXPROCS to match the Linux
// container CPU quota, if any.
package maxprocs

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"
)

var skip = func(_ string, _ ...interface{}) {}

func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(skip)); err != nil {
		logrus.WithError(err).Debug("Failed to set GOMAXPROCS")
	}
}
