// Package backup exposes a handler on the monitoring port that lets
// operators trigger a new database backup out of band from node operation.
package backup

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "db")

// Exporter writes a backup of the underlying store to outputPath.
type Exporter interface {
	Backup(ctx context.Context, outputPath string, permissionOverride bool) error
}

// Handler returns an http handler that runs a backup on every request.
// Passing a permissionOverride query parameter loosens the file mode of the
// written backup.
func Handler(bk Exporter, outputDir string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Creating database backup from HTTP webhook")

		_, permissionOverride := r.URL.Query()["permissionOverride"]
		if err := bk.Backup(r.Context(), outputDir, permissionOverride); err != nil {
			log.WithError(err).Error("Could not create backup")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.WithError(err).Error("Could not write response")
		}
	}
}
