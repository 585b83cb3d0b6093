package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// logCounter counts emitted log entries by severity and component prefix.
var logCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "log_entries_total",
	Help: "Total number of log messages.",
}, []string{"level", "prefix"})

// LogrusCollector is a logrus hook feeding per level and per component log
// counts into the process metrics registry. Components are identified by the
// "prefix" field the package level loggers attach to every entry.
type LogrusCollector struct{}

// NewLogrusCollector returns a hook ready to be attached with logrus.AddHook.
func NewLogrusCollector() *LogrusCollector {
	return &LogrusCollector{}
}

// Fire is called by logrus on every log call at one of the hooked levels.
func (*LogrusCollector) Fire(entry *logrus.Entry) error {
	prefix := "global"
	if v, ok := entry.Data["prefix"]; ok {
		s, ok := v.(string)
		if !ok {
			return errors.New("prefix field is not a string")
		}
		prefix = s
	}
	logCounter.WithLabelValues(entry.Level.String(), prefix).Inc()
	return nil
}

// Levels returns the severities the hook subscribes to. Debug and below are
// left out to keep the counter cheap on chatty code paths.
func (*LogrusCollector) Levels() []logrus.Level {
	return []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
}
