package logger

import (
	"time"
)

// StageLogger records the start, row counts, and outcome of one pipeline
// stage. Each run stage logs an opening line, any number of count lines, and
// exactly one closing line (success or error) with the elapsed time.
type StageLogger struct {
	logger    Logger
	stage     string
	fields    Fields
	startTime time.Time
}

// NewStageLogger creates a stage logger and logs the opening line.
func NewStageLogger(stage string, logger Logger) *StageLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}

	sl := &StageLogger{
		logger:    logger.WithComponent("pipeline"),
		stage:     stage,
		fields:    make(Fields),
		startTime: time.Now(),
	}

	sl.logger.WithField("stage", stage).Info("Starting stage")
	return sl
}

// WithField adds a field carried on every subsequent line for this stage.
func (sl *StageLogger) WithField(key string, value interface{}) *StageLogger {
	sl.fields[key] = value
	return sl
}

// Rows logs a row count observed inside the stage.
func (sl *StageLogger) Rows(label string, count int) {
	fields := Fields{
		"stage": sl.stage,
		"rows":  count,
	}
	for k, v := range sl.fields {
		fields[k] = v
	}
	sl.logger.WithFields(fields).Info(label)
}

// Success logs the closing line for a completed stage.
func (sl *StageLogger) Success(message string) {
	fields := Fields{
		"stage":    sl.stage,
		"duration": time.Since(sl.startTime).String(),
		"status":   "success",
	}
	for k, v := range sl.fields {
		fields[k] = v
	}
	sl.logger.WithFields(fields).Info(message)
}

// Error logs the closing line for a failed stage.
func (sl *StageLogger) Error(err error, message string) {
	fields := Fields{
		"stage":    sl.stage,
		"duration": time.Since(sl.startTime).String(),
		"status":   "error",
	}
	for k, v := range sl.fields {
		fields[k] = v
	}
	sl.logger.WithError(err).WithFields(fields).Error(message)
}

// RunBanner writes the delimiter lines that separate scheduled runs in a
// shared log file.
func RunBanner(log Logger, pipeline, runID string) {
	const delimiter = "================================================================================"
	log.Info(delimiter)
	log.WithFields(Fields{
		"pipeline": pipeline,
		"run_id":   runID,
	}).Infof("Starting %s run at %s", pipeline, time.Now().Format("2006-01-02 15:04:05"))
	log.Info(delimiter)
}
