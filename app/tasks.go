package app

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// ReportTask runs on a schedule and logs a line about the stored users.
type ReportTask struct {
	Users UserRepository `inject:""`
	Log   *zap.Logger    `inject:""`

	runs atomic.Int64
}

// Report logs how many users are stored.
func (t *ReportTask) Report() {
	n := t.runs.Add(1)
	t.Log.Info("user report", zap.Int("users", len(t.Users.All())), zap.Int64("run", n))
}

// Runs returns how many times Report ran.
func (t *ReportTask) Runs() int64 { return t.runs.Load() }
