package models

import (
	"time"

	"gorm.io/gorm"
)

type Trigger string

const (
	TriggerScheduled Trigger = "SCHEDULED"
	TriggerManual    Trigger = "MANUAL"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// GenerationRecord is the audit trail of one coordinator run. It is written
// for every completed attempt, successful or not; scheduling correctness
// does not depend on it.
type GenerationRecord struct {
	gorm.Model
	RunID        string       `json:"run_id" gorm:"uniqueIndex;not null"`
	ScheduleKind ScheduleKind `json:"schedule_kind" gorm:"index:idx_generation_schedule"`
	ScheduleID   uint         `json:"schedule_id" gorm:"index:idx_generation_schedule"`
	Trigger      Trigger      `json:"trigger" gorm:"not null"`
	Outcome      Outcome      `json:"outcome" gorm:"not null"`
	TriggeredAt  time.Time    `json:"triggered_at"`
	Detail       string       `json:"detail"`
}
