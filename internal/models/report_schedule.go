package models

import (
	"fmt"

	"gorm.io/gorm"
)

type ReportType string

const (
	ReportTypeRevenue     ReportType = "revenue"
	ReportTypeOutstanding ReportType = "outstanding"
	ReportTypeActivity    ReportType = "activity"
)

type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatText ReportFormat = "text"
)

type ScheduledReportSchedule struct {
	gorm.Model
	Name       string         `json:"name" gorm:"uniqueIndex;not null"`
	ReportType ReportType     `json:"report_type" gorm:"not null"`
	Recipients StringList     `json:"recipients" gorm:"type:json"`
	Format     ReportFormat   `json:"format"`
	Filters    FilterMap      `json:"filters" gorm:"type:json"`
	Recurrence RecurrenceRule `json:"recurrence" gorm:"embedded"`
}

func (s *ScheduledReportSchedule) Ref() ScheduleRef {
	return ScheduleRef{Kind: KindReport, ID: s.ID}
}

func (s *ScheduledReportSchedule) Rule() *RecurrenceRule {
	return &s.Recurrence
}

func (s *ScheduledReportSchedule) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.ReportType {
	case ReportTypeRevenue, ReportTypeOutstanding, ReportTypeActivity:
	default:
		return fmt.Errorf("unknown report type: %s", s.ReportType)
	}
	if len(s.Recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	for i, addr := range s.Recipients {
		if addr == "" {
			return fmt.Errorf("recipient %d is empty", i)
		}
	}
	return s.Recurrence.Validate(true)
}
