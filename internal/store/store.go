// Package store is the gorm-backed persistence layer for schedules,
// invoices, contracts and generation records.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DueRefs implements scheduler.Store: every active schedule of either kind
// whose next occurrence has arrived.
func (s *Store) DueRefs(now time.Time) ([]models.ScheduleRef, error) {
	var refs []models.ScheduleRef

	var invoiceIDs []uint
	if err := s.db.Model(&models.RecurringInvoiceSchedule{}).
		Where("active = ? AND next_occurrence <= ?", true, now).
		Pluck("id", &invoiceIDs).Error; err != nil {
		return nil, fmt.Errorf("selecting due invoice schedules: %w", err)
	}
	for _, id := range invoiceIDs {
		refs = append(refs, models.ScheduleRef{Kind: models.KindInvoice, ID: id})
	}

	var reportIDs []uint
	if err := s.db.Model(&models.ScheduledReportSchedule{}).
		Where("active = ? AND next_occurrence <= ?", true, now).
		Pluck("id", &reportIDs).Error; err != nil {
		return nil, fmt.Errorf("selecting due report schedules: %w", err)
	}
	for _, id := range reportIDs {
		refs = append(refs, models.ScheduleRef{Kind: models.KindReport, ID: id})
	}

	return refs, nil
}

func (s *Store) Load(ref models.ScheduleRef) (scheduler.Schedule, error) {
	switch ref.Kind {
	case models.KindInvoice:
		var sched models.RecurringInvoiceSchedule
		if err := s.db.First(&sched, ref.ID).Error; err != nil {
			return nil, mapNotFound(err)
		}
		return &sched, nil
	case models.KindReport:
		var sched models.ScheduledReportSchedule
		if err := s.db.First(&sched, ref.ID).Error; err != nil {
			return nil, mapNotFound(err)
		}
		return &sched, nil
	default:
		return nil, fmt.Errorf("unknown schedule kind: %s", ref.Kind)
	}
}

func (s *Store) Save(sched scheduler.Schedule) error {
	return s.db.Save(sched).Error
}

func (s *Store) Delete(ref models.ScheduleRef) error {
	var err error
	switch ref.Kind {
	case models.KindInvoice:
		res := s.db.Delete(&models.RecurringInvoiceSchedule{}, ref.ID)
		err = res.Error
		if err == nil && res.RowsAffected == 0 {
			err = scheduler.ErrNotFound
		}
	case models.KindReport:
		res := s.db.Delete(&models.ScheduledReportSchedule{}, ref.ID)
		err = res.Error
		if err == nil && res.RowsAffected == 0 {
			err = scheduler.ErrNotFound
		}
	default:
		err = fmt.Errorf("unknown schedule kind: %s", ref.Kind)
	}
	return err
}

func (s *Store) RecordGeneration(rec *models.GenerationRecord) error {
	return s.db.Create(rec).Error
}

func (s *Store) ListGenerations(ref models.ScheduleRef, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []models.GenerationRecord
	err := s.db.Where("schedule_kind = ? AND schedule_id = ?", ref.Kind, ref.ID).
		Order("triggered_at desc").Limit(limit).Find(&recs).Error
	return recs, err
}

// Invoice schedules

func (s *Store) CreateInvoiceSchedule(sched *models.RecurringInvoiceSchedule) error {
	return s.db.Create(sched).Error
}

func (s *Store) GetInvoiceSchedule(id uint) (*models.RecurringInvoiceSchedule, error) {
	var sched models.RecurringInvoiceSchedule
	if err := s.db.First(&sched, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &sched, nil
}

func (s *Store) ListInvoiceSchedules() ([]models.RecurringInvoiceSchedule, error) {
	var scheds []models.RecurringInvoiceSchedule
	err := s.db.Order("id").Find(&scheds).Error
	return scheds, err
}

// Report schedules

func (s *Store) CreateReportSchedule(sched *models.ScheduledReportSchedule) error {
	return s.db.Create(sched).Error
}

func (s *Store) GetReportSchedule(id uint) (*models.ScheduledReportSchedule, error) {
	var sched models.ScheduledReportSchedule
	if err := s.db.First(&sched, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &sched, nil
}

func (s *Store) ListReportSchedules() ([]models.ScheduledReportSchedule, error) {
	var scheds []models.ScheduledReportSchedule
	err := s.db.Order("id").Find(&scheds).Error
	return scheds, err
}

// Contracts

func (s *Store) CreateContract(c *models.Contract) error {
	return s.db.Create(c).Error
}

func (s *Store) GetContract(id uint) (*models.Contract, error) {
	var c models.Contract
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}

func (s *Store) ListContracts() ([]models.Contract, error) {
	var cs []models.Contract
	err := s.db.Order("id").Find(&cs).Error
	return cs, err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scheduler.ErrNotFound
	}
	return err
}
