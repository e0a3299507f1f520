package main

import (
	"errors"
	"sync"
)

var errDuplicateReportID = errors.New("report id already exists")

// ReportStore holds the pending and approved queues for the process lifetime.
// All access goes through its methods; the slices never leave the lock.
type ReportStore struct {
	mu       sync.Mutex
	pending  []Report
	approved []Report
}

func NewReportStore() *ReportStore {
	return &ReportStore{
		pending:  []Report{},
		approved: []Report{},
	}
}

// AddPending appends to the pending queue. Ids must be unique across both queues.
func (s *ReportStore) AddPending(report Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := report.ID()
	if indexOfReport(s.pending, id) >= 0 || indexOfReport(s.approved, id) >= 0 {
		return errDuplicateReportID
	}
	s.pending = append(s.pending, report.Clone())
	return nil
}

func (s *ReportStore) Pending() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReports(s.pending)
}

func (s *ReportStore) Approved() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneReports(s.approved)
}

func (s *ReportStore) FindApproved(id string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfReport(s.approved, id)
	if idx < 0 {
		return nil, false
	}
	return s.approved[idx].Clone(), true
}

func (s *ReportStore) RemovePending(id string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfReport(s.pending, id)
	if idx < 0 {
		return nil, false
	}
	removed := s.pending[idx]
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
	return removed, true
}

// Promote moves a pending report to the approved queue, applying transform on
// the way. The id is restored after transform so it can never change.
func (s *ReportStore) Promote(id string, transform func(Report) Report) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOfReport(s.pending, id)
	if idx < 0 {
		return nil, false
	}
	report := s.pending[idx]
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)

	if transform != nil {
		report = transform(report)
	}
	if report == nil {
		report = Report{}
	}
	report[fieldID] = id
	s.approved = append(s.approved, report)
	return report.Clone(), true
}

// Counts returns the queue sizes without copying reports.
func (s *ReportStore) Counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), len(s.approved)
}

func indexOfReport(reports []Report, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range reports {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
