package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errReportNotFound     = errors.New("report not found")
	errUnauthorized       = errors.New("admin session required")
	errInvalidCredentials = errors.New("invalid credentials")
	errReportNotQueued    = errors.New("report could not be queued")
)

const maxReportIDAttempts = 5

// Moderation owns the report store and implements the submit / approve / deny
// lifecycle. Reports only ever move pending -> approved or pending -> removed.
type Moderation struct {
	store             *ReportStore
	adminPasswordHash []byte
	log               *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewModeration(store *ReportStore, adminPasswordHash []byte, logger *slog.Logger) *Moderation {
	return &Moderation{
		store:             store,
		adminPasswordHash: adminPasswordHash,
		log:               logger,
		now:               time.Now,
		newID:             uuid.NewString,
	}
}

// Submit queues a report for review and returns the stored copy with its id.
// It never rejects input; it only fails when no unique id could be assigned.
func (m *Moderation) Submit(fields Report) (Report, error) {
	report := fields.Clone()
	if report == nil {
		report = Report{}
	}
	delete(report, fieldApprovedAt)
	report[fieldSubmittedAt] = m.now().UTC().Format(time.RFC3339)
	fillInferredState(report)

	var err error
	for attempt := 0; attempt < maxReportIDAttempts; attempt++ {
		report[fieldID] = m.newID()
		if err = m.store.AddPending(report); err == nil {
			break
		}
		m.log.Warn("report id collision, regenerating", "attempt", attempt+1)
	}
	if err != nil {
		m.log.Error("report could not be queued", "attempts", maxReportIDAttempts, "err", err)
		return nil, fmt.Errorf("%w: %w", errReportNotQueued, err)
	}

	m.log.Info("report submitted", "report_id", report.ID(), "state", report.String(fieldState))
	return report.Clone(), nil
}

// Approve publishes a pending report. A valid clientState overrides whatever
// the heuristic derived.
func (m *Moderation) Approve(id string, admin bool, clientState string) (Report, error) {
	if !admin {
		return nil, errUnauthorized
	}

	overrideAbbr := strings.ToUpper(strings.TrimSpace(clientState))
	hasOverride := isValidStateAbbreviation(overrideAbbr)
	approvedAt := m.now().UTC().Format(time.RFC3339)

	approved, ok := m.store.Promote(id, func(pending Report) Report {
		report := sanitizeReport(pending)
		fillInferredState(report)
		if hasOverride {
			report[fieldState] = overrideAbbr
			report[fieldStateFull] = stateFullName(overrideAbbr)
		}
		report[fieldApprovedAt] = approvedAt
		return report
	})
	if !ok {
		return nil, errReportNotFound
	}

	m.log.Info("report approved", "report_id", id, "state", approved.String(fieldState), "state_override", hasOverride)
	return approved, nil
}

func (m *Moderation) Deny(id string, admin bool) error {
	if !admin {
		return errUnauthorized
	}
	if _, ok := m.store.RemovePending(id); !ok {
		return errReportNotFound
	}
	m.log.Info("report denied", "report_id", id)
	return nil
}

func (m *Moderation) ListPending(admin bool) ([]Report, error) {
	if !admin {
		return nil, errUnauthorized
	}
	return m.store.Pending(), nil
}

func (m *Moderation) ListApproved() []Report {
	return m.store.Approved()
}

// ApprovedCount returns the number of published reports.
func (m *Moderation) ApprovedCount() int {
	_, approved := m.store.Counts()
	return approved
}

func (m *Moderation) FindApproved(id string) (Report, error) {
	report, ok := m.store.FindApproved(id)
	if !ok {
		return nil, errReportNotFound
	}
	return report, nil
}

// Login checks the shared admin password against the configured bcrypt hash.
func (m *Moderation) Login(password string) error {
	if len(m.adminPasswordHash) == 0 || password == "" {
		return errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.adminPasswordHash, []byte(password)); err != nil {
		return errInvalidCredentials
	}
	return nil
}

// fillInferredState sets state and state_full together from the location text
// when the report does not carry a state yet, replacing any stray state_full.
// A present state only gets its full name filled in.
func fillInferredState(report Report) {
	if report.hasText(fieldState) {
		if !report.hasText(fieldStateFull) {
			if name := stateFullName(report.String(fieldState)); name != "" {
				report[fieldStateFull] = name
			}
		}
		return
	}

	abbr, full := inferState(report.String(fieldLocation))
	if abbr == "" {
		return
	}
	report[fieldState] = abbr
	report[fieldStateFull] = full
}
