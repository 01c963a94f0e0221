package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"salonbook-backend/metrics"
	"salonbook-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxVisitNotes is the longest notes value a visit may carry, in characters.
const MaxVisitNotes = 500

// VisitInput describes a new visit. The id is assigned by AddVisit.
type VisitInput struct {
	Date      time.Time
	Services  []string
	Amount    float64
	Paid      bool
	Notes     string
	NextVisit *time.Time
}

func (in VisitInput) validate() (VisitInput, error) {
	if in.Date.IsZero() {
		return in, invalid("visit date is required")
	}
	services := make([]string, 0, len(in.Services))
	for _, svc := range in.Services {
		if svc = strings.TrimSpace(svc); svc != "" {
			services = append(services, svc)
		}
	}
	if len(services) == 0 {
		return in, invalid("at least one service is required")
	}
	in.Services = services
	if in.Amount < 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return in, invalid("amount must be a non-negative number")
	}
	if utf8.RuneCountInString(in.Notes) > MaxVisitNotes {
		return in, invalid("notes cannot exceed %d characters", MaxVisitNotes)
	}
	if in.NextVisit != nil && in.NextVisit.IsZero() {
		in.NextVisit = nil
	}
	return in, nil
}

// VisitMutator applies add, delete and mark-paid to a client's embedded
// visit array. Each mutation reads the whole array, transforms it and writes
// it back inside one transaction holding the client row.
type VisitMutator struct {
	log *zap.Logger
	tx  txRunner
	now func() time.Time
}

func NewVisitMutator(p Params) *VisitMutator {
	log := p.logger().Named("visit.mutator")
	return &VisitMutator{
		log: log,
		tx:  txRunner{db: p.DB, log: log, maxAttempts: p.TxMaxAttempts},
		now: p.clock(),
	}
}

// visitTransform receives the canonical client id and the stored visits.
type visitTransform func(clientID string, visits []models.Visit) ([]models.Visit, error)

// mutate is the single read-modify-write path for the visits column. fn may
// run more than once if the transaction is retried.
func (m *VisitMutator) mutate(ctx context.Context, kind, clientID string, fn visitTransform) (models.ClientDocument, error) {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return models.ClientDocument{}, err
	}
	cid, err := uuid.Parse(clientID)
	if err != nil {
		return models.ClientDocument{}, ErrClientNotFound
	}

	var doc models.ClientDocument
	err = m.tx.run(ctx, "visits."+kind, func(tx *gorm.DB) error {
		doc = models.ClientDocument{}
		if err := findClient(tx, uid, cid, true, &doc); err != nil {
			return err
		}
		visits, err := doc.Visits.Visits()
		if err != nil {
			return err
		}
		next, err := fn(doc.ID.String(), visits)
		if err != nil {
			return err
		}
		doc.Visits = models.Records(next)
		return tx.Model(&doc).Update("visits", doc.Visits).Error
	})
	if err != nil {
		m.log.Debug("visit mutation failed",
			zap.String("kind", kind), zap.String("client_id", clientID), zap.Error(err))
		return models.ClientDocument{}, storeErr("could not save visits", err)
	}

	metrics.VisitMutations.WithLabelValues(kind).Inc()
	return doc, nil
}

// NewVisitID derives a visit id from its client and the creation instant.
// Two visits created for one client within the same millisecond collide.
func NewVisitID(clientID string, at time.Time) string {
	return fmt.Sprintf("v%s-%d", clientID, at.UnixMilli())
}

// AddVisit appends a visit and returns the refreshed client. Stored order is
// insertion order; the returned client lists visits newest first. A missing
// client is reported before invalid input.
func (m *VisitMutator) AddVisit(ctx context.Context, clientID string, in VisitInput) (models.Client, error) {
	doc, err := m.mutate(ctx, "add", clientID, func(cid string, visits []models.Visit) ([]models.Visit, error) {
		in, err := in.validate()
		if err != nil {
			return nil, err
		}
		visit := models.Visit{
			ID:        NewVisitID(cid, m.now()),
			Date:      in.Date,
			Services:  in.Services,
			Amount:    in.Amount,
			Paid:      in.Paid,
			Notes:     in.Notes,
			NextVisit: in.NextVisit,
		}
		return append(visits, visit), nil
	})
	if err != nil {
		return models.Client{}, err
	}
	return doc.ToClient()
}

// UpdateVisitPaymentStatus sets the paid flag of one visit and returns it.
func (m *VisitMutator) UpdateVisitPaymentStatus(ctx context.Context, clientID, visitID string, paid bool) (models.Visit, error) {
	var updated models.Visit
	_, err := m.mutate(ctx, "payment", clientID, func(_ string, visits []models.Visit) ([]models.Visit, error) {
		for i := range visits {
			if visits[i].ID == visitID {
				visits[i].Paid = paid
				updated = visits[i]
				return visits, nil
			}
		}
		return nil, ErrVisitNotFound
	})
	if err != nil {
		return models.Visit{}, err
	}
	return updated, nil
}

// DeleteVisit removes a visit. Removing an id that is not present succeeds.
func (m *VisitMutator) DeleteVisit(ctx context.Context, clientID, visitID string) error {
	_, err := m.mutate(ctx, "delete", clientID, func(_ string, visits []models.Visit) ([]models.Visit, error) {
		kept := visits[:0]
		for _, v := range visits {
			if v.ID != visitID {
				kept = append(kept, v)
			}
		}
		return kept, nil
	})
	return err
}
