package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook-backend/metrics"
	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Params carries the dependencies shared by the services.
type Params struct {
	DB            *gorm.DB
	Log           *zap.Logger
	TxMaxAttempts int

	// Now defaults to time.Now.
	Now func() time.Time
	// Location is used for calendar-day bucketing; defaults to time.Local.
	Location *time.Location
}

func (p Params) clock() func() time.Time {
	if p.Now != nil {
		return p.Now
	}
	return time.Now
}

func (p Params) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p Params) logger() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

// ClientService is the client repository. Every operation is scoped to the
// user carried by the context.
type ClientService struct {
	db  *gorm.DB
	log *zap.Logger
	tx  txRunner
	now func() time.Time
}

func NewClientService(p Params) *ClientService {
	log := p.logger().Named("client.service")
	return &ClientService{
		db:  p.DB,
		log: log,
		tx:  txRunner{db: p.DB, log: log, maxAttempts: p.TxMaxAttempts},
		now: p.clock(),
	}
}

// ClientUpdate holds the client fields that may change after creation.
type ClientUpdate struct {
	Name  *string
	Phone *string
}

// Duplicate names an existing client that matches a prospective one.
type Duplicate struct {
	Field  string        `json:"field"` // name or phone
	Client models.Client `json:"client"`
}

// FormatDisplayID zero-pads counter to four digits. Larger values are not truncated.
func FormatDisplayID(counter int64) string {
	return fmt.Sprintf("%04d", counter)
}

func scopeFromContext(ctx context.Context) (uuid.UUID, error) {
	raw, ok := utils.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrAuthRequired
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrAuthRequired
	}
	return id, nil
}

// ListClients returns the scope's clients, newest display id first. Without
// a scope it returns no clients.
func (s *ClientService) ListClients(ctx context.Context) ([]models.Client, error) {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return []models.Client{}, nil
	}

	var docs []models.ClientDocument
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("LENGTH(display_id) DESC").
		Order("display_id DESC").
		Find(&docs).Error; err != nil {
		s.log.Error("list clients", zap.String("user_id", uid.String()), zap.Error(err))
		return nil, storeErr("could not fetch clients", err)
	}

	clients := make([]models.Client, 0, len(docs))
	for _, doc := range docs {
		client, err := doc.ToClient()
		if err != nil {
			s.log.Error("decode client", zap.String("client_id", doc.ID.String()), zap.Error(err))
			return nil, storeErr("could not fetch clients", err)
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// GetClient returns ErrClientNotFound when the client is absent or there is no scope.
func (s *ClientService) GetClient(ctx context.Context, id string) (models.Client, error) {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return models.Client{}, ErrClientNotFound
	}
	cid, err := uuid.Parse(id)
	if err != nil {
		return models.Client{}, ErrClientNotFound
	}

	var doc models.ClientDocument
	if err := findClient(s.db.WithContext(ctx), uid, cid, false, &doc); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Error("get client", zap.String("client_id", id), zap.Error(err))
		}
		return models.Client{}, storeErr("could not fetch client", err)
	}

	client, err := doc.ToClient()
	if err != nil {
		return models.Client{}, storeErr("could not fetch client", err)
	}
	return client, nil
}

// AddClient creates a client and allocates its display id. The counter
// advance and the insert commit together or not at all.
func (s *ClientService) AddClient(ctx context.Context, name, phone string) (models.Client, error) {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return models.Client{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Client{}, invalid("name is required")
	}
	phone = strings.TrimSpace(phone)

	var doc models.ClientDocument
	err = s.tx.run(ctx, "clients.add", func(tx *gorm.DB) error {
		counter, err := advanceClientCounter(tx, uid)
		if err != nil {
			return err
		}
		doc = models.ClientDocument{
			ID:        uuid.New(),
			UserID:    uid,
			DisplayID: FormatDisplayID(counter),
			Name:      name,
			Phone:     phone,
			Visits:    models.VisitRecords{},
			CreatedAt: s.now().UTC(),
		}
		return tx.Create(&doc).Error
	})
	if err != nil {
		s.log.Error("add client", zap.String("user_id", uid.String()), zap.Error(err))
		return models.Client{}, storeErr("failed to add new client", err)
	}

	metrics.ClientsCreated.Inc()
	s.log.Info("client created",
		zap.String("user_id", uid.String()),
		zap.String("client_id", doc.ID.String()),
		zap.String("display_id", doc.DisplayID))

	return doc.ToClient()
}

// advanceClientCounter increments the scope's counter, treating a missing
// metadata row as zero, and returns the new value. The row stays locked until
// the surrounding transaction ends.
func advanceClientCounter(tx *gorm.DB, uid uuid.UUID) (int64, error) {
	var counter int64
	err := tx.Raw(`INSERT INTO client_metadata (user_id, client_counter) VALUES (?, 1)
		ON CONFLICT (user_id) DO UPDATE SET client_counter = client_metadata.client_counter + 1
		RETURNING client_counter`, uid).Scan(&counter).Error
	if err != nil {
		return 0, err
	}
	if counter < 1 {
		return 0, errors.New("client counter did not advance")
	}
	return counter, nil
}

// UpdateClient changes name and/or phone and returns the refreshed client.
func (s *ClientService) UpdateClient(ctx context.Context, id string, upd ClientUpdate) (models.Client, error) {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return models.Client{}, err
	}
	cid, err := uuid.Parse(id)
	if err != nil {
		return models.Client{}, ErrClientNotFound
	}

	fields := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return models.Client{}, invalid("name cannot be empty")
		}
		fields["name"] = name
	}
	if upd.Phone != nil {
		fields["phone"] = strings.TrimSpace(*upd.Phone)
	}
	if len(fields) == 0 {
		return s.GetClient(ctx, id)
	}

	result := s.db.WithContext(ctx).
		Model(&models.ClientDocument{}).
		Where("user_id = ? AND id = ?", uid, cid).
		Updates(fields)
	if result.Error != nil {
		s.log.Error("update client", zap.String("client_id", id), zap.Error(result.Error))
		return models.Client{}, storeErr("failed to update client", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.Client{}, ErrClientNotFound
	}

	return s.GetClient(ctx, id)
}

// DeleteClient removes the client document and, with it, its visits.
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	uid, err := scopeFromContext(ctx)
	if err != nil {
		return err
	}
	cid, err := uuid.Parse(id)
	if err != nil {
		return ErrClientNotFound
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, cid).
		Delete(&models.ClientDocument{})
	if result.Error != nil {
		s.log.Error("delete client", zap.String("client_id", id), zap.Error(result.Error))
		return storeErr("failed to delete client", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}

	s.log.Info("client deleted", zap.String("user_id", uid.String()), zap.String("client_id", id))
	return nil
}

// FindDuplicate is an advisory check run before creating a client: it
// reports the first client with the same name (case-insensitive) or, failing
// that, the same phone digits. It never blocks creation.
func (s *ClientService) FindDuplicate(ctx context.Context, name, phone string) (*Duplicate, error) {
	clients, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	wantName := utils.NormalizeName(name)
	if wantName != "" {
		for _, c := range clients {
			if utils.NormalizeName(c.Name) == wantName {
				return &Duplicate{Field: "name", Client: c}, nil
			}
		}
	}

	wantPhone := utils.NormalizePhone(phone)
	if wantPhone != "" {
		for _, c := range clients {
			if utils.NormalizePhone(c.Phone) == wantPhone {
				return &Duplicate{Field: "phone", Client: c}, nil
			}
		}
	}
	return nil, nil
}

// findClient loads one client document. With lock set it takes a row lock on
// stores that support one.
func findClient(db *gorm.DB, uid, cid uuid.UUID, lock bool, doc *models.ClientDocument) error {
	q := db.Where("user_id = ? AND id = ?", uid, cid)
	if lock && db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	return nil
}
