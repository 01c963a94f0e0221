package services

import (
	"context"
	"strings"
	"time"

	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PremiumRequestInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// PremiumService records premium upgrade requests. It needs no user scope.
type PremiumService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewPremiumService(p Params) *PremiumService {
	return &PremiumService{
		db:  p.DB,
		log: p.logger().Named("premium.service"),
		now: p.clock(),
	}
}

// AddPremiumRequest stores a pending request. The password, when given, is
// kept only as a bcrypt hash.
func (s *PremiumService) AddPremiumRequest(ctx context.Context, in PremiumRequestInput) (models.PremiumRequest, error) {
	req := models.PremiumRequest{
		ID:        ulid.Make().String(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Status:    models.PremiumStatusPending,
		CreatedAt: s.now().UTC(),
	}
	switch {
	case req.Name == "":
		return models.PremiumRequest{}, invalid("name is required")
	case req.Email == "":
		return models.PremiumRequest{}, invalid("email is required")
	case req.Phone == "":
		return models.PremiumRequest{}, invalid("phone is required")
	}

	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return models.PremiumRequest{}, err
		}
		req.PasswordHash = hash
	}

	if err := s.db.WithContext(ctx).Create(&req).Error; err != nil {
		s.log.Error("add premium request", zap.String("email", req.Email), zap.Error(err))
		return models.PremiumRequest{}, storeErr("could not save your details", err)
	}

	s.log.Info("premium request recorded", zap.String("id", req.ID))
	return req, nil
}
