// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salonbook-backend/config"
	"salonbook-backend/metrics"
	"salonbook-backend/models"
	"salonbook-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageSender delivers one text message and returns the provider id.
type MessageSender interface {
	Send(to, from, body string) (string, error)
}

type twilioSender struct {
	client *twilio.RestClient
}

// NewTwilioSender builds a MessageSender backed by the Twilio REST API.
func NewTwilioSender(cfg config.TwilioConfig) MessageSender {
	return &twilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		}),
	}
}

func (t *twilioSender) Send(to, from, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// ReminderService texts clients the day before an appointment booked through
// a visit's nextVisit.
type ReminderService struct {
	db      *gorm.DB
	log     *zap.Logger
	clients *ClientService
	sender  MessageSender
	twilio  config.TwilioConfig
	now     func() time.Time
	loc     *time.Location
}

func NewReminderService(p Params, clients *ClientService, sender MessageSender, tw config.TwilioConfig) *ReminderService {
	return &ReminderService{
		db:      p.DB,
		log:     p.logger().Named("reminder.service"),
		clients: clients,
		sender:  sender,
		twilio:  tw,
		now:     p.clock(),
		loc:     p.location(),
	}
}

// StartScheduler runs SendDailyReminders on spec until the returned cron is stopped.
func (s *ReminderService) StartScheduler(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(spec, func() {
		s.SendDailyReminders(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	c.Start()
	s.log.Info("reminder scheduler started", zap.String("spec", spec))
	return c, nil
}

// SendDailyReminders processes every account and returns how many reminders went out.
func (s *ReminderService) SendDailyReminders(ctx context.Context) int {
	s.log.Info("starting daily reminder processing")

	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		s.log.Error("failed to fetch users", zap.Error(err))
		return 0
	}

	sent := 0
	for _, user := range users {
		n, err := s.ProcessUserReminders(ctx, user.ID)
		if err != nil {
			s.log.Error("reminders failed", zap.String("user_id", user.ID.String()), zap.Error(err))
			continue
		}
		sent += n
	}

	s.log.Info("daily reminder processing completed", zap.Int("sent", sent))
	return sent
}

// ProcessUserReminders sends one reminder per visit whose nextVisit falls on
// the next calendar day. Visits already reminded successfully are skipped.
func (s *ReminderService) ProcessUserReminders(ctx context.Context, userID uuid.UUID) (int, error) {
	clients, err := s.clients.ListClients(utils.WithUserID(ctx, userID.String()))
	if err != nil {
		return 0, err
	}

	tomorrow := utils.BeginningOfDay(s.now().In(s.loc)).AddDate(0, 0, 1)
	sent := 0
	for _, client := range clients {
		for _, visit := range client.Visits {
			if visit.NextVisit == nil || !utils.SameDay(visit.NextVisit.In(s.loc), tomorrow) {
				continue
			}
			done, err := s.alreadySent(ctx, visit.ID)
			if err != nil {
				return sent, err
			}
			if done {
				continue
			}
			if s.send(ctx, userID, client, visit) {
				sent++
			}
		}
	}
	return sent, nil
}

func (s *ReminderService) alreadySent(ctx context.Context, visitID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("visit_id = ? AND status = ?", visitID, models.ReminderStatusSent).
		Count(&count).Error
	return count > 0, err
}

func (s *ReminderService) send(ctx context.Context, userID uuid.UUID, client models.Client, visit models.Visit) bool {
	at := visit.NextVisit.In(s.loc)
	message := fmt.Sprintf("Hi %s, this is a reminder of your salon appointment on %s at %s. See you soon!",
		client.Name, at.Format("Mon Jan 2"), at.Format("15:04"))

	// WhatsApp for E.164 numbers when a sender is configured, SMS otherwise
	channel := models.ChannelSMS
	to := client.Phone
	from := s.twilio.PhoneNumber
	if strings.HasPrefix(client.Phone, "+") && s.twilio.WhatsAppNumber != "" {
		channel = models.ChannelWhatsApp
		to = "whatsapp:" + client.Phone
		from = "whatsapp:" + s.twilio.WhatsAppNumber
	}

	status := models.ReminderStatusSent
	errorMsg := ""
	var sendErr error
	if from == "" || from == "whatsapp:" {
		sendErr = errors.New("no sender number configured")
	} else {
		var sid string
		sid, sendErr = s.sender.Send(to, from, message)
		if sendErr == nil {
			s.log.Info("reminder sent", zap.String("client_id", client.ID), zap.String("sid", sid))
		}
	}
	if sendErr != nil {
		s.log.Warn("failed to send reminder", zap.String("client_id", client.ID), zap.Error(sendErr))
		status = models.ReminderStatusFailed
		errorMsg = sendErr.Error()
	}
	metrics.RemindersSent.WithLabelValues(channel, status).Inc()

	clientID, _ := uuid.Parse(client.ID)
	reminderLog := models.ReminderLog{
		UserID:       userID,
		ClientID:     clientID,
		VisitID:      visit.ID,
		Appointment:  visit.NextVisit.UTC(),
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&reminderLog).Error; err != nil {
		s.log.Error("failed to log reminder", zap.String("client_id", client.ID), zap.Error(err))
	}
	return status == models.ReminderStatusSent
}
