package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"github.com/marketmate/marketmate/app/models"
	"github.com/marketmate/marketmate/internal/pkg/env"
)

// Notification types.
const (
	TypeOfferReceived   = "offer_received"
	TypeOfferAccepted   = "offer_accepted"
	TypeOfferDeclined   = "offer_declined"
	TypeOfferCountered  = "offer_countered"
	TypeListingSold     = "listing_sold"
	TypeListingApproved = "listing_approved"
	TypeListingRejected = "listing_rejected"
	TypeListingExpired  = "listing_expired"
	TypeMessageReceived = "message_received"
	TypeReportResolved  = "report_resolved"
	TypeSystem          = "system"
)

// Event is the payload published on the message bus. Subject is
// "marketmate.notifications.<type>".
type Event struct {
	UserID      uint   `json:"user_id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	ReferenceID uint   `json:"reference_id,omitempty"`
}

// Publisher pushes events onto the message bus. The NATS connection satisfies
// it in production; tests swap in a recorder.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type natsPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server named by NATS_URL.
func NewNATSPublisher() (Publisher, error) {
	url := env.GetEnv("NATS_URL", nats.DefaultURL)
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &natsPublisher{conn: conn}, nil
}

func (p *natsPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, jsonData)
}

// Mailer delivers the email mirror of a notification. mail.Send satisfies it
// in production; tests swap in a recorder.
type Mailer func(to, subject, body string) error

// mailSubjects names the notification types that also go out as email, and
// the subject line each one carries. Everything else stays in-app only.
var mailSubjects = map[string]string{
	TypeOfferAccepted: "Your offer was accepted",
	TypeListingSold:   "Your listing sold",
}

// mailSubject returns the email subject for a notification type, if that
// type is mailed at all.
func mailSubject(notificationType string) (string, bool) {
	subject, ok := mailSubjects[notificationType]
	return subject, ok
}

// Dispatcher stores a notification row for the user, mirrors it onto the bus
// and mails the types worth an inbox. Dispatch is fire and forget: it is
// called after the owning transaction commits and never fails the caller.
type Dispatcher struct {
	db        *gorm.DB
	publisher Publisher
	mailer    Mailer
	mu        sync.RWMutex
}

func NewDispatcher(db *gorm.DB, publisher Publisher, mailer Mailer) *Dispatcher {
	return &Dispatcher{db: db, publisher: publisher, mailer: mailer}
}

// Dispatch records the notification, publishes the event and sends the email
// mirror where one is configured. Errors are logged, not returned; a lost
// notification must never undo a committed domain change.
func (d *Dispatcher) Dispatch(userID uint, notificationType, content string, referenceID uint) {
	if err := models.CreateNotification(d.db, userID, notificationType, content, referenceID); err != nil {
		log.Errorf("[Notify] failed to store notification for user %d: %v", userID, err)
	}

	d.mu.RLock()
	pub := d.publisher
	mailer := d.mailer
	d.mu.RUnlock()

	if pub != nil {
		event := Event{UserID: userID, Type: notificationType, Content: content, ReferenceID: referenceID}
		if err := pub.Publish(context.Background(), "marketmate.notifications."+notificationType, event); err != nil {
			log.Errorf("[Notify] failed to publish %s event: %v", notificationType, err)
		}
	}

	if mailer == nil {
		return
	}
	subject, mailed := mailSubject(notificationType)
	if !mailed {
		return
	}

	var user models.User
	if err := d.db.Select("email", "name").First(&user, userID).Error; err != nil {
		log.Errorf("[Notify] failed to load user %d for %s mail: %v", userID, notificationType, err)
		return
	}

	go func() {
		if err := mailer(user.Email, subject, content); err != nil {
			log.Errorf("[Notify] failed to mail %s to user %d: %v", notificationType, userID, err)
		}
	}()
}

// SetPublisher replaces the bus connection, e.g. after a reconnect.
func (d *Dispatcher) SetPublisher(p Publisher) {
	d.mu.Lock()
	d.publisher = p
	d.mu.Unlock()
}
