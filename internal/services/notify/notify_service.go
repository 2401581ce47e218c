package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nawaz1711/vibelog-pro/internal/models"
	"github.com/nawaz1711/vibelog-pro/internal/realtime"
)

// Notifier persists notifications and pushes them to connected recipients.
// Hub and RDB may be nil (tests, single-process setups without redis).
type Notifier struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewNotifier(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *Notifier {
	return &Notifier{DB: db, Hub: hub, RDB: rdb}
}

// Notify stores the notification and fans it out. A delivery failure never
// fails the calling request, the row is the source of truth.
func (s *Notifier) Notify(n *models.Notification) error {
	if err := s.DB.Create(n).Error; err != nil {
		return err
	}

	payload := map[string]interface{}{
		"type":         "notification",
		"notification": n,
	}

	if s.Hub != nil {
		s.Hub.SendToUser(n.RecipientID, payload)
	}

	if s.RDB != nil {
		b, _ := json.Marshal(payload)
		if err := s.RDB.Publish(context.Background(), "notifications:"+n.RecipientID.String(), b).Err(); err != nil {
			log.Printf("Redis publish failed: %v", err)
		}
	}

	return nil
}

// StartExpirySweeper removes expired notifications on an interval. Run it in
// a goroutine from main.
func (s *Notifier) StartExpirySweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.sweepExpired()
	}
}

func (s *Notifier) sweepExpired() {
	res := s.DB.Where("expires_at <= ?", time.Now()).Delete(&models.Notification{})
	if res.Error != nil {
		log.Printf("Notification sweep failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Notification sweep removed %d expired rows", res.RowsAffected)
	}
}
