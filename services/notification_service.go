package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"erp-matcher/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Achievement toasts disappear from the feed this long after unlock
const achievementToastTTL = 5 * time.Second

// Notification kinds
const (
	NotificationKindMatch       = "match_update"
	NotificationKindAchievement = "achievement_unlocked"
)

// Notification is one entry in a user's in-memory feed. Achievement entries
// carry an ExpiresAt and drop out of the feed on their own; expiry is a
// presentation concern, nothing is re-persisted.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	MatchID   string     `json:"match_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NotificationService fans lifecycle events and achievement unlocks out to
// per-user feeds and SSE streams
type NotificationService struct {
	mu    sync.Mutex
	feeds map[string][]*Notification

	now func() time.Time
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		feeds: make(map[string][]*Notification),
		now:   time.Now,
	}
}

// MatchTransition implements MatchNotifier: both sides of the match learn
// about every status change
func (s *NotificationService) MatchTransition(evt models.MatchEvent, match *models.Match) {
	var title, body string
	switch evt.ToStatus {
	case models.MatchStatusSent:
		title = "New match suggestion"
		body = fmt.Sprintf("A brief scored %d for you - take a look", match.Score)
	case models.MatchStatusAccepted:
		title = "Match accepted"
		body = "The partner accepted your match. You can start messaging."
	case models.MatchStatusRejected:
		title = "Match declined"
		body = "The partner declined this match."
	case models.MatchStatusConverted:
		title = "Project started"
		body = "Your match was converted into a project. Congratulations!"
	default:
		title = "Match updated"
		body = fmt.Sprintf("Match moved from %s to %s", evt.FromStatus, evt.ToStatus)
	}

	// Every transition starts at dispatch or later, so both sides hear it
	s.push(&Notification{UserID: match.ClientID, Kind: NotificationKindMatch, Title: title, Body: body, MatchID: match.ID})
	s.push(&Notification{UserID: match.PartnerID, Kind: NotificationKindMatch, Title: title, Body: body, MatchID: match.ID})
}

// AchievementUnlocked pushes a transient toast that auto-expires after the
// display window without further engine involvement
func (s *NotificationService) AchievementUnlocked(userID string, a models.Achievement) {
	expires := s.now().Add(achievementToastTTL)
	s.push(&Notification{
		UserID:    userID,
		Kind:      NotificationKindAchievement,
		Title:     fmt.Sprintf("%s %s", a.Icon, a.Name),
		Body:      fmt.Sprintf("%s (+%d points)", a.Description, a.Points),
		ExpiresAt: &expires,
	})
}

func (s *NotificationService) push(n *Notification) {
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[n.UserID] = append(s.feeds[n.UserID], n)
}

// Feed returns the user's notifications, newest first, with expired toasts
// filtered out (and pruned)
func (s *NotificationService) Feed(userID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.feeds[userID][:0]
	var out []Notification
	for _, n := range s.feeds[userID] {
		if n.ExpiresAt != nil && now.After(*n.ExpiresAt) {
			continue
		}
		kept = append(kept, n)
		out = append(out, *n)
	}
	s.feeds[userID] = kept

	// newest first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// UnreadCount drives the badge in the app header
func (s *NotificationService) UnreadCount(userID string) int {
	count := 0
	for _, n := range s.Feed(userID) {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead clears the unread badge
func (s *NotificationService) MarkAllRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.feeds[userID] {
		n.Read = true
	}
}

// StreamSSE streams the user's feed over Server-Sent Events, pushing entries
// created after the connection opened
func (s *NotificationService) StreamSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		lastSent := s.now()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var fresh []Notification
				for _, n := range s.Feed(userID) {
					if n.CreatedAt.After(lastSent) {
						fresh = append(fresh, n)
					}
				}
				if len(fresh) == 0 {
					continue
				}

				for _, n := range fresh {
					if n.CreatedAt.After(lastSent) {
						lastSent = n.CreatedAt
					}
					payload, _ := json.Marshal(n)
					fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Kind, payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	log.Printf("📡 [NOTIFY] SSE stream opened for user %s", userID)
	return nil
}
