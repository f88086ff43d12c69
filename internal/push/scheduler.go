package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cadencehq/cadence/internal/model"
	"github.com/cadencehq/cadence/internal/store"
)

// Scheduler sends daily habit reminders. Each user picks a reminder hour;
// at the top of that hour (UTC) they get a push for any habits still
// unchecked today.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	users    *store.UserStore
	habits   *store.HabitStore
	interval time.Duration
	now      func() time.Time
	send     func(*model.PushSubscription, Payload) error
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler.
func NewScheduler(svc *Service, pushStore *store.PushStore, userStore *store.UserStore, habitStore *store.HabitStore) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		users:    userStore,
		habits:   habitStore,
		interval: 60 * time.Second,
		now:      time.Now,
		send:     svc.Send,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	now := s.now().UTC()

	// Reminders fire once per hour, at minute 0
	if now.Minute() != 0 {
		return
	}

	s.sendReminders(now)
}

func (s *Scheduler) sendReminders(now time.Time) {
	users, err := s.users.ListByReminderHour(now.Hour())
	if err != nil {
		log.Printf("push scheduler: list users: %v", err)
		return
	}

	today := now.Format(model.DateLayout)

	for _, user := range users {
		habits, err := s.habits.ListActiveByUser(user.ID, today)
		if err != nil {
			log.Printf("push scheduler: list habits: %v", err)
			continue
		}

		remaining := 0
		for _, h := range habits {
			if !h.CheckedToday {
				remaining++
			}
		}
		if remaining == 0 {
			continue
		}

		body := fmt.Sprintf("%d habits still need a check-in today", remaining)
		if remaining == 1 {
			body = "1 habit still needs a check-in today"
		}

		payload := Payload{
			Title: "Habit Reminder",
			Body:  body,
			URL:   "/habits",
			Tag:   "reminder-" + today,
		}

		subs, err := s.push.ListByUser(user.ID)
		if err != nil {
			log.Printf("push scheduler: list subscriptions: %v", err)
			continue
		}

		for _, sub := range subs {
			if err := s.send(&sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					s.push.DeleteByEndpoint(sub.Endpoint)
				} else {
					log.Printf("push scheduler: send reminder: %v", err)
				}
			}
		}
	}
}
