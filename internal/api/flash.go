package api

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// generalErrorKey holds errors that do not belong to a form field.
const generalErrorKey = "general"

const flashSessionKey = "_flash"

// Flash is a one-time message set attached to a redirect and consumed by the
// next rendered page.
type Flash struct {
	Success string              `json:"success,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func successFlash(msg string) Flash {
	return Flash{Success: msg}
}

func errorFlash(msg string) Flash {
	return Flash{Errors: map[string][]string{generalErrorKey: {msg}}}
}

// FlashStore keeps flash messages between a redirect and the following request.
type FlashStore interface {
	Put(c *fiber.Ctx, f Flash) error
	Pull(c *fiber.Ctx) (Flash, error)
}

// SessionFlash stores flash messages in a fiber session.
type SessionFlash struct {
	store *session.Store
}

// NewSessionFlash creates a FlashStore on top of store.
func NewSessionFlash(store *session.Store) *SessionFlash {
	return &SessionFlash{store: store}
}

// Put replaces any pending flash with f.
func (s *SessionFlash) Put(c *fiber.Ctx, f Flash) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	sess.Set(flashSessionKey, string(data))
	return sess.Save()
}

// Pull returns the pending flash and removes it from the session.
func (s *SessionFlash) Pull(c *fiber.Ctx) (Flash, error) {
	sess, err := s.store.Get(c)
	if err != nil {
		return Flash{}, fmt.Errorf("load session: %w", err)
	}

	raw, ok := sess.Get(flashSessionKey).(string)
	if !ok {
		return Flash{}, nil
	}
	sess.Delete(flashSessionKey)
	if err := sess.Save(); err != nil {
		return Flash{}, fmt.Errorf("save session: %w", err)
	}

	var f Flash
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Flash{}, fmt.Errorf("decode flash: %w", err)
	}
	return f, nil
}
