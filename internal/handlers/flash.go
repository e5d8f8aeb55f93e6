package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"
)

const flashSessionName = "padel_flash"

// Flash kinds, also used as CSS classes
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"
)

var flashKinds = []string{FlashSuccess, FlashWarning, FlashError}

// Flash is a one-time banner shown on the next rendered page
type Flash struct {
	Kind    string
	Message string
}

// FlashStore keeps banners in a signed cookie across a POST and its redirect
type FlashStore struct {
	store *sessions.CookieStore
}

// NewFlashStore creates a flash store signed with secret
func NewFlashStore(secret string) *FlashStore {
	store := sessions.NewCookieStore([]byte("flash:" + secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store}
}

// Add queues a banner for the next page
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, kind, message string) {
	session, _ := f.store.Get(r, flashSessionName)
	session.AddFlash(message, kind)
	if err := session.Save(r, w); err != nil {
		log.Printf("Failed to save flash message: %v", err)
	}
}

// Pop returns and clears the queued banners
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []Flash {
	session, err := f.store.Get(r, flashSessionName)
	if err != nil && session == nil {
		return nil
	}

	var flashes []Flash
	for _, kind := range flashKinds {
		for _, v := range session.Flashes(kind) {
			if msg, ok := v.(string); ok {
				flashes = append(flashes, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(flashes) > 0 {
		if err := session.Save(r, w); err != nil {
			log.Printf("Failed to clear flash messages: %v", err)
		}
	}
	return flashes
}
