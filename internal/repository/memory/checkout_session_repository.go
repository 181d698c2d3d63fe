package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CheckoutSession is the part of a provider checkout session the fallback
// path needs again when the success page is refreshed.
type CheckoutSession struct {
	SessionId      string
	SubscriptionId string
	CustomerId     string
	AccountId      string
	PlanHint       string
}

type CheckoutSessionRepository struct {
	cache *cache.Cache
}

func NewCheckoutSessionRepository(ttl time.Duration) *CheckoutSessionRepository {
	// Completed sessions never change; expired entries are purged every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &CheckoutSessionRepository{
		cache: c,
	}
}

func (r *CheckoutSessionRepository) Save(session *CheckoutSession) {
	r.cache.Set(session.SessionId, session, cache.DefaultExpiration)
}

func (r *CheckoutSessionRepository) Get(sessionId string) (*CheckoutSession, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*CheckoutSession), true
	}
	return nil, false
}
