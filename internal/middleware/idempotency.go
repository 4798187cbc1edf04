package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey = "X-Idempotency-Key"
	defaultIdempotentTTL = 10 * time.Minute
)

type IdempotencyRecord struct {
	Status      int
	Body        []byte
	ContentType string
	CreatedAt   time.Time
	Processing  bool // a request with this key is still running
}

type IdempotencyStore interface {
	// GetOrLock returns (record, true) if the key is known; (nil, false) if
	// the caller now holds the key.
	GetOrLock(key string) (*IdempotencyRecord, bool)
	Save(key string, rec IdempotencyRecord)
	Unlock(key string)
}

// InMemIdempotencyStore keeps completed write-proxy responses for ttl.
type InMemIdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]*IdempotencyRecord // owner + ":" + route + ":" + key
	now     func() time.Time
}

func NewInMemIdempotencyStore(ttl time.Duration) *InMemIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotentTTL
	}
	return &InMemIdempotencyStore{
		ttl:     ttl,
		records: make(map[string]*IdempotencyRecord),
		now:     time.Now,
	}
}

func (s *InMemIdempotencyStore) GetOrLock(key string) (*IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, rec := range s.records {
		if !rec.Processing && now.Sub(rec.CreatedAt) > s.ttl {
			delete(s.records, k)
		}
	}

	if rec, ok := s.records[key]; ok {
		return rec, true
	}

	s.records[key] = &IdempotencyRecord{
		Processing: true,
		CreatedAt:  now,
	}
	return nil, false
}

func (s *InMemIdempotencyStore) Save(key string, rec IdempotencyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.CreatedAt = s.now()
	rec.Processing = false
	s.records[key] = &rec
}

func (s *InMemIdempotencyStore) Unlock(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}

// IdempotencyMiddleware replays the stored response of a write proxy retried
// with the same X-Idempotency-Key for the same owner and route.
func IdempotencyMiddleware(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" {
			c.Next()
			return
		}

		fullKey := c.Param("owner") + ":" + c.Request.URL.Path + ":" + idemKey

		record, hit := store.GetOrLock(fullKey)
		if hit {
			if record.Processing {
				c.JSON(http.StatusConflict, gin.H{"error": "request in progress"})
				c.Abort()
				return
			}
			c.Header("Idempotent-Replayed", "true")
			c.Data(record.Status, record.ContentType, record.Body)
			c.Abort()
			return
		}

		w := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// Errors are rendered by ErrorHandler after this returns, so nothing
		// has been written yet. Failed calls and 5xx responses stay retryable.
		if len(c.Errors) > 0 || !c.Writer.Written() {
			store.Unlock(fullKey)
			return
		}
		if c.Writer.Status() < 500 {
			store.Save(fullKey, IdempotencyRecord{
				Status:      c.Writer.Status(),
				Body:        w.body,
				ContentType: c.Writer.Header().Get("Content-Type"),
			})
		} else {
			store.Unlock(fullKey)
		}
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}
