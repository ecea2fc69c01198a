package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers/lyrics"
	"github.com/tbourn/go-songcard-backend/internal/providers/mailer"
	"github.com/tbourn/go-songcard-backend/internal/providers/suno"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

// memStore is an in-memory implementation of every repository contract the
// services use.
type memStore struct {
	mu     sync.Mutex
	cards  map[string]domain.Card
	jobs   map[string]domain.GenerationJob // keyed by provider job id
	logs   []domain.EmailLog
	idem   map[string]domain.Idempotency
	nextID int

	failUpdates bool
}

func newMemStore() *memStore {
	return &memStore{
		cards: map[string]domain.Card{},
		jobs:  map[string]domain.GenerationJob{},
		idem:  map[string]domain.Idempotency{},
	}
}

func (m *memStore) CreateCard(_ context.Context, _ *gorm.DB, c *domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[c.ID]; ok {
		return repo.ErrDuplicate
	}
	for _, other := range m.cards {
		if other.ShareID == c.ShareID {
			return repo.ErrDuplicate
		}
	}
	m.cards[c.ID] = *c
	return nil
}

func (m *memStore) GetCardByID(_ context.Context, _ *gorm.DB, id string) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (m *memStore) GetCardByShareID(_ context.Context, _ *gorm.DB, shareID string) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.ShareID == shareID {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) UpdateCard(_ context.Context, _ *gorm.DB, id string, upd domain.CardUpdate, now time.Time) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdates {
		return nil, fmt.Errorf("store unavailable")
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if upd.SongStatus != nil {
		c.SongStatus = *upd.SongStatus
	}
	if upd.Lyrics != nil {
		v := *upd.Lyrics
		c.Lyrics = &v
	}
	if upd.SongURL != nil {
		v := *upd.SongURL
		c.SongURL = &v
	}
	if upd.SunoJobID != nil {
		v := *upd.SunoJobID
		c.SunoJobID = &v
	}
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Microsecond)
	}
	c.UpdatedAt = now
	m.cards[id] = c
	return &c, nil
}

func (m *memStore) TransitionCardStatus(_ context.Context, _ *gorm.DB, id string, from []domain.SongStatus, to domain.SongStatus, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, f := range from {
		if c.SongStatus == f {
			c.SongStatus = to
			c.UpdatedAt = now
			m.cards[id] = c
			return nil
		}
	}
	return repo.ErrConflict
}

func (m *memStore) CreateJob(_ context.Context, _ *gorm.DB, cardID, sunoJobID string, status domain.JobStatus) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	j := domain.GenerationJob{ID: fmt.Sprintf("job-row-%d", m.nextID), CardID: cardID, SunoJobID: sunoJobID, Status: status}
	m.jobs[sunoJobID] = j
	return &j, nil
}

func (m *memStore) GetJobBySunoID(_ context.Context, _ *gorm.DB, sunoJobID string) (*domain.GenerationJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[sunoJobID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &j, nil
}

func (m *memStore) UpdateJobStatus(_ context.Context, _ *gorm.DB, id string, status domain.JobStatus, errMsg *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, j := range m.jobs {
		if j.ID == id {
			j.Status = status
			if errMsg != nil {
				v := *errMsg
				j.ErrorMessage = &v
			}
			m.jobs[k] = j
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memStore) CreateEmailLog(_ context.Context, _ *gorm.DB, l *domain.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memStore) GetIdempotency(_ context.Context, _ *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.idem[scope+"|"+key]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, repo.ErrNotFound
	}
	return &rec, nil
}

func (m *memStore) CreateIdempotency(_ context.Context, _ *gorm.DB, scope, key, cardID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + "|" + key
	if _, ok := m.idem[k]; ok {
		return nil, repo.ErrDuplicate
	}
	rec := domain.Idempotency{Scope: scope, Key: key, CardID: cardID, Status: status, ExpiresAt: time.Now().Add(ttl)}
	m.idem[k] = rec
	return &rec, nil
}

func (m *memStore) card(id string) domain.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[id]
}

func (m *memStore) job(sunoID string) domain.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[sunoID]
}

type fakeLyrics struct {
	calls int
	text  string
	err   error
	seen  lyrics.Request
}

func (f *fakeLyrics) Generate(_ context.Context, req lyrics.Request) (string, error) {
	f.calls++
	f.seen = req
	return f.text, f.err
}

type fakeSongs struct {
	submitCalls int
	statusCalls int
	seen        suno.SongRequest
	job         suno.Job
	submitErr   error
	status      suno.Status
	statusErr   error
}

func (f *fakeSongs) Submit(_ context.Context, req suno.SongRequest) (suno.Job, error) {
	f.submitCalls++
	f.seen = req
	return f.job, f.submitErr
}

func (f *fakeSongs) GetStatus(_ context.Context, _ string) (suno.Status, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

type fakeMailer struct {
	calls int
	seen  mailer.Message
	id    string
	err   error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	f.calls++
	f.seen = msg
	return f.id, f.err
}

func strp(s string) *string { return &s }

// seedCard inserts a valid card with the given id, share id and status.
func seedCard(m *memStore, id, shareID string, status domain.SongStatus) domain.Card {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c := domain.Card{
		ID: id, ShareID: shareID,
		RecipientName: "Sam", PersonalityTraits: []string{"funny"}, Interests: []string{"hiking"},
		Relationship: "friend", MusicStyle: domain.MusicStyleEDM, ThemeID: "neon",
		Occasion: domain.OccasionBirthday, CustomMessage: "Have a great day", SenderName: "Alex",
		SongStatus: status, CreatedAt: now, UpdatedAt: now,
	}
	m.cards[id] = c
	return c
}
