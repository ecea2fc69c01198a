package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/ratelimit"
)

const (
	testCardID  = "V1StGXR8_Z5jdHi6B-myT"
	testShareID = "abcDEF123_-x"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newCardService(m *memStore) *CardService {
	s := NewCardService(nil, m)
	s.Idem = m
	s.Limiter = ratelimit.New(ratelimit.NewMemoryStore(), nil).WithClock(func() time.Time { return testNow })
	s.Now = func() time.Time { return testNow }
	return s
}

func TestCardService_Create_Pending(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)

	in := validInput()
	in.SenderEmail = "alex@example.com"
	res, err := s.Create(context.Background(), "1.1.1.1", "", in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c := res.Card
	if res.Replayed {
		t.Fatalf("fresh create reported as replay")
	}
	if len(c.ID) != 21 || len(c.ShareID) != 12 {
		t.Fatalf("id lengths = %d/%d", len(c.ID), len(c.ShareID))
	}
	if c.SongStatus != domain.SongStatusPending {
		t.Fatalf("status = %s", c.SongStatus)
	}
	if c.Occasion != domain.OccasionBirthday {
		t.Fatalf("occasion default = %s", c.Occasion)
	}
	if c.SenderEmail == nil || *c.SenderEmail != "alex@example.com" {
		t.Fatalf("sender email not stored")
	}
	if c.Lyrics != nil || c.SongURL != nil || c.SunoJobID != nil {
		t.Fatalf("new card has generated fields: %+v", c)
	}
	if _, ok := m.cards[c.ID]; !ok {
		t.Fatalf("card not persisted")
	}
}

func TestCardService_Create_DemoIsComplete(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)
	s.Demo = true

	res, err := s.Create(context.Background(), "1.1.1.1", "", validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Card.SongStatus != domain.SongStatusComplete {
		t.Fatalf("demo status = %s", res.Card.SongStatus)
	}
}

func TestCardService_Create_Validation(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)

	in := validInput()
	in.RecipientName = "   "
	in.MusicStyle = "polka"
	_, err := s.Create(context.Background(), "1.1.1.1", "", in)
	fields := fieldsOf(t, err)
	if len(fields["recipientName"]) == 0 || len(fields["musicStyle"]) == 0 {
		t.Fatalf("fields = %v", fields)
	}
	if len(m.cards) != 0 {
		t.Fatalf("invalid card persisted")
	}
}

func TestCardService_Create_RateLimited(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, "9.9.9.9", "", validInput()); err != nil {
			t.Fatalf("create %d: %v", i+1, err)
		}
	}
	_, err := s.Create(ctx, "9.9.9.9", "", validInput())
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("6th create err = %v", err)
	}
	if rl.Action != domain.ActionCreateCard || !rl.ResetAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("rate limit error = %+v", rl)
	}
	if len(m.cards) != 5 {
		t.Fatalf("cards = %d", len(m.cards))
	}

	// other IPs are unaffected
	if _, err := s.Create(ctx, "8.8.8.8", "", validInput()); err != nil {
		t.Fatalf("other ip: %v", err)
	}
}

func TestCardService_Create_IdempotentReplay(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)
	ctx := context.Background()

	first, err := s.Create(ctx, "1.1.1.1", "key-1", validInput())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := s.Create(ctx, "1.1.1.1", "key-1", validInput())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.Replayed || second.Card.ID != first.Card.ID {
		t.Fatalf("expected replay of %s, got %+v", first.Card.ID, second)
	}
	if len(m.cards) != 1 {
		t.Fatalf("cards = %d", len(m.cards))
	}

	// same key from another client is a new request
	third, err := s.Create(ctx, "2.2.2.2", "key-1", validInput())
	if err != nil || third.Replayed || third.Card.ID == first.Card.ID {
		t.Fatalf("scoped key leaked across clients: %+v %v", third, err)
	}
}

func TestCardService_Create_IDCollision(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)
	s.NewID = func(size int) (string, error) {
		if size == 21 {
			return testCardID, nil
		}
		return testShareID, nil
	}
	ctx := context.Background()

	if _, err := s.Create(ctx, "1.1.1.1", "", validInput()); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := s.Create(ctx, "1.1.1.1", "", validInput()); err == nil {
		t.Fatalf("expected collision error")
	}
}

func TestCardService_Get(t *testing.T) {
	m := newMemStore()
	s := newCardService(m)
	seedCard(m, testCardID, testShareID, domain.SongStatusPending)
	ctx := context.Background()

	byID, err := s.Get(ctx, testCardID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	byShare, err := s.Get(ctx, testShareID)
	if err != nil {
		t.Fatalf("by share id: %v", err)
	}
	if byID.ID != byShare.ID || byID.ShareID != byShare.ShareID {
		t.Fatalf("lookups disagree: %+v vs %+v", byID, byShare)
	}

	for _, key := range []string{"", "nope", "zzzzzzzzzzzz", "zzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrCardNotFound) {
			t.Fatalf("Get(%q) err = %v", key, err)
		}
	}
}

func TestCardService_Patch(t *testing.T) {
	ctx := context.Background()

	t.Run("no fields", func(t *testing.T) {
		m := newMemStore()
		seedCard(m, testCardID, testShareID, domain.SongStatusPending)
		if _, err := newCardService(m).Patch(ctx, testCardID, PatchCardInput{}); !errors.Is(err, ErrNoUpdatableFields) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("legal update", func(t *testing.T) {
		m := newMemStore()
		seedCard(m, testCardID, testShareID, domain.SongStatusGeneratingSong)
		c, err := newCardService(m).Patch(ctx, testCardID, PatchCardInput{
			SongStatus: strp("complete"),
			SongURL:    strp("https://cdn.example.com/song.mp3"),
		})
		if err != nil {
			t.Fatalf("Patch: %v", err)
		}
		if c.SongStatus != domain.SongStatusComplete || c.SongURL == nil || *c.SongURL != "https://cdn.example.com/song.mp3" {
			t.Fatalf("card = %+v", c)
		}
		if !c.UpdatedAt.After(c.CreatedAt) {
			t.Fatalf("updatedAt not advanced")
		}
	})

	t.Run("illegal transition", func(t *testing.T) {
		m := newMemStore()
		seedCard(m, testCardID, testShareID, domain.SongStatusGeneratingSong)
		if _, err := newCardService(m).Patch(ctx, testCardID, PatchCardInput{SongStatus: strp("pending")}); !errors.Is(err, ErrStatusConflict) {
			t.Fatalf("err = %v", err)
		}
		if got := m.card(testCardID).SongStatus; got != domain.SongStatusGeneratingSong {
			t.Fatalf("status changed to %s", got)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		m := newMemStore()
		seedCard(m, testCardID, testShareID, domain.SongStatusPending)
		_, err := newCardService(m).Patch(ctx, testCardID, PatchCardInput{SongURL: strp("not a url")})
		if f := fieldsOf(t, err); len(f["songUrl"]) == 0 {
			t.Fatalf("fields = %v", f)
		}
	})

	t.Run("unknown card", func(t *testing.T) {
		m := newMemStore()
		if _, err := newCardService(m).Patch(ctx, testCardID, PatchCardInput{Lyrics: strp("la la")}); !errors.Is(err, ErrCardNotFound) {
			t.Fatalf("err = %v", err)
		}
	})
}
