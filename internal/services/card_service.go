// Package services – CardService
//
// CardService creates cards, resolves them by id or share id, and applies the
// restricted PATCH update. Creation is rate limited per IP and can be made
// idempotent with a client-supplied key.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/repo"
)

const (
	cardIDLength  = 21
	shareIDLength = 12
	// createAttempts bounds id regeneration after a unique collision.
	createAttempts = 3
)

// CardService provides card-level operations.
type CardService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Cards is the card repository.
	Cards CardRepo
	// Idem stores replay records; nil disables Idempotency-Key support.
	Idem IdempotencyRepo
	// Limiter guards creation per IP; nil disables limiting.
	Limiter RateLimiter
	// Validator checks inputs.
	Validator *Validator

	// Demo creates cards already complete since no song will be generated.
	Demo bool
	// IdemTTL is how long a replay record stays valid.
	IdemTTL time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// NewID generates identifiers of the given length; defaults to nanoid.
	NewID func(size int) (string, error)
}

// NewCardService constructs a CardService with defaults for the clock, ids,
// and replay TTL.
func NewCardService(db *gorm.DB, cards CardRepo) *CardService {
	return &CardService{
		DB:        db,
		Cards:     cards,
		Validator: NewValidator(),
		IdemTTL:   24 * time.Hour,
		Now:       func() time.Time { return time.Now().UTC() },
		NewID:     func(size int) (string, error) { return gonanoid.New(size) },
	}
}

// CreateResult is returned by Create.
type CreateResult struct {
	Card *domain.Card
	// Replayed is true when an earlier request with the same idempotency key
	// produced Card.
	Replayed bool
}

// Create validates in and inserts a new card for the caller at ip. When
// idemKey is non-empty and matches an earlier create from the same ip, the
// earlier card is returned without consuming rate limit.
func (s *CardService) Create(ctx context.Context, ip, idemKey string, in CreateCardInput) (*CreateResult, error) {
	ctx, span := otel.Tracer("services/CardService").Start(ctx, "Create",
		trace.WithAttributes(attribute.Bool("idempotent", idemKey != "")))
	defer span.End()

	in.normalize()
	if err := s.Validator.Struct(in); err != nil {
		observe("create_card", outcomeRejected)
		return nil, err
	}

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" && s.Idem != nil {
		if rec, err := s.Idem.GetIdempotency(ctx, s.DB, ip, idemKey, s.Now()); err == nil && rec != nil {
			if c, err := s.Cards.GetCardByID(ctx, s.DB, rec.CardID); err == nil {
				observe("create_card", outcomeCached)
				return &CreateResult{Card: c, Replayed: true}, nil
			}
		}
	}

	if err := checkLimit(ctx, s.Limiter, ip, domain.ActionCreateCard); err != nil {
		observe("create_card", outcomeRejected)
		return nil, err
	}

	status := domain.SongStatusPending
	if s.Demo {
		status = domain.SongStatusComplete
	}
	now := s.Now()
	card := &domain.Card{
		RecipientName:     in.RecipientName,
		PersonalityTraits: in.PersonalityTraits,
		Interests:         in.Interests,
		Relationship:      in.Relationship,
		MusicStyle:        domain.MusicStyle(in.MusicStyle),
		ThemeID:           domain.ThemeID(in.ThemeID),
		Occasion:          domain.Occasion(in.Occasion).OrDefault(),
		CustomMessage:     in.CustomMessage,
		SenderName:        in.SenderName,
		SongStatus:        status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.SenderEmail != "" {
		email := in.SenderEmail
		card.SenderEmail = &email
	}

	if err := s.insert(ctx, card); err != nil {
		span.RecordError(err)
		observe("create_card", outcomeFailed)
		return nil, err
	}
	span.SetAttributes(attribute.String("card_id", card.ID))

	if idemKey != "" && s.Idem != nil {
		if _, err := s.Idem.CreateIdempotency(ctx, s.DB, ip, idemKey, card.ID, http.StatusCreated, s.IdemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("card_id", card.ID).Msg("store idempotency record")
		}
	}
	countAction(ctx, s.Limiter, ip, domain.ActionCreateCard)
	observe("create_card", outcomeSuccess)
	return &CreateResult{Card: card}, nil
}

// insert assigns fresh identifiers and retries on collision.
func (s *CardService) insert(ctx context.Context, card *domain.Card) error {
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		if card.ID, err = s.NewID(cardIDLength); err != nil {
			return fmt.Errorf("generate card id: %w", err)
		}
		if card.ShareID, err = s.NewID(shareIDLength); err != nil {
			return fmt.Errorf("generate share id: %w", err)
		}
		err = s.Cards.CreateCard(ctx, s.DB, card)
		if !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
	}
	return fmt.Errorf("create card: identifiers collided %d times: %w", createAttempts, err)
}

// Get resolves key as a card id first and then as a share id.
func (s *CardService) Get(ctx context.Context, key string) (*domain.Card, error) {
	key = strings.TrimSpace(key)
	if !looksLikeCardKey(key) {
		return nil, ErrCardNotFound
	}
	c, err := s.Cards.GetCardByID(ctx, s.DB, key)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c, err = s.Cards.GetCardByShareID(ctx, s.DB, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	return c, err
}

// Patch applies the allow-listed fields of in to card id. A songStatus must
// be a legal transition from the current status.
func (s *CardService) Patch(ctx context.Context, id string, in PatchCardInput) (*domain.Card, error) {
	if in.SongStatus == nil && in.SongURL == nil && in.Lyrics == nil && in.SunoJobID == nil {
		return nil, ErrNoUpdatableFields
	}
	if err := s.Validator.Struct(in); err != nil {
		return nil, err
	}

	cur, err := s.Cards.GetCardByID(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}

	upd := domain.CardUpdate{Lyrics: in.Lyrics, SongURL: in.SongURL, SunoJobID: in.SunoJobID}
	if in.SongStatus != nil {
		next := domain.SongStatus(*in.SongStatus)
		if !cur.SongStatus.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrStatusConflict, cur.SongStatus, next)
		}
		upd.SongStatus = &next
	}

	c, err := s.Cards.UpdateCard(ctx, s.DB, id, upd, s.Now())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	return c, err
}
