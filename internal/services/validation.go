package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	goaway "github.com/TwiN/go-away"
	"github.com/go-playground/validator/v10"

	"github.com/tbourn/go-songcard-backend/internal/domain"
)

var (
	cardIDRE  = regexp.MustCompile(`^[A-Za-z0-9_-]{21}$`)
	shareIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{12}$`)
)

// CreateCardInput is the body of POST /cards.
type CreateCardInput struct {
	RecipientName     string   `json:"recipientName"     validate:"required,max=50,noprofanity"`
	PersonalityTraits []string `json:"personalityTraits" validate:"required,min=1,max=5,dive,required,max=30"`
	Interests         []string `json:"interests"         validate:"required,min=1,max=5,dive,required,max=30"`
	Relationship      string   `json:"relationship"      validate:"required,max=30"`
	MusicStyle        string   `json:"musicStyle"        validate:"required,musicstyle"`
	ThemeID           string   `json:"themeId"           validate:"required,theme"`
	Occasion          string   `json:"occasion"          validate:"omitempty,occasion"`
	CustomMessage     string   `json:"customMessage"     validate:"max=500,noprofanity"`
	SenderName        string   `json:"senderName"        validate:"required,max=50,noprofanity"`
	SenderEmail       string   `json:"senderEmail"       validate:"omitempty,email"`
}

// normalize trims free-text fields and drops blank list entries.
func (in *CreateCardInput) normalize() {
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.Relationship = strings.TrimSpace(in.Relationship)
	in.MusicStyle = strings.TrimSpace(in.MusicStyle)
	in.ThemeID = strings.TrimSpace(in.ThemeID)
	in.Occasion = strings.TrimSpace(in.Occasion)
	in.CustomMessage = strings.TrimSpace(in.CustomMessage)
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.SenderEmail = strings.TrimSpace(in.SenderEmail)
	in.PersonalityTraits = trimList(in.PersonalityTraits)
	in.Interests = trimList(in.Interests)
}

// CardRequest is the body of POST /generate-lyrics and POST /generate-song.
type CardRequest struct {
	CardID string `json:"cardId" validate:"required,cardid"`
}

// SendCardInput is the body of POST /send-card.
type SendCardInput struct {
	CardID         string `json:"cardId"         validate:"required,cardid"`
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
}

// PatchCardInput is the body of PATCH /cards/{id}. Only these fields are
// writable; nil means "leave unchanged".
type PatchCardInput struct {
	SongStatus *string `json:"songStatus" validate:"omitempty,songstatus"`
	SongURL    *string `json:"songUrl"    validate:"omitempty,url"`
	Lyrics     *string `json:"lyrics"     validate:"omitempty,max=5000"`
	SunoJobID  *string `json:"sunoJobId"  validate:"omitempty,max=128"`
}

// Validator schema-checks request payloads before they reach the workflow.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the card-specific rules registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("noprofanity", func(fl validator.FieldLevel) bool {
		return !goaway.IsProfane(fl.Field().String())
	})
	must("musicstyle", func(fl validator.FieldLevel) bool {
		return domain.MusicStyle(fl.Field().String()).Valid()
	})
	must("theme", func(fl validator.FieldLevel) bool {
		return domain.ThemeID(fl.Field().String()).Valid()
	})
	must("occasion", func(fl validator.FieldLevel) bool {
		return domain.Occasion(fl.Field().String()).Valid()
	})
	must("songstatus", func(fl validator.FieldLevel) bool {
		return domain.SongStatus(fl.Field().String()).Valid()
	})
	must("cardid", func(fl validator.FieldLevel) bool {
		return cardIDRE.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates s and returns a *ValidationError listing every failing
// field, or nil.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range fes {
		out.Add(fieldPath(fe), fieldMessage(fe))
	}
	return out
}

// fieldPath strips the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		if isList {
			return "at least one entry is required"
		}
		return "is required"
	case "min":
		if isList {
			return fmt.Sprintf("add at least %s", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isList {
			return fmt.Sprintf("maximum %s entries", fe.Param())
		}
		return fmt.Sprintf("must be %s characters or less", fe.Param())
	case "email":
		return "invalid email address"
	case "url":
		return "invalid URL"
	case "noprofanity":
		return "please use appropriate language"
	case "musicstyle":
		return "must be one of: " + strings.Join(domain.MusicStyles(), ", ")
	case "theme":
		return "must be one of: " + strings.Join(domain.ThemeIDs(), ", ")
	case "occasion":
		return "must be one of: " + strings.Join(domain.Occasions(), ", ")
	case "songstatus":
		return "invalid song status"
	case "cardid":
		return "invalid card id"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// looksLikeCardKey reports whether key has the shape of a card id or share id.
func looksLikeCardKey(key string) bool {
	return cardIDRE.MatchString(key) || shareIDRE.MatchString(key)
}

func trimList(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
