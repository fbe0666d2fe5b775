// Package service applies the session-aware business rules of the claims
// platform on top of the persistent store: authentication, case assignment,
// document intake, chat routing and activity auditing.
package service

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCaseNotFound       = errors.New("case not found")
	ErrDoctorNotFound     = errors.New("doctor not found or inactive")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUnsupportedType    = errors.New("unsupported document type")
	ErrMessageNotFound    = errors.New("message not found")
	ErrRuleNotFound       = errors.New("ai rule not found")
)

type Deps struct {
	Store     *store.Store
	Blobs     BlobStore
	Publisher ActivityPublisher
	Log       zerolog.Logger
	Now       func() time.Time
}

type Services struct {
	Auth      *AuthService
	Audit     *AuditService
	Cases     *CaseService
	Users     *UserService
	Documents *DocumentService
	Chat      *ChatService
	Rules     *RuleService
}

func New(deps Deps) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := base{store: deps.Store, log: deps.Log, now: deps.Now}

	audit := &AuditService{base: b.named("audit"), publisher: deps.Publisher}
	return &Services{
		Auth:      &AuthService{base: b.named("auth"), audit: audit},
		Audit:     audit,
		Cases:     &CaseService{base: b.named("cases"), audit: audit, blobs: deps.Blobs},
		Users:     &UserService{base: b.named("users"), audit: audit},
		Documents: &DocumentService{base: b.named("documents"), audit: audit, blobs: deps.Blobs},
		Chat:      &ChatService{base: b.named("chat"), audit: audit},
		Rules:     &RuleService{base: b.named("rules")},
	}
}

type base struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func (b base) named(component string) base {
	b.log = b.log.With().Str("component", component).Logger()
	return b
}

func (b base) stamp() time.Time {
	return b.now().UTC()
}

// written splits a mutator result: a persistence failure is only logged,
// any other error rejected the change and is returned.
func (b base) written(err error, msg string) error {
	if errors.Is(err, store.ErrPersist) {
		b.log.Error().Err(err).Msg(msg)
		return nil
	}
	return err
}

// persisted logs a store write that did not reach the slots. The in-memory
// change is already applied, so callers carry on.
func (b base) persisted(err error, msg string) {
	if err != nil {
		b.log.Error().Err(err).Msg(msg)
	}
}
