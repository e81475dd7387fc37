package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
)

type Kind string

const (
	KindAppointment    Kind = "appointment"
	KindJobApplication Kind = "job-application"
	KindTshirtOrder    Kind = "tshirt-order"
	KindVolunteer      Kind = "volunteer"
)

var ErrUnknownKind = errors.Wrap(domain.ErrNotFound, "unknown form")

// Form is one of the flat forms. Normalize fills defaults before Validate.
type Form interface {
	Kind() Kind
	Normalize(now time.Time)
	Validate() ([]domain.FieldError, error)
}

// New returns an empty form of the given kind.
func New(kind Kind) (Form, error) {
	switch kind {
	case KindAppointment:
		return &Appointment{}, nil
	case KindJobApplication:
		return &JobApplication{}, nil
	case KindTshirtOrder:
		return &TshirtOrder{}, nil
	case KindVolunteer:
		return &Volunteer{}, nil
	}
	return nil, ErrUnknownKind
}

// Decode parses a JSON body into the form of the given kind.
func Decode(kind Kind, body []byte) (Form, error) {
	f, err := New(kind)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(f); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "decode %s: %v", kind, err)
	}
	return f, nil
}

// Receipt is returned for an accepted submission.
type Receipt struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	Total       int64     `json:"total,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Submission struct {
	Receipt
	SessionID string          `json:"sessionId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type Repository interface {
	SaveSubmission(ctx context.Context, s Submission) error
}

// DraftStore keeps in-progress form values per session.
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID, key string, data []byte) error
	LoadDraft(ctx context.Context, sessionID, key string) ([]byte, error)
	DeleteDraft(ctx context.Context, sessionID, key string) error
}

type Service struct {
	repo   Repository
	drafts DraftStore
	logger observability.Logger
	now    func() time.Time
}

func NewService(repo Repository, drafts DraftStore, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NewDiscardLogger()
	}
	return &Service{repo: repo, drafts: drafts, logger: logger, now: time.Now}
}

// Submit validates the form and stores it. A rejected form yields a
// *domain.ValidationError listing the fields in display order.
func (s *Service) Submit(ctx context.Context, sessionID string, f Form) (Receipt, error) {
	now := s.now().UTC()
	f.Normalize(now)
	fields, err := f.Validate()
	if err != nil {
		return Receipt{}, err
	}
	if len(fields) > 0 {
		observability.ValidationFailures.WithLabelValues(string(f.Kind())).Inc()
		return Receipt{}, &domain.ValidationError{Fields: fields}
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "encode submission")
	}
	receipt := Receipt{ID: uuid.New(), Kind: f.Kind(), SubmittedAt: now}
	if o, ok := f.(*TshirtOrder); ok {
		receipt.Total = o.TotalCents()
	}

	if s.repo != nil {
		sub := Submission{Receipt: receipt, SessionID: sessionID, Payload: payload}
		if err := s.repo.SaveSubmission(ctx, sub); err != nil {
			return Receipt{}, errors.Wrap(err, "save submission")
		}
	}
	if f.Kind() == KindJobApplication && s.drafts != nil && sessionID != "" {
		if err := s.drafts.DeleteDraft(ctx, sessionID, JobDraftKey); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to drop job application draft")
		}
	}

	s.logger.WithField("form", f.Kind()).WithField("submission_id", receipt.ID).Info("form submitted")
	return receipt, nil
}

func (s *Service) SaveJobDraft(ctx context.Context, sessionID string, app JobApplication) error {
	if s.drafts == nil {
		return nil
	}
	data, err := json.Marshal(app)
	if err != nil {
		return errors.Wrap(err, "encode draft")
	}
	return s.drafts.SaveDraft(ctx, sessionID, JobDraftKey, data)
}

// LoadJobDraft returns the saved draft. A missing or unreadable draft
// yields an empty application and false.
func (s *Service) LoadJobDraft(ctx context.Context, sessionID string) (JobApplication, bool, error) {
	if s.drafts == nil {
		return JobApplication{}, false, nil
	}
	data, err := s.drafts.LoadDraft(ctx, sessionID, JobDraftKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return JobApplication{}, false, nil
		}
		return JobApplication{}, false, err
	}
	var app JobApplication
	if err := json.Unmarshal(data, &app); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("job application draft unreadable, starting empty")
		return JobApplication{}, false, nil
	}
	return app, true, nil
}
