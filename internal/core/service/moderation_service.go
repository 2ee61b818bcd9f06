package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
	"github.com/communityboard/board-client/internal/pkg/metrics"
)

// AdminSession is the part of AuthSession the moderation service gates on.
type AdminSession interface {
	Current(ctx context.Context) *domain.Identity
	IsAdmin(ctx context.Context) bool
}

// Acknowledgement is the remote authority's answer to a moderation action.
type Acknowledgement struct {
	Action  domain.ModerationAction
	Message string
}

// ModerationService issues administrator actions. Every call checks the
// session's advisory admin role first and fails with domain.ErrAuthorization
// without touching the network when it is missing.
type ModerationService struct {
	requester ports.Requester
	session   AdminSession
	confirmer ports.Confirmer
	validate  *validator.Validate
	now       func() time.Time
	log       zerolog.Logger
}

// NewModerationService returns a ModerationService. A nil confirmer declines
// every irreversible action.
func NewModerationService(requester ports.Requester, session AdminSession, confirmer ports.Confirmer, log zerolog.Logger) *ModerationService {
	return &ModerationService{
		requester: requester,
		session:   session,
		confirmer: confirmer,
		validate:  validator.New(),
		now:       time.Now,
		log:       log,
	}
}

type suspendInput struct {
	TargetAccountID int64  `validate:"gt=0"`
	Reason          string `validate:"required,max=500"`
}

type contentInput struct {
	Kind string `validate:"oneof=post comment"`
	ID   int64  `validate:"gt=0"`
}

type suspendAuthorInput struct {
	Kind   string `validate:"oneof=post comment"`
	ID     int64  `validate:"gt=0"`
	Reason string `validate:"required,max=500"`
}

type roleInput struct {
	TargetAccountID int64  `validate:"gt=0"`
	Role            string `validate:"oneof=USER ADMIN"`
}

type accountInput struct {
	TargetAccountID int64 `validate:"gt=0"`
}

type suspendRequest struct {
	DurationMinutes int    `json:"durationMinutes"`
	Reason          string `json:"reason"`
}

type roleRequest struct {
	Role string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Suspend suspends an account for d. Local suspension state is never touched;
// callers re-fetch with ListAccounts to observe the result.
func (m *ModerationService) Suspend(ctx context.Context, targetAccountID int64, d domain.SuspensionDuration, reason string) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionSuspend)
	action.TargetAccountID = targetAccountID
	action.Payload = map[string]any{"durationMinutes": d.WireMinutes(), "reason": reason}

	reason = strings.TrimSpace(reason)
	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, suspendInput{TargetAccountID: targetAccountID, Reason: reason}); err != nil {
		return nil, err
	}
	if err := m.checkDuration(action, d); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodPost,
		Path:   "/accounts/" + strconv.FormatInt(targetAccountID, 10) + "/suspend",
		Body:   suspendRequest{DurationMinutes: d.WireMinutes(), Reason: reason},
	}, defaultSuspendMessage(d))
}

// SuspendAuthor suspends whoever wrote the referenced post or comment.
func (m *ModerationService) SuspendAuthor(ctx context.Context, ref domain.ContentRef, d domain.SuspensionDuration, reason string) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionSuspend)
	action.TargetContent = &ref
	action.Payload = map[string]any{"durationMinutes": d.WireMinutes(), "reason": reason}

	reason = strings.TrimSpace(reason)
	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, suspendAuthorInput{Kind: string(ref.Kind), ID: ref.ID, Reason: reason}); err != nil {
		return nil, err
	}
	if err := m.checkDuration(action, d); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodPost,
		Path:   "/admin/" + string(ref.Kind) + "s/" + strconv.FormatInt(ref.ID, 10) + "/suspend-author",
		Body:   suspendRequest{DurationMinutes: d.WireMinutes(), Reason: reason},
	}, defaultSuspendMessage(d))
}

// Unsuspend lifts an account's suspension after user confirmation.
func (m *ModerationService) Unsuspend(ctx context.Context, targetAccountID int64) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionUnsuspend)
	action.TargetAccountID = targetAccountID

	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, accountInput{TargetAccountID: targetAccountID}); err != nil {
		return nil, err
	}
	if err := m.confirm(ctx, action, fmt.Sprintf("Lift the suspension of account %d?", targetAccountID)); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodPost,
		Path:   "/accounts/" + strconv.FormatInt(targetAccountID, 10) + "/unsuspend",
	}, "Suspension lifted.")
}

// ChangeRole sets the role of an account after user confirmation.
func (m *ModerationService) ChangeRole(ctx context.Context, targetAccountID int64, role domain.Role) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionChangeRole)
	action.TargetAccountID = targetAccountID
	action.Payload = map[string]any{"role": string(role)}

	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, roleInput{TargetAccountID: targetAccountID, Role: string(role)}); err != nil {
		return nil, err
	}
	if err := m.confirm(ctx, action, fmt.Sprintf("Change the role of account %d to %s?", targetAccountID, role)); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodPost,
		Path:   "/accounts/" + strconv.FormatInt(targetAccountID, 10) + "/role",
		Body:   roleRequest{Role: string(role)},
	}, "Role changed.")
}

// DeleteContent removes a post or comment after user confirmation.
func (m *ModerationService) DeleteContent(ctx context.Context, kind domain.ContentKind, id int64) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionDeleteContent)
	action.TargetContent = &domain.ContentRef{Kind: kind, ID: id}

	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, contentInput{Kind: string(kind), ID: id}); err != nil {
		return nil, err
	}
	if err := m.confirm(ctx, action, fmt.Sprintf("Delete %s %d? This cannot be undone.", kind, id)); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodDelete,
		Path:   "/admin/" + string(kind) + "s/" + strconv.FormatInt(id, 10),
	}, "Content deleted.")
}

// DeleteAccount removes an account after user confirmation. Deleting the
// acting account is refused.
func (m *ModerationService) DeleteAccount(ctx context.Context, targetAccountID int64) (*Acknowledgement, error) {
	action := m.action(ctx, domain.ActionDeleteAccount)
	action.TargetAccountID = targetAccountID

	if err := m.authorize(ctx, action); err != nil {
		return nil, err
	}
	if err := m.check(action, accountInput{TargetAccountID: targetAccountID}); err != nil {
		return nil, err
	}
	if targetAccountID == action.ActorAccountID {
		m.record(action, "invalid")
		return nil, fmt.Errorf("%w: cannot delete the acting account", domain.ErrValidation)
	}
	if err := m.confirm(ctx, action, fmt.Sprintf("Delete account %d? This cannot be undone.", targetAccountID)); err != nil {
		return nil, err
	}

	return m.send(ctx, action, ports.Request{
		Method: http.MethodDelete,
		Path:   "/admin/accounts/" + strconv.FormatInt(targetAccountID, 10),
	}, "Account deleted.")
}

// ListAccounts fetches the moderator view of every account.
func (m *ModerationService) ListAccounts(ctx context.Context) ([]domain.AdminAccount, error) {
	if !m.session.IsAdmin(ctx) {
		return nil, domain.ErrAuthorization
	}

	resp, err := m.requester.Do(ctx, ports.Request{Method: http.MethodGet, Path: "/admin/accounts"})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	var accounts []domain.AdminAccount
	if err := resp.Decode(&accounts); err != nil {
		return nil, fmt.Errorf("list accounts: decode: %w", err)
	}
	return accounts, nil
}

func (m *ModerationService) action(ctx context.Context, kind domain.ModerationKind) domain.ModerationAction {
	action := domain.ModerationAction{Kind: kind, Timestamp: m.now().UTC()}
	if id := m.session.Current(ctx); id != nil {
		action.ActorAccountID = id.AccountID
	}
	return action
}

func (m *ModerationService) authorize(ctx context.Context, action domain.ModerationAction) error {
	if m.session.IsAdmin(ctx) {
		return nil
	}
	m.record(action, "unauthorized")
	return domain.ErrAuthorization
}

func (m *ModerationService) check(action domain.ModerationAction, in any) error {
	if err := m.validate.Struct(in); err != nil {
		m.record(action, "invalid")
		return validationError(err)
	}
	return nil
}

func (m *ModerationService) checkDuration(action domain.ModerationAction, d domain.SuspensionDuration) error {
	if d.Permanent || d.Minutes > 0 {
		return nil
	}
	m.record(action, "invalid")
	return fmt.Errorf("%w: duration must be positive or permanent", domain.ErrValidation)
}

func (m *ModerationService) confirm(ctx context.Context, action domain.ModerationAction, prompt string) error {
	if m.confirmer == nil {
		m.record(action, "declined")
		return domain.ErrConfirmationDeclined
	}
	ok, err := m.confirmer.Confirm(ctx, prompt)
	if err != nil {
		m.record(action, "declined")
		return fmt.Errorf("confirm %s: %w", action.Kind, err)
	}
	if !ok {
		m.record(action, "declined")
		return domain.ErrConfirmationDeclined
	}
	return nil
}

func (m *ModerationService) send(ctx context.Context, action domain.ModerationAction, req ports.Request, fallback string) (*Acknowledgement, error) {
	resp, err := m.requester.Do(ctx, req)
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		m.record(action, "failed")
		return nil, fmt.Errorf("%s: %w", strings.ToLower(string(action.Kind)), err)
	}

	var body messageResponse
	if err := resp.Decode(&body); err != nil || body.Message == "" {
		body.Message = fallback
	}

	m.record(action, "ok")
	m.log.Info().
		Str("kind", string(action.Kind)).
		Int64("actor_id", action.ActorAccountID).
		Int64("target_id", action.TargetAccountID).
		Msg("moderation action acknowledged")

	return &Acknowledgement{Action: action, Message: body.Message}, nil
}

func (m *ModerationService) record(action domain.ModerationAction, result string) {
	metrics.ModerationActionsTotal.WithLabelValues(string(action.Kind), result).Inc()
}

func defaultSuspendMessage(d domain.SuspensionDuration) string {
	if d.Permanent {
		return "Account permanently suspended."
	}
	return fmt.Sprintf("Account suspended for %d minutes.", d.Minutes)
}

// validationError converts validator output into a domain.ErrValidation error.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldError(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
