// Package authority is the business side of the board API stand-in: it owns
// accounts, passwords, tokens and suspension records the way the real remote
// authority does.
package authority

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/communityboard/board-client/internal/core/domain"
	"github.com/communityboard/board-client/internal/core/ports"
)

const untilLayout = "2006년 01월 02일 15시 04분"

// Service implements registration, login and moderation for the stand-in.
type Service struct {
	accounts  ports.AccountRepository
	content   ports.ContentRepository
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewService(accounts ports.AccountRepository, content ports.ContentRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		accounts:  accounts,
		content:   content,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// SetClock replaces the service clock. Suspension checks and token expiry
// both read it.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Register(ctx context.Context, username, password, displayName string, role domain.Role) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	return s.accounts.Create(ctx, &domain.Account{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login checks the password, then the suspension record, and issues a token.
// A lapsed temporary suspension no longer blocks; the record stays as is.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.Account, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.checkSuspension(account); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// Authenticate resolves a bearer token to its account, rejecting suspended
// accounts on every call.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrNotAuthenticated
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, domain.ErrNotAuthenticated
	}

	account, err := s.accounts.FindByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkSuspension(account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) checkSuspension(account *domain.Account) error {
	c := domain.Classify(account.Suspension, s.now())
	switch c.Status {
	case domain.StatusSuspendedPermanent:
		return &domain.SuspendedError{
			Permanent: true,
			Reason:    account.Suspension.Reason,
			Message:   "영구 정지된 계정입니다. 관리자에게 문의하세요.",
		}
	case domain.StatusSuspendedTemporary:
		end := account.Suspension.EndTime
		return &domain.SuspendedError{
			Reason:  account.Suspension.Reason,
			Until:   end,
			Message: "계정이 정지되었습니다. 정지 해제 시간: " + end.In(time.Local).Format(untilLayout),
		}
	}
	return nil
}

// Suspend records a suspension of target issued by actor, replacing any
// earlier record.
func (s *Service) Suspend(ctx context.Context, actor, target int64, d domain.SuspensionDuration, reason string) (*domain.Account, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrValidation)
	}
	if !d.Permanent && d.Minutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive or permanent", domain.ErrValidation)
	}

	account, err := s.accounts.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	account.Suspension = &domain.SuspensionRecord{
		SubjectAccountID: target,
		Reason:           reason,
		StartTime:        now,
		EndTime:          d.EndTime(now),
		IssuedBy:         actor,
		Active:           true,
	}
	account.UpdatedAt = now
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// SuspendAuthor suspends the author of a post or comment.
func (s *Service) SuspendAuthor(ctx context.Context, actor int64, ref domain.ContentRef, d domain.SuspensionDuration, reason string) (*domain.Account, error) {
	item, err := s.content.Find(ctx, ref.Kind, ref.ID)
	if err != nil {
		return nil, err
	}
	return s.Suspend(ctx, actor, item.AuthorID, d, reason)
}

// Unsuspend lifts the suspension of target. Lifting an unsuspended account is
// a no-op.
func (s *Service) Unsuspend(ctx context.Context, target int64) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if account.Suspension != nil {
		account.Suspension.Active = false
	}
	account.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) ChangeRole(ctx context.Context, target int64, role domain.Role) (*domain.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	account, err := s.accounts.FindByID(ctx, target)
	if err != nil {
		return nil, err
	}
	account.Role = role
	account.UpdatedAt = s.now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, actor, target int64) error {
	if actor == target {
		return fmt.Errorf("%w: cannot delete the acting account", domain.ErrValidation)
	}
	return s.accounts.Delete(ctx, target)
}

func (s *Service) DeleteContent(ctx context.Context, ref domain.ContentRef) error {
	return s.content.Delete(ctx, ref.Kind, ref.ID)
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.AdminAccount, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AdminAccount, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, domain.AdminAccount{
			ID:          a.ID,
			Username:    a.Username,
			DisplayName: a.DisplayName,
			Role:        a.Role,
			Suspension:  a.Suspension,
			CreatedAt:   a.CreatedAt,
		})
	}
	return out, nil
}

// PublishContent registers a post or comment so moderation can target it.
func (s *Service) PublishContent(ctx context.Context, item ports.ContentItem) error {
	if !item.Kind.Valid() || item.ID <= 0 {
		return fmt.Errorf("%w: invalid content reference", domain.ErrValidation)
	}
	return s.content.Put(ctx, item)
}

func (s *Service) generateToken(account *domain.Account) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(account.ID, 10),
		"name": account.DisplayName,
		"role": string(account.Role),
		"exp":  s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// Content returns a published post or comment with its view count.
func (s *Service) Content(ctx context.Context, ref domain.ContentRef) (*ports.ContentItem, error) {
	return s.content.Find(ctx, ref.Kind, ref.ID)
}
