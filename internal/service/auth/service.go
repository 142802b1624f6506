package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"projectsmanager/contracts/mq"
	"projectsmanager/internal/model"
	"projectsmanager/internal/repository"
	"projectsmanager/pkg/logger"
	"projectsmanager/pkg/metrics"
	"projectsmanager/pkg/trace"
	"projectsmanager/pkg/util"
)

// AttemptLimiter counts failed logins per key. *util.AttemptCounter implements it.
type AttemptLimiter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"-"`
}

type Options struct {
	JWT util.JWTOptions
	// Limiter may be nil; MaxLoginAttempts <= 0 disables throttling.
	Limiter          AttemptLimiter
	MaxLoginAttempts int
	Now              func() time.Time
}

type Service struct {
	repos       repository.Manager
	jwt         util.JWTOptions
	limiter     AttemptLimiter
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewService(repos repository.Manager, opts Options, log *zap.Logger) *Service {
	now := opts.Now
	if now == nil {
		now = util.Now
	}
	jwtOpts := opts.JWT
	jwtOpts.Now = now
	return &Service{
		repos:       repos,
		jwt:         jwtOpts,
		limiter:     opts.Limiter,
		maxAttempts: opts.MaxLoginAttempts,
		now:         now,
		logger:      log,
	}
}

// Register creates an account and returns a session for it.
func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	log := logger.WithTrace(ctx, s.logger)
	email = model.NormalizeEmail(email)

	if err := model.ValidateCredentials(email, password); err != nil {
		metrics.IncrementAuthAttempt("register", "invalid")
		return nil, err
	}

	_, err := s.repos.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.IncrementAuthAttempt("register", "email_taken")
		return nil, model.ErrEmailTaken
	case !errors.Is(err, model.ErrNotFound):
		return nil, model.AsStorage(err)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.repos.InTx(ctx, func(tx repository.Manager) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		return tx.Events().Record(ctx, mq.AggregateAccount, u.ID, mq.RoutingAccountRegistered, mq.AccountRegisteredPayload{
			UserID:     u.ID,
			Email:      u.Email,
			OccurredAt: u.CreatedAt,
			TraceID:    trace.FromContext(ctx),
		})
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			metrics.IncrementAuthAttempt("register", "email_taken")
			return nil, err
		}
		log.Error("Failed to register account", zap.Error(err))
		return nil, model.AsStorage(err)
	}

	metrics.IncrementAuthAttempt("register", "success")
	log.Info("Account registered", zap.String("user_id", u.ID))
	return s.IssueSession(u)
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	log := logger.WithTrace(ctx, s.logger)
	email = model.NormalizeEmail(email)
	if err := model.ValidateLogin(email, password); err != nil {
		metrics.IncrementAuthAttempt("login", "invalid")
		return nil, err
	}
	key := util.FormatLoginAttemptKey(email)

	if s.throttled() {
		count, err := s.limiter.Get(ctx, key)
		if err != nil {
			log.Warn("Login attempt counter unavailable", zap.Error(err))
		} else if count >= int64(s.maxAttempts) {
			metrics.IncrementAuthAttempt("login", "throttled")
			return nil, model.ErrTooManyAttempts
		}
	}

	u, err := s.repos.Users().FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, model.AsStorage(err)
		}
		// keep timing close to the wrong-password path
		util.CheckPassword(password, s.dummy())
		s.recordFailure(ctx, log, key)
		return nil, model.ErrInvalidCredentials
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		s.recordFailure(ctx, log, key)
		return nil, model.ErrInvalidCredentials
	}

	if s.throttled() {
		if err := s.limiter.Reset(ctx, key); err != nil {
			log.Warn("Failed to reset login attempt counter", zap.Error(err))
		}
	}

	metrics.IncrementAuthAttempt("login", "success")
	log.Info("User logged in", zap.String("user_id", u.ID))
	return s.IssueSession(u)
}

// IssueSession signs a session token for u.
func (s *Service) IssueSession(u *model.User) (*Session, error) {
	token, expiresAt, err := util.GenerateJWT(u.ID, u.Email, s.jwt)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{
		Token:     token,
		Email:     u.Email,
		UserID:    u.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifySession checks the token and returns the identity it asserts. It performs no I/O.
func (s *Service) VerifySession(token string) (model.Identity, error) {
	claims, err := util.ParseJWT(token, s.jwt)
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}
	return model.Identity{AccountID: claims.Subject, Email: claims.Email}, nil
}

func (s *Service) throttled() bool {
	return s.limiter != nil && s.maxAttempts > 0
}

func (s *Service) recordFailure(ctx context.Context, log *zap.Logger, key string) {
	metrics.IncrementAuthAttempt("login", "failure")
	if !s.throttled() {
		return
	}
	if _, err := s.limiter.IncrementAndGet(ctx, key); err != nil {
		log.Warn("Failed to count failed login", zap.Error(err))
	}
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := util.HashPassword(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
