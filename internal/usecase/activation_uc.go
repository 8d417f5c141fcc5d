package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/adapter"
	"lingotube-backend/internal/domain/ports/repository"
	"lingotube-backend/internal/infra/logging"
	"lingotube-backend/internal/infra/metrics"
	"lingotube-backend/internal/infra/security"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const passwordMinLength = 6

// ActivationUseCase drives the two-phase invite redemption protocol:
// verify a code to open a short redemption window, then register through
// that window, consuming code and session atomically.
type ActivationUseCase interface {
	// Verify opens a fresh redemption window for the code, superseding any
	// outstanding unused session bound to it.
	Verify(ctx context.Context, code string) (preToken string, expiresAt time.Time, err error)
	// Register consumes the window: creates the user and marks code and
	// session used in one transaction, then mints an access token.
	Register(ctx context.Context, preToken, username, password, email string) (*model.User, string, error)
	// Generate mints count fresh codes sharing one optional expiry.
	Generate(ctx context.Context, count, expiresInDays int) ([]string, *time.Time, error)
}

type activationUC struct {
	codes      repository.ActivationCodeRepository
	sessions   repository.ActivationSessionRepository
	users      repository.UserRepository
	tm         repository.TransactionManager
	tokens     adapter.TokenIssuer
	sessionTTL time.Duration
	log        *zerolog.Logger
}

func NewActivationUseCase(
	codes repository.ActivationCodeRepository,
	sessions repository.ActivationSessionRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	tokens adapter.TokenIssuer,
	sessionTTL time.Duration,
	logger *zerolog.Logger,
) *activationUC {
	return &activationUC{
		codes:      codes,
		sessions:   sessions,
		users:      users,
		tm:         tm,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		log:        logger,
	}
}

func (u *activationUC) Verify(ctx context.Context, code string) (string, time.Time, error) {
	defer logging.TraceDuration(u.log, "ActivationUC.Verify")()

	code = strings.TrimSpace(code)
	var session *model.ActivationSession

	// The code row is locked for the whole invalidate-then-insert sequence,
	// so two concurrent verifies of the same code serialize and only the
	// later session survives.
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		ac, err := u.codes.FindByCode(ctx, tx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				metrics.IncActivationVerified("not_found")
				return domain.ErrCodeNotFound
			}
			return err
		}
		if ac.IsUsed {
			metrics.IncActivationVerified("used")
			return domain.ErrCodeAlreadyUsed
		}
		if ac.Expired(time.Now()) {
			metrics.IncActivationVerified("expired")
			return domain.ErrCodeExpired
		}

		if err := u.sessions.DeleteUnusedByCode(ctx, tx, ac.ID); err != nil {
			return err
		}
		s, err := model.NewActivationSession(ac.ID, u.sessionTTL)
		if err != nil {
			return err
		}
		if err := u.sessions.Save(ctx, tx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return "", time.Time{}, err
	}

	metrics.IncActivationVerified("ok")
	return session.Token, session.ExpiresAt, nil
}

func (u *activationUC) Register(ctx context.Context, preToken, username, password, email string) (*model.User, string, error) {
	defer logging.TraceDuration(u.log, "ActivationUC.Register")()

	preToken = strings.TrimSpace(preToken)
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	var user *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		session, err := u.sessions.FindUnusedByToken(ctx, tx, preToken)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				metrics.IncActivationRegistered("invalid_session")
				return domain.ErrSessionInvalid
			}
			return err
		}
		now := time.Now()
		if session.Expired(now) {
			metrics.IncActivationRegistered("invalid_session")
			return domain.ErrSessionExpired
		}

		// Re-check the owning code under lock: it may have been consumed or
		// removed since the session was issued.
		ac, err := u.codes.FindByID(ctx, tx, session.CodeID)
		if err != nil || ac.IsUsed {
			metrics.IncActivationRegistered("invalid_session")
			return domain.ErrSessionInvalid
		}

		if !usernamePattern.MatchString(username) {
			metrics.IncActivationRegistered("validation")
			return domain.ErrUsernameInvalid
		}
		if len(password) < passwordMinLength {
			metrics.IncActivationRegistered("validation")
			return domain.ErrPasswordTooShort
		}
		if _, err := u.users.FindByUsername(ctx, tx, username); err == nil {
			metrics.IncActivationRegistered("conflict")
			return domain.ErrUsernameTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if _, err := u.users.FindByEmail(ctx, tx, email); err == nil {
			metrics.IncActivationRegistered("conflict")
			return domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		hash, err := security.Hash(password)
		if err != nil {
			return err
		}
		nu, err := model.NewUser(email, hash)
		if err != nil {
			return err
		}
		nu.WithUsername(username)
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}

		// Consume code and session in the same transaction as user creation;
		// any failure rolls the whole registration back.
		if err := ac.Consume(nu.ID, now); err != nil {
			return err
		}
		if err := u.codes.Save(ctx, tx, ac); err != nil {
			return err
		}
		if err := session.Consume(now); err != nil {
			return err
		}
		if err := u.sessions.Save(ctx, tx, session); err != nil {
			return err
		}

		user = nu
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	metrics.IncActivationRegistered("ok")
	u.log.Info().Str("user_id", user.ID).Msg("activation registration completed")
	return user, token, nil
}

func (u *activationUC) Generate(ctx context.Context, count, expiresInDays int) ([]string, *time.Time, error) {
	defer logging.TraceDuration(u.log, "ActivationUC.Generate")()

	if count <= 0 {
		return nil, nil, domain.ErrInvalidArgument
	}

	var expiresAt *time.Time
	if expiresInDays > 0 {
		t := time.Now().Add(time.Duration(expiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	codes := make([]string, 0, count)
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		attempts := 0
		for len(codes) < count {
			if attempts >= count*10 {
				return domain.ErrGenerationExhausted
			}
			attempts++

			code, err := generateActivationCode()
			if err != nil {
				return err
			}
			exists, err := u.codes.ExistsByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			ac, err := model.NewActivationCode(code, expiresAt)
			if err != nil {
				return err
			}
			if err := u.codes.Save(ctx, tx, ac); err != nil {
				return err
			}
			codes = append(codes, code)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	u.log.Info().Int("count", count).Msg("activation codes generated")
	return codes, expiresAt, nil
}
