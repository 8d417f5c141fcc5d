package usecase

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lingotube-backend/internal/config"
	"lingotube-backend/internal/domain"
	"lingotube-backend/internal/domain/model"
	"lingotube-backend/internal/domain/ports/adapter"
	"lingotube-backend/internal/domain/ports/repository"
	"lingotube-backend/internal/infra/logging"
	"lingotube-backend/internal/infra/metrics"
	"lingotube-backend/internal/infra/security"
	red "lingotube-backend/internal/infra/redis"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

// Permissive international pattern: optional plus, 6-20 digits.
var phonePattern = regexp.MustCompile(`^\+?\d{6,20}$`)

// SendLimiter throttles outbound code dispatches per phone.
type SendLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// AuthUseCase is the SMS one-time-passcode login flow.
type AuthUseCase interface {
	// SendCode issues a fresh OTP for the phone, replacing any outstanding
	// record. In sandbox mode the plaintext code is returned instead of
	// dispatched; otherwise it goes to the SMS gateway and the empty string
	// comes back.
	SendCode(ctx context.Context, phone string) (code string, err error)
	// VerifyCode checks the guess against the outstanding record, provisions
	// a user for the phone when none exists, and mints an access token.
	VerifyCode(ctx context.Context, phone, code string) (*model.User, string, error)
}

type authUC struct {
	smsCodes repository.SMSCodeRepository
	users    repository.UserRepository
	tm       repository.TransactionManager
	gateway  adapter.SMSGateway
	tokens   adapter.TokenIssuer
	limiter  SendLimiter
	cfg      config.SMSConfig
	rng      io.Reader // crypto/rand in production, injectable for tests
	log      *zerolog.Logger
}

func NewAuthUseCase(
	smsCodes repository.SMSCodeRepository,
	users repository.UserRepository,
	tm repository.TransactionManager,
	gateway adapter.SMSGateway,
	tokens adapter.TokenIssuer,
	limiter SendLimiter,
	cfg config.SMSConfig,
	logger *zerolog.Logger,
) *authUC {
	return &authUC{
		smsCodes: smsCodes,
		users:    users,
		tm:       tm,
		gateway:  gateway,
		tokens:   tokens,
		limiter:  limiter,
		cfg:      cfg,
		rng:      rand.Reader,
		log:      logger,
	}
}

// WithRand overrides the random source. Tests use it to make the generated
// code deterministic; production code never calls it.
func (u *authUC) WithRand(r io.Reader) *authUC {
	u.rng = r
	return u
}

func (u *authUC) SendCode(ctx context.Context, phone string) (string, error) {
	defer logging.TraceDuration(u.log, "AuthUC.SendCode")()

	phone = strings.TrimSpace(phone)
	if !phonePattern.MatchString(phone) {
		return "", domain.ErrInvalidPhone
	}

	if u.limiter != nil {
		ok, err := u.limiter.Allow(ctx, red.SMSSendKey(phone), u.cfg.SendPerWindow, u.cfg.SendWindow())
		if err != nil {
			return "", err
		}
		if !ok {
			metrics.IncOTPIssued("rate_limited")
			return "", domain.ErrRateLimited
		}
	}

	code, err := sixDigitCode(u.rng)
	if err != nil {
		return "", err
	}
	// Only the bcrypt hash is persisted; the plaintext exists just long
	// enough to hand to the gateway (or the sandbox caller).
	hash, err := security.Hash(code)
	if err != nil {
		return "", err
	}

	// The per-phone lock serializes concurrent issuance: without it two
	// transactions can each see no live row, delete nothing, and both insert.
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.smsCodes.AcquirePhoneLock(ctx, tx, phone); err != nil {
			return err
		}
		if err := u.smsCodes.DeleteByPhone(ctx, tx, phone); err != nil {
			return err
		}
		rec, err := model.NewSMSCode(phone, hash, u.cfg.CodeTTL())
		if err != nil {
			return err
		}
		return u.smsCodes.Save(ctx, tx, rec)
	})
	if err != nil {
		return "", err
	}

	if u.cfg.Sandbox {
		metrics.IncOTPIssued("sandbox")
		return code, nil
	}

	// Dispatch failure is surfaced, but the persisted record stays valid:
	// the code can still be delivered by a later send attempt, never by
	// leaking it through this response.
	if err := u.gateway.Send(ctx, phone, code); err != nil {
		metrics.IncOTPIssued("dispatch_failed")
		u.log.Error().Err(err).
			Str("gateway", u.gateway.Name()).
			Str("phone", logging.Redact(phone, false)).
			Msg("sms dispatch failed")
		return "", fmt.Errorf("%w: gateway %s", domain.ErrSMSDispatch, u.gateway.Name())
	}

	metrics.IncOTPIssued("sent")
	return "", nil
}

func (u *authUC) VerifyCode(ctx context.Context, phone, code string) (*model.User, string, error) {
	defer logging.TraceDuration(u.log, "AuthUC.VerifyCode")()

	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if !phonePattern.MatchString(phone) {
		return nil, "", domain.ErrInvalidPhone
	}

	var (
		user      *model.User
		verifyErr error
	)
	// Wrong guesses must survive the transaction: the attempt counter is
	// committed by returning nil and carrying the failure out-of-band.
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		rec, err := u.smsCodes.FindLatestUnusedByPhone(ctx, tx, phone)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				metrics.IncOTPVerified("invalid")
				verifyErr = domain.ErrInvalidOTP
				return nil
			}
			return err
		}
		now := time.Now()
		if rec.Expired(now) {
			metrics.IncOTPVerified("expired")
			verifyErr = domain.ErrOTPExpired
			return nil
		}
		// Attempt cap is enforced before the hash comparison, so a correct
		// sixth guess still fails.
		if rec.Exhausted() {
			metrics.IncOTPVerified("exhausted")
			verifyErr = domain.ErrTooManyAttempts
			return nil
		}
		if !security.Verify(code, rec.CodeHash) {
			rec.RegisterFailure()
			if err := u.smsCodes.Save(ctx, tx, rec); err != nil {
				return err
			}
			metrics.IncOTPVerified("invalid")
			verifyErr = domain.ErrInvalidOTP
			return nil
		}

		rec.MarkUsed()
		if err := u.smsCodes.Save(ctx, tx, rec); err != nil {
			return err
		}

		usr, err := u.users.FindByPhone(ctx, tx, phone)
		if errors.Is(err, domain.ErrNotFound) {
			usr, err = u.provisionUser(phone)
			if err != nil {
				return err
			}
			// The unique constraint on phone is the backstop against two
			// concurrent verifications provisioning the same account.
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		// A deactivated account never gets a token. The consumed mark still
		// commits, so the burnt code cannot be replayed.
		if !usr.IsActive {
			metrics.IncOTPVerified("disabled")
			verifyErr = domain.ErrUserDisabled
			return nil
		}
		user = usr
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if verifyErr != nil {
		return nil, "", verifyErr
	}

	token, err := u.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	metrics.IncOTPVerified("ok")
	return user, token, nil
}

// provisionUser builds a first-class account for a phone seen for the first
// time: placeholder email, random unusable password, no username.
func (u *authUC) provisionUser(phone string) (*model.User, error) {
	pw, err := security.RandomPassword()
	if err != nil {
		return nil, err
	}
	hash, err := security.Hash(pw)
	if err != nil {
		return nil, err
	}
	usr, err := model.NewUser(phone+"@sms.local", hash)
	if err != nil {
		return nil, err
	}
	return usr.WithPhone(phone), nil
}

// sixDigitCode draws a uniform 6-digit code from the given random source.
// The source must be cryptographically secure in production: predictable
// OTPs defeat the whole flow.
func sixDigitCode(r io.Reader) (string, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
