package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Auth errors.
var (
	ErrInvalidOTP          = errors.New("invalid or expired otp")
	ErrOTPCooldown         = errors.New("otp requested too recently")
	ErrOTPAttemptsExceeded = errors.New("too many failed otp attempts")
	ErrInvalidToken        = errors.New("invalid token")
	ErrSessionRevoked      = errors.New("login session revoked")
)

// TokenType distinguishes the tokens the server signs.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeProfile is the short-lived ticket a new mobile number uses to
	// create its profile.
	TokenTypeProfile TokenType = "profile"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType `json:"token_type"`
	CandidateID int64     `json:"candidate_id,omitempty"`
	Mobile      string    `json:"mobile"`
	// LoginSessionID ties access and refresh tokens to one login. Logging out
	// deletes it and every token carrying it stops working.
	LoginSessionID string `json:"sid,omitempty"`
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// OTPSender delivers one-time codes to a mobile number.
type OTPSender interface {
	SendOTP(ctx context.Context, mobile, code string) error
}

// LogOTPSender writes codes to the log. It stands in for an SMS gateway in
// development and tests.
type LogOTPSender struct {
	log zerolog.Logger
}

// NewLogOTPSender creates a LogOTPSender.
func NewLogOTPSender(log zerolog.Logger) *LogOTPSender {
	return &LogOTPSender{log: log.With().Str("component", "otp_sender").Logger()}
}

// SendOTP logs the code at debug level.
func (s *LogOTPSender) SendOTP(_ context.Context, mobile, code string) error {
	s.log.Debug().Str("mobile", mobile).Str("otp", code).Msg("OTP issued")
	return nil
}

// rotateRefresh swaps the stored refresh id only if the presented one is
// still current. Returns 1 on success, 0 on reuse, -1 when the login is gone.
var rotateRefresh = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return -1
end
if current ~= ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// AuthService handles OTP login, JWT issuing and login sessions.
type AuthService struct {
	cfg    *config.Config
	rdb    *redis.Client
	sender OTPSender
	log    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, sender OTPSender, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		rdb:    rdb,
		sender: sender,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// SendOTP issues a fresh code for mobile. While the resend cooldown runs it
// returns ErrOTPCooldown with the time left. The cooldown is lifted again when
// the code cannot be stored or delivered.
func (s *AuthService) SendOTP(ctx context.Context, mobile string) (time.Duration, error) {
	cooldownKey := config.CacheKey.OTPCooldownKey(mobile)
	ok, err := s.rdb.SetNX(ctx, cooldownKey, 1, s.cfg.OTPResendCooldown).Result()
	if err != nil {
		return 0, fmt.Errorf("set otp cooldown: %w", err)
	}
	if !ok {
		ttl, err := s.rdb.TTL(ctx, cooldownKey).Result()
		if err != nil || ttl <= 0 {
			ttl = s.cfg.OTPResendCooldown
		}
		return ttl, ErrOTPCooldown
	}

	if err := s.issueOTP(ctx, mobile); err != nil {
		if delErr := s.rdb.Del(context.WithoutCancel(ctx), cooldownKey).Err(); delErr != nil {
			s.log.Error().Err(delErr).Str("mobile", mobile).Msg("Release otp cooldown failed")
		}
		return 0, err
	}
	return s.cfg.OTPResendCooldown, nil
}

func (s *AuthService) issueOTP(ctx context.Context, mobile string) error {
	code, err := generateOTP(s.cfg.OTPLength)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.OTPKey(mobile), hash, s.cfg.OTPTTL)
	pipe.Del(ctx, config.CacheKey.OTPAttemptsKey(mobile))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.SendOTP(ctx, mobile, code); err != nil {
		return fmt.Errorf("deliver otp: %w", err)
	}
	return nil
}

// VerifyOTP checks code against the last one sent to mobile and consumes it
// on success.
func (s *AuthService) VerifyOTP(ctx context.Context, mobile, code string) error {
	otpKey := config.CacheKey.OTPKey(mobile)
	attemptsKey := config.CacheKey.OTPAttemptsKey(mobile)

	hash, err := s.rdb.Get(ctx, otpKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("get otp: %w", err)
	}

	attempts, err := s.rdb.Incr(ctx, attemptsKey).Result()
	if err != nil {
		return fmt.Errorf("count otp attempts: %w", err)
	}
	s.rdb.Expire(ctx, attemptsKey, s.cfg.OTPTTL)

	if attempts > int64(s.cfg.OTPMaxAttempts) {
		s.rdb.Del(ctx, otpKey, attemptsKey)
		return ErrOTPAttemptsExceeded
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(code)); err != nil {
		return ErrInvalidOTP
	}

	s.rdb.Del(ctx, otpKey, attemptsKey)
	return nil
}

// IssueTokens starts a login session for a candidate.
func (s *AuthService) IssueTokens(ctx context.Context, candidateID int64, mobile string) (*TokenPair, error) {
	sid := uuid.New().String()
	refreshID := uuid.New().String()

	if err := s.rdb.Set(ctx, config.CacheKey.LoginSessionKey(sid), refreshID, s.cfg.RefreshTokenTTL).Err(); err != nil {
		return nil, fmt.Errorf("store login session: %w", err)
	}
	return s.signPair(candidateID, mobile, sid, refreshID)
}

// Refresh rotates a refresh token. Presenting an already rotated token ends
// the whole login session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.ValidateTokenOfType(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	nextID := uuid.New().String()
	res, err := rotateRefresh.Run(ctx, s.rdb,
		[]string{config.CacheKey.LoginSessionKey(claims.LoginSessionID)},
		claims.ID, nextID, s.cfg.RefreshTokenTTL.Milliseconds(),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	switch res {
	case 1:
		return s.signPair(claims.CandidateID, claims.Mobile, claims.LoginSessionID, nextID)
	case 0:
		s.log.Warn().
			Int64("candidate_id", claims.CandidateID).
			Str("sid", claims.LoginSessionID).
			Msg("Refresh token reused, login session revoked")
		return nil, ErrSessionRevoked
	default:
		return nil, ErrSessionRevoked
	}
}

// Logout ends the login session the claims belong to.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.rdb.Del(ctx, config.CacheKey.LoginSessionKey(claims.LoginSessionID)).Err()
}

// ValidateLoginSession checks that the claims' login session is still alive.
func (s *AuthService) ValidateLoginSession(ctx context.Context, claims *Claims) error {
	n, err := s.rdb.Exists(ctx, config.CacheKey.LoginSessionKey(claims.LoginSessionID)).Result()
	if err != nil {
		return fmt.Errorf("check login session: %w", err)
	}
	if n == 0 {
		return ErrSessionRevoked
	}
	return nil
}

// IssueProfileTicket signs the token create-profile expects from a mobile
// number that has just passed OTP verification.
func (s *AuthService) IssueProfileTicket(mobile string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   mobile,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.ProfileTicketTTL)),
		},
		TokenType: TokenTypeProfile,
		Mobile:    mobile,
	}
	return s.sign(claims)
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateTokenOfType validates a JWT and requires its type.
func (s *AuthService) ValidateTokenOfType(tokenStr string, want TokenType) (*Claims, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: got %s token, want %s", ErrInvalidToken, claims.TokenType, want)
	}
	return claims, nil
}

func (s *AuthService) signPair(candidateID int64, mobile, sid, refreshID string) (*TokenPair, error) {
	now := time.Now()
	subject := strconv.FormatInt(candidateID, 10)

	access, err := s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
		TokenType:      TokenTypeAccess,
		CandidateID:    candidateID,
		Mobile:         mobile,
		LoginSessionID: sid,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refreshID,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
		},
		TokenType:      TokenTypeRefresh,
		CandidateID:    candidateID,
		Mobile:         mobile,
		LoginSessionID: sid,
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// generateOTP returns n random decimal digits.
func generateOTP(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
