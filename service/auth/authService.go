package authsvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"bookcatalog/model"
	userrepo "bookcatalog/repository/user"
	"bookcatalog/util/cache"
	"bookcatalog/util/hash"
	jwtutil "bookcatalog/util/jwt"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)

	// Logout revokes the presented token for the rest of its validity.
	// It never fails: an undecodable token or an unreachable cache is
	// logged and swallowed, the session is still over for the caller.
	Logout(ctx context.Context, token string)
}

type service struct {
	users    userrepo.Repo
	cache    cache.Cache
	log      *slog.Logger
	secret   string
	ttlHours int
}

func New(ur userrepo.Repo, c cache.Cache, log *slog.Logger, secret string, ttlHours int) Service {
	return &service{users: ur, cache: c, log: log, secret: secret, ttlHours: ttlHours}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Role:         model.RoleUser,
		PasswordHash: hashed,
	}

	if err := s.users.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Email, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.users.ByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Email, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	ttl, err := jwtutil.RemainingTTL(token, time.Now())
	if err != nil {
		// Nothing left to revoke, or not our token. Either way logout
		// proceeds.
		s.log.Warn("logout: token ttl unavailable", "err", err)
		return
	}
	if err := s.cache.AddToBlacklist(ctx, token, ttl); err != nil {
		s.log.Warn("logout: blacklist write failed", "err", err)
	}
}
