package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/weekplanner/internal/client/client"
	"github.com/dmitrijs2005/weekplanner/internal/common"
	"github.com/dmitrijs2005/weekplanner/internal/logging"
	"github.com/dmitrijs2005/weekplanner/internal/models"
)

// Prober answers whether the remote service is reachable.
type Prober interface {
	Health(ctx context.Context) error
}

// Service owns the authentication state machine and the active provider.
type Service struct {
	mu      sync.Mutex
	prober  Prober
	remote  Provider
	local   Provider
	active  Provider
	state   State
	session Session
	logger  logging.Logger
}

func NewService(prober Prober, remote, local Provider, logger logging.Logger) *Service {
	return &Service{
		prober: prober,
		remote: remote,
		local:  local,
		active: local,
		logger: logger.With("module", "identity"),
	}
}

// Start probes the remote once, selects the provider and tries to restore a
// saved session. It reports whether a session was restored.
//
// A remote that answered the probe but then fails the token check does not
// stop the client: on a transport failure the remote is probed again and,
// when unreachable, the local session is restored instead. Any other remote
// failure leaves the service unauthenticated with the cached token kept.
func (s *Service) Start(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selectMode(ctx)
	s.state = Authenticating

	sess, err := s.active.Restore(ctx)
	if err != nil && s.active == s.remote && errors.Is(err, client.ErrUnavailable) {
		if perr := s.prober.Health(ctx); perr != nil {
			s.logger.Warn(ctx, "remote unreachable during restore, switching to offline mode", "error", perr)
			s.active = s.local
			sess, err = s.active.Restore(ctx)
		}
	}
	if err != nil {
		s.state = Unauthenticated
		if errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired) {
			s.logger.Debug(ctx, "no session restored", "mode", s.active.Mode().String(), "reason", err)
			return false, nil
		}
		if s.active == s.remote {
			s.logger.Warn(ctx, "session not restored, cached token kept", "error", err)
			return false, nil
		}
		return false, err
	}
	s.authenticate(sess)
	s.logger.Info(ctx, "session restored", "mode", sess.Mode.String(), "user", sess.User.ID)
	return true, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	return s.authenticateWith(ctx, "login", func(p Provider) (Session, error) {
		return p.Login(ctx, email, password)
	})
}

func (s *Service) Register(ctx context.Context, email, password, name string) (Session, error) {
	return s.authenticateWith(ctx, "register", func(p Provider) (Session, error) {
		return p.Register(ctx, email, password, name)
	})
}

// Logout tears the session down. The remote is told on a best-effort basis;
// both providers always clear their local artifacts.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Authenticated {
		if err := s.active.Logout(ctx, s.session); err != nil {
			s.logger.Warn(ctx, "logout", "error", err)
		}
	}
	s.remote.Clear(ctx)
	s.local.Clear(ctx)

	s.session = Session{}
	s.state = Unauthenticated
	return nil
}

func (s *Service) UpdateProfile(ctx context.Context, name string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		return models.User{}, common.ErrorUnauthorized
	}
	user, err := s.active.UpdateProfile(ctx, s.session, name)
	if err != nil {
		return models.User{}, err
	}
	s.session.User = user
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Authenticated {
		return common.ErrorUnauthorized
	}
	return s.active.ChangePassword(ctx, s.session, current, next)
}

// Session returns the current session; ok is false unless authenticated.
func (s *Service) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, s.state == Authenticated
}

func (s *Service) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Mode()
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// authenticateWith runs op on the active provider. When the remote is the
// active provider and reports a transport failure, the remote is probed
// again; if it is still unreachable the service switches to offline mode
// and op is retried against the local ledger.
func (s *Service) authenticateWith(ctx context.Context, name string, op func(Provider) (Session, error)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Authenticating
	sess, err := op(s.active)
	if err != nil && errors.Is(err, client.ErrUnavailable) && s.active == s.remote {
		if perr := s.prober.Health(ctx); perr != nil {
			s.logger.Warn(ctx, "remote unreachable, switching to offline mode", "op", name, "error", perr)
			s.active = s.local
			sess, err = op(s.active)
		}
	}
	if err != nil {
		s.state = Unauthenticated
		s.session = Session{}
		return Session{}, fmt.Errorf("%s (%s): %w", name, s.active.Mode(), err)
	}

	s.authenticate(sess)
	s.logger.Info(ctx, name+" succeeded", "mode", sess.Mode.String(), "user", sess.User.ID)
	return sess, nil
}

func (s *Service) selectMode(ctx context.Context) {
	if err := s.prober.Health(ctx); err != nil {
		s.logger.Info(ctx, "remote unreachable, offline mode", "error", err)
		s.active = s.local
		return
	}
	s.active = s.remote
}

func (s *Service) authenticate(sess Session) {
	s.session = sess
	s.state = Authenticated
}
