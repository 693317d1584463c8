package services

import (
	"context"
	"fmt"
	"net/http"

	"expenser/internal/log"
	"expenser/internal/session"
	"expenser/internal/validate"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountUpdateRequest struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Login authenticates and establishes the persisted session.
func (s *Service) Login(ctx context.Context, form validate.LoginForm) (session.Session, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return session.Session{}, errs
	}

	resp, err := s.api.Do(ctx, http.MethodPost, "/login", loginRequest{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		s.notifier.Error(ctx, "Network error, please try again")
		return session.Session{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if !resp.OK() {
		loginErr := resp.Err()
		s.notifier.Error(ctx, loginErr.Error())
		return session.Session{}, loginErr
	}

	var payload loginResponse
	if err := resp.Decode(&payload); err != nil {
		return session.Session{}, err
	}

	sess, err := s.sessions.Establish(payload.Token, payload.Name, payload.Username)
	if err != nil {
		return session.Session{}, fmt.Errorf("persist session: %w", err)
	}

	s.logger.InfoContext(ctx, "Logged in",
		log.FieldOperation, log.OpLogin,
		log.FieldUsername, sess.Username)
	s.notifier.Success(ctx, "Welcome back, "+sess.Name)
	return sess, nil
}

// Logout clears the session and drops every cached collection; cached
// data belongs to the authenticated user.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(); err != nil {
		return err
	}
	s.cache.Flush()

	s.logger.InfoContext(ctx, "Logged out", log.FieldOperation, log.OpLogout)
	s.notifier.Info(ctx, "Logged out")
	return nil
}

// Signup creates a new account. No session is established; the user logs
// in afterwards.
func (s *Service) Signup(ctx context.Context, form validate.SignupForm) error {
	if errs := form.Validate(); len(errs) > 0 {
		return errs
	}

	resp, err := s.api.Do(ctx, http.MethodPost, "/user", signupRequest{
		Name:     form.Name,
		Username: form.Username,
		Password: form.Password,
	})
	return s.settle(ctx, resp, err, "Account created, you can log in now")
}

// UpdateAccount changes the profile of the logged-in user.
func (s *Service) UpdateAccount(ctx context.Context, name, image string) error {
	resp, err := s.api.Do(ctx, http.MethodPut, "/user", accountUpdateRequest{
		Name:  name,
		Image: image,
	})
	return s.settle(ctx, resp, err, "Account updated")
}
