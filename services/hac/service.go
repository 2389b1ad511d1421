// Package hac is the proxy's service layer. It binds the portal scraper to
// the session store: each operation restores the caller's cookie jar from
// the session, runs the scraper against the portal, and writes the rotated
// jar back only after the operation fully succeeds.
package hac

import (
	"context"
	"fmt"
	"time"

	"hacproxy/lib/cookiejar"
	"hacproxy/lib/scrapers/homeaccess"
	"hacproxy/services/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/hac")

type Config struct {
	// PortalUrl is the Home Access Center deployment to proxy, for example
	// "https://home-access.cfisd.net".
	PortalUrl string `json:"portal_url"`
	// TimeoutSeconds bounds each outbound portal call. Zero uses the
	// scraper's default.
	TimeoutSeconds int `json:"timeout_seconds"`
	// CloudflareBypass enables the browser-check transport wrapper.
	CloudflareBypass bool `json:"cloudflare_bypass"`
}

type Service struct {
	store session.Store
	cfg   Config
}

func NewService(store session.Store, cfg Config) *Service {
	return &Service{store: store, cfg: cfg}
}

func (s *Service) client(jar *cookiejar.Jar) (*homeaccess.Client, error) {
	return homeaccess.NewClient(homeaccess.ClientOptions{
		BaseUrl:          s.cfg.PortalUrl,
		Jar:              jar,
		Timeout:          time.Duration(s.cfg.TimeoutSeconds) * time.Second,
		CloudflareBypass: s.cfg.CloudflareBypass,
	})
}

// Login runs the portal handshake for the given session. The session's
// username and jar are only persisted when the portal accepts the
// credentials, a failed attempt leaves the stored session untouched.
func (s *Service) Login(ctx context.Context, sessionId, username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	ctx, span := tracer.Start(ctx, "hac:Login")
	defer span.End()

	sess, _, err := s.store.Get(ctx, sessionId)
	if err != nil {
		span.SetStatus(codes.Error, "failed to load session")
		return fmt.Errorf("load session: %w", err)
	}
	jar, err := cookiejar.Decode(sess.CookieJar)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode cookie jar")
		return fmt.Errorf("decode cookie jar: %w", err)
	}

	client, err := s.client(jar)
	if err != nil {
		return err
	}
	outcome, err := client.Login(ctx, username, password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login handshake failed")
		return err
	}
	if outcome != homeaccess.OutcomeAuthenticated {
		return ErrInvalidCredentials
	}

	serialized, err := cookiejar.Encode(jar)
	if err != nil {
		span.SetStatus(codes.Error, "failed to encode cookie jar")
		return fmt.Errorf("encode cookie jar: %w", err)
	}
	err = s.store.Put(ctx, sessionId, session.Session{
		Username:  username,
		CookieJar: serialized,
	})
	if err != nil {
		span.SetStatus(codes.Error, "failed to save session")
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

type ScheduleResult struct {
	Date     string                     `json:"date"`
	Schedule []homeaccess.ScheduleEntry `json:"schedule"`
}

// parseDate validates a YYYY-MM-DD string as a real calendar date.
func parseDate(date string) (homeaccess.ScheduleDate, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return homeaccess.ScheduleDate{}, ErrBadDate
	}
	return homeaccess.ScheduleDate{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}, nil
}

// Schedule fetches the session user's class schedule for the given
// YYYY-MM-DD date. The date is validated before any portal traffic. The
// portal may rotate cookies on every page, so the jar is re-saved on
// success, which also re-arms the session's inactivity expiry.
func (s *Service) Schedule(ctx context.Context, sessionId, date string) (ScheduleResult, error) {
	ctx, span := tracer.Start(ctx, "hac:Schedule")
	defer span.End()

	// the auth check runs before date validation, an anonymous caller gets
	// a 401 no matter what the body looks like
	sess, found, err := s.store.Get(ctx, sessionId)
	if err != nil {
		span.SetStatus(codes.Error, "failed to load session")
		return ScheduleResult{}, fmt.Errorf("load session: %w", err)
	}
	if !found || sess.Username == "" {
		return ScheduleResult{}, ErrNotLoggedIn
	}

	scheduleDate, err := parseDate(date)
	if err != nil {
		return ScheduleResult{}, err
	}
	jar, err := cookiejar.Decode(sess.CookieJar)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode cookie jar")
		return ScheduleResult{}, fmt.Errorf("decode cookie jar: %w", err)
	}

	client, err := s.client(jar)
	if err != nil {
		return ScheduleResult{}, err
	}
	entries, err := client.FetchSchedule(ctx, sess.Username, scheduleDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schedule fetch failed")
		return ScheduleResult{}, err
	}
	if entries == nil {
		entries = []homeaccess.ScheduleEntry{}
	}

	serialized, err := cookiejar.Encode(jar)
	if err != nil {
		span.SetStatus(codes.Error, "failed to encode cookie jar")
		return ScheduleResult{}, fmt.Errorf("encode cookie jar: %w", err)
	}
	sess.CookieJar = serialized
	err = s.store.Put(ctx, sessionId, sess)
	if err != nil {
		span.SetStatus(codes.Error, "failed to save session")
		return ScheduleResult{}, fmt.Errorf("save session: %w", err)
	}

	return ScheduleResult{
		Date:     scheduleDate.Format(),
		Schedule: entries,
	}, nil
}

// Logout destroys the session. Destroying a session that does not exist is
// a no-op.
func (s *Service) Logout(ctx context.Context, sessionId string) error {
	ctx, span := tracer.Start(ctx, "hac:Logout")
	defer span.End()

	if err := s.store.Destroy(ctx, sessionId); err != nil {
		span.SetStatus(codes.Error, "failed to destroy session")
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
