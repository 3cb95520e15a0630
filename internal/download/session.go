package download

import (
	"net/http"

	"curadiff/internal/config"
)

// Session carries the credentials and identity attached to every request.
type Session struct {
	Token     string
	Cookie    string
	UserAgent string
}

// SessionFromConfig builds a Session from the [download] config section.
func SessionFromConfig(cfg *config.Config) Session {
	return Session{
		Token:     cfg.Download.SessionToken,
		Cookie:    cfg.Download.SessionCookie,
		UserAgent: cfg.Download.UserAgent,
	}
}

// Anonymous reports whether the session carries no credentials.
func (s Session) Anonymous() bool {
	return s.Token == "" && s.Cookie == ""
}

func (s Session) apply(req *http.Request) {
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	if s.Cookie != "" {
		req.Header.Set("Cookie", s.Cookie)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
}
