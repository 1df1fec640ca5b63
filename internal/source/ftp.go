package source

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ahead-health/dq-cli/internal/model"
)

// FTPSource downloads a CSV observation dump from an FTP drop and parses it.
// Some ministries publish monthly extracts this way rather than exposing the
// warehouse directly.
type FTPSource struct {
	// URL is a full ftp:// URL including the dump path.
	URL     string
	Timeout time.Duration
}

// NewFTP creates an FTPSource for the given ftp:// dump URL.
func NewFTP(dumpURL string, timeout time.Duration) *FTPSource {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FTPSource{URL: dumpURL, Timeout: timeout}
}

// ParseFTPURL extracts host (with default port 21) and path from an FTP URL.
func ParseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "source: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("source: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("source: empty path in ftp url")
	}

	return host, path, nil
}

// Fetch downloads the dump and delegates parsing to the CSV rules.
func (s *FTPSource) Fetch(ctx context.Context, scope model.Scope) ([]model.RawRecord, error) {
	host, path, err := ParseFTPURL(s.URL)
	if err != nil {
		return nil, err
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(s.Timeout))
	if err != nil {
		return nil, eris.Wrapf(err, "source: ftp dial %s", host)
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, eris.Wrap(err, "source: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: ftp retrieve %s", path)
	}
	data, err := io.ReadAll(resp)
	closeErr := resp.Close()
	if err != nil {
		return nil, eris.Wrap(err, "source: ftp read dump")
	}
	if closeErr != nil {
		return nil, eris.Wrap(closeErr, "source: ftp close")
	}

	records, err := ParseCSV(data, scope)
	if err != nil {
		return nil, err
	}

	zap.L().Info("fetched raw observations",
		zap.String("driver", "ftp"),
		zap.String("url", s.URL),
		zap.Int("records", len(records)),
	)
	return records, nil
}
