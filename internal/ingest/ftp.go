package ingest

import (
	"context"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// fetchFTP downloads an ftp:// URL into a temporary file carrying the remote
// file's extension, so ParseFile can dispatch on it. The returned cleanup
// removes the temporary file.
func (p *Parser) fetchFTP(ctx context.Context, ftpURL string) (string, func(), error) {
	host, remotePath, err := parseFTPURL(ftpURL)
	if err != nil {
		return "", nil, err
	}

	zap.L().Debug("ingest: fetching ftp drop file",
		zap.String("host", host),
		zap.String("path", remotePath),
	)

	timeout := time.Duration(p.opts.FTPTimeoutSecs) * time.Second
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return "", nil, eris.Wrap(err, "ftp: dial")
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return "", nil, eris.Wrap(err, "ftp: login")
	}

	resp, err := conn.Retr(remotePath)
	if err != nil {
		return "", nil, eris.Wrap(err, "ftp: retrieve")
	}
	defer resp.Close()

	tmp, err := os.CreateTemp("", "revwatch-*"+filepath.Ext(remotePath))
	if err != nil {
		return "", nil, eris.Wrap(err, "ftp: create temp file")
	}

	if _, err := io.Copy(tmp, resp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "ftp: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "ftp: close temp file")
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("ftp: empty path in url")
	}

	return host, path, nil
}
