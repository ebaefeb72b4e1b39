package fetcher

import (
	"context"
	"net"
	"path"
	"sort"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the document inbox connection.
type FTPOptions struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
}

// FTPInbox lists and retrieves quote documents from an FTP directory.
// Each call opens its own connection, so one inbox is safe to share
// across batch workers.
type FTPInbox struct {
	opts FTPOptions
}

// NewFTPInbox creates an inbox client. Anonymous login is used when no
// user is configured.
func NewFTPInbox(opts FTPOptions) *FTPInbox {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPInbox{opts: opts}
}

// hostWithPort appends the default FTP port when host carries none.
func hostWithPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, "21")
	}
	return host
}

func (f *FTPInbox) connect(ctx context.Context) (*ftp.ServerConn, error) {
	host := hostWithPort(f.opts.Host)
	zap.L().Debug("ftp: connecting", zap.String("host", host))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp dial")
	}
	if err := conn.Login(f.opts.User, f.opts.Password); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "ftp login")
	}
	return conn, nil
}

// List returns the supported document names in dir, sorted.
func (f *FTPInbox) List(ctx context.Context, dir string) ([]string, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit() //nolint:errcheck

	entries, err := conn.List(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp list %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile || !IsSupported(e.Name) {
			continue
		}
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names, nil
}

// Fetch retrieves one document from dir, enforcing the size cap.
func (f *FTPInbox) Fetch(ctx context.Context, dir, name string) (*Document, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit() //nolint:errcheck

	remote := path.Join(dir, name)
	resp, err := conn.Retr(remote)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp retrieve %s", remote)
	}

	data, err := ReadCapped(resp, name)
	closeErr := resp.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, eris.Wrap(closeErr, "close ftp response")
	}
	return &Document{Name: name, Data: data}, nil
}
