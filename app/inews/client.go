package inews

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jlaffaye/ftp"
	"golang.org/x/text/encoding/charmap"

	"github.com/dbarreiro/rundown-sync/app/rundown"
)

const dialTimeout = 30 * time.Second

var _ rundown.StoryReader = (*Client)(nil)

// Client wraps the FTP access to an iNews server. All operations reconnect
// transparently when the control connection has gone away; callers never
// need an explicit disconnect between calls.
type Client struct {
	host     string
	user     string
	password string
	conn     *ftp.ServerConn
}

func NewClient(host, user, password string) *Client {
	return &Client{
		host:     host,
		user:     user,
		password: password,
	}
}

func (c *Client) Connect() error {
	slog.Info("Connecting to iNews server", "host", c.host)

	conn, err := ftp.Dial(hostAddr(c.host), ftp.DialWithTimeout(dialTimeout))
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.host, err)
	}

	if err := conn.Login(c.user, c.password); err != nil {
		conn.Quit()
		return fmt.Errorf("failed to log in as %s: %w", c.user, err)
	}

	c.conn = conn
	slog.Info("Connected to iNews server", "host", c.host)
	return nil
}

func (c *Client) Disconnect() {
	if c.conn != nil {
		if err := c.conn.Quit(); err != nil {
			slog.Debug("Error closing connection", "error", err)
		}
		c.conn = nil
	}
}

func (c *Client) isConnected() bool {
	if c.conn == nil {
		return false
	}
	return c.conn.NoOp() == nil
}

// EnsureConnected verifies the control connection with a NOOP probe and
// reconnects if it has gone stale.
func (c *Client) EnsureConnected() bool {
	if c.isConnected() {
		return true
	}
	c.Disconnect()
	if err := c.Connect(); err != nil {
		slog.Error("Reconnect failed", "host", c.host, "error", err)
		return false
	}
	return true
}

// NavigateTo changes to the given server path, starting from the root and
// descending segment by segment. iNews servers reject multi-segment CWDs.
func (c *Client) NavigateTo(path string) error {
	if !c.EnsureConnected() {
		return fmt.Errorf("not connected to %s", c.host)
	}

	if err := c.conn.ChangeDir("/"); err != nil {
		return fmt.Errorf("failed to change to root: %w", err)
	}

	for _, segment := range pathSegments(path) {
		if err := c.conn.ChangeDir(segment); err != nil {
			return fmt.Errorf("failed to change to %s: %w", segment, err)
		}
	}

	return nil
}

// ListEntries lists the entries at the given path, or the current directory
// when path is empty. When the server's LIST output cannot be parsed it
// falls back to a bare name listing with every entry treated as a story.
func (c *Client) ListEntries(path string) ([]rundown.Entry, error) {
	if !c.EnsureConnected() {
		return nil, fmt.Errorf("not connected to %s", c.host)
	}

	if path != "" {
		if err := c.NavigateTo(path); err != nil {
			return nil, err
		}
	}

	raw, err := c.conn.List("")
	if err != nil {
		slog.Debug("LIST failed, falling back to NLST", "path", path, "error", err)
		names, nlstErr := c.conn.NameList("")
		if nlstErr != nil {
			return nil, fmt.Errorf("failed to list %s: %w", path, err)
		}
		entries := make([]rundown.Entry, 0, len(names))
		for _, name := range names {
			if name == "" {
				continue
			}
			entries = append(entries, rundown.Entry{Name: decodeText(name)})
		}
		return entries, nil
	}

	entries := make([]rundown.Entry, 0, len(raw))
	for _, e := range raw {
		if e.Name == "" || e.Name == "." || e.Name == ".." {
			continue
		}
		entries = append(entries, rundown.Entry{
			Name:  decodeText(e.Name),
			IsDir: e.Type == ftp.EntryTypeFolder,
		})
	}

	return entries, nil
}

// ReadStory retrieves the body of a story in the current directory.
func (c *Client) ReadStory(name string) (string, error) {
	if !c.EnsureConnected() {
		return "", fmt.Errorf("not connected to %s", c.host)
	}

	resp, err := c.conn.Retr(name)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve %s: %w", name, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	return decodeText(string(data)), nil
}

// hostAddr appends the default FTP port when the host has none.
func hostAddr(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, "21")
}

func pathSegments(path string) []string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	var segments []string
	for _, segment := range strings.Split(normalized, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// decodeText maps server responses to UTF-8. Older iNews servers speak
// Latin-1 and offer no charset negotiation.
func decodeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return decoded
}
