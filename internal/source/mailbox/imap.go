package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobtracker/internal/logger"
)

// Message is an unseen email, fetched with BODY.PEEK[] so reading it does
// not set \Seen.
type Message struct {
	UID     imap.UID
	From    string
	Subject string
	Date    time.Time
	Raw     []byte
}

// Mailbox is the slice of an IMAP session the importer needs.
type Mailbox interface {
	Unseen(ctx context.Context, max int) ([]Message, error)
	MarkSeen(uids []imap.UID) error
	Close() error
}

type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Mailbox  string
	TLS      *tls.Config
}

func (c IMAPConfig) addr() string {
	host := c.Host
	if strings.Contains(host, ":") {
		return host
	}
	port := c.Port
	if port == 0 {
		port = 993
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// IMAPMailbox is a logged-in session with the configured folder selected.
type IMAPMailbox struct {
	c    *imapclient.Client
	stop chan struct{}
}

// DialIMAP connects over TLS, logs in and selects cfg.Mailbox (INBOX when
// empty).
func DialIMAP(ctx context.Context, cfg IMAPConfig) (*IMAPMailbox, error) {
	if cfg.Host == "" {
		return nil, errors.New("imap host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("imap username/password is required")
	}
	tlsCfg := cfg.TLS
	if tlsCfg == nil {
		tlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: strings.Split(cfg.Host, ":")[0],
		}
	}

	c, err := imapclient.DialTLS(cfg.addr(), &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}

	// close the connection if the caller gives up
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-stop:
		}
	}()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		close(stop)
		_ = c.Close()
		return nil, fmt.Errorf("imap login: %w", err)
	}

	folder := cfg.Mailbox
	if folder == "" {
		folder = "INBOX"
	}
	if _, err := c.Select(folder, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		close(stop)
		_ = c.Close()
		return nil, fmt.Errorf("imap select %q: %w", folder, err)
	}

	return &IMAPMailbox{c: c, stop: stop}, nil
}

// Unseen returns up to max unseen messages from the last three months,
// newest first.
func (m *IMAPMailbox) Unseen(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -3, 0),
	}
	searchData, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	fetchCmd := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		msg := Message{UID: buf.UID}
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				msg.From = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			msg.Raw = append([]byte(nil), b...)
		}
		out = append(out, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// MarkSeen sets \Seen on uids.
func (m *IMAPMailbox) MarkSeen(uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	cmd := m.c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

// Close logs out and drops the connection.
func (m *IMAPMailbox) Close() error {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	if err := m.c.Logout().Wait(); err != nil {
		logger.GetDefault().WithError(err).Debug("imap logout")
	}
	return m.c.Close()
}
