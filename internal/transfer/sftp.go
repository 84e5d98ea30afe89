package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/medallia/speech-api-reference-implementation/internal/executor"
	"github.com/medallia/speech-api-reference-implementation/internal/util"
)

// ConnectTimeout bounds the TCP connect and SSH handshake
const ConnectTimeout = 30 * time.Second

// SFTPOptions identifies an SFTP server, account and folder.
// It is comparable so it can key the per-worker session cache.
type SFTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Folder   string
}

// Addr returns host:port
func (o SFTPOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// remoteSession is the part of an SFTP session the fetcher needs
type remoteSession interface {
	List(ctx context.Context, dir string) ([]File, error)
	Download(ctx context.Context, file string) ([]byte, error)
	Close() error
}

// SFTPSession is one SSH connection with an SFTP channel on top
type SFTPSession struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

// DialSFTP connects with password authentication. The host key is not verified.
func DialSFTP(ctx context.Context, opts SFTPOptions) (*SFTPSession, error) {
	cfg := &ssh.ClientConfig{
		User:            opts.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(opts.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         ConnectTimeout,
	}

	dialer := &net.Dialer{Timeout: ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Addr())
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to SFTP server %s: %w", util.ErrConnectionFailed, opts.Addr(), err)
	}

	// The deadline covers the handshake only; cancelling ctx cuts it short
	conn.SetDeadline(time.Now().Add(ConnectTimeout))
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, opts.Addr(), cfg)
	if !stop() {
		if err == nil {
			c.Close()
		}
		conn.Close()
		return nil, fmt.Errorf("%w: SSH handshake with %s abandoned: %w", util.ErrConnectionFailed, opts.Addr(), context.Cause(ctx))
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: SSH handshake with %s failed: %w", util.ErrConnectionFailed, opts.Addr(), err)
	}
	conn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(c, chans, reqs)
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("%w: could not start SFTP channel on %s: %w", util.ErrConnectionFailed, opts.Addr(), err)
	}

	return &SFTPSession{ssh: sshClient, sftp: sftpClient}, nil
}

// newSFTPSession wraps an already established SFTP client
func newSFTPSession(c *sftp.Client) *SFTPSession {
	return &SFTPSession{sftp: c}
}

// List returns the regular files directly inside dir with their full paths
func (s *SFTPSession) List(ctx context.Context, dir string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.sftp.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list remote directory %s: %w", dir, err)
	}

	files := make([]File, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." || e.IsDir() {
			continue
		}
		files = append(files, newFile(path.Join(dir, name)))
	}
	return files, nil
}

// Download reads a remote file into memory
func (s *SFTPSession) Download(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.sftp.Open(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open remote file %s: %w", file, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to download remote file %s: %w", file, err)
	}
	return data, nil
}

// Close closes the SFTP channel and the SSH connection
func (s *SFTPSession) Close() error {
	err := s.sftp.Close()
	if s.ssh != nil {
		if cerr := s.ssh.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// SFTPFetcher downloads files over SFTP, keeping one session per worker
type SFTPFetcher struct {
	opts     SFTPOptions
	sessions *executor.AffinityCache[SFTPOptions, remoteSession]
	logger   *slog.Logger
}

// NewSFTPFetcher creates a fetcher for a pool of the given size
func NewSFTPFetcher(opts SFTPOptions, workers int, logger *slog.Logger) *SFTPFetcher {
	return newSFTPFetcher(opts, workers, func(ctx context.Context, o SFTPOptions) (remoteSession, error) {
		return DialSFTP(ctx, o)
	}, logger)
}

func newSFTPFetcher(opts SFTPOptions, workers int, dial executor.DialFunc[SFTPOptions, remoteSession], logger *slog.Logger) *SFTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Folder == "" {
		opts.Folder = "/"
	}
	return &SFTPFetcher{
		opts:     opts,
		sessions: executor.NewAffinityCache(workers, dial),
		logger:   logger,
	}
}

// List returns the files in the configured folder. It runs before the pool
// starts and borrows the first worker's session.
func (f *SFTPFetcher) List(ctx context.Context) ([]File, error) {
	s, err := f.sessions.Get(ctx, 0, f.opts)
	if err != nil {
		return nil, err
	}

	files, err := s.List(ctx, f.opts.Folder)
	if err != nil {
		f.evict(0)
		return nil, err
	}

	f.logger.Debug("listed SFTP folder", "host", f.opts.Host, "folder", f.opts.Folder, "files", len(files))
	return files, nil
}

// Fetch downloads one file on the worker's own session. A failed download
// drops the session so the worker reconnects for its next file.
func (f *SFTPFetcher) Fetch(ctx context.Context, worker executor.WorkerID, file File) ([]byte, error) {
	s, err := f.sessions.Get(ctx, worker, f.opts)
	if err != nil {
		return nil, err
	}

	data, err := s.Download(ctx, file.Path)
	if err != nil {
		f.evict(worker)
		return nil, err
	}
	return data, nil
}

// Close closes every cached session
func (f *SFTPFetcher) Close() error {
	return f.sessions.Close()
}

func (f *SFTPFetcher) evict(worker executor.WorkerID) {
	if err := f.sessions.Evict(worker, f.opts); err != nil {
		f.logger.Debug("failed to close SFTP session", "worker", worker, "error", err)
	}
}
