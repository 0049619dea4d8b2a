// Package transfer moves files between the local data directories and the
// exchange server, and archives processed files. Transfer failures are
// reported but do not invalidate a completed reconciliation; reports persist
// locally either way.
package transfer

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"roster-reconciliation-service/pkg/errors"
	"roster-reconciliation-service/pkg/logger"
)

// File name prefixes on the exchange server.
const (
	resultsFilePrefix = "Dfps-missing-person-results"
	countsFilePrefix  = "Dfps-missing-person-counts"
)

// Config holds the exchange server connection settings.
type Config struct {
	Host            string
	Port            int
	Username        string
	Password        string
	RemoteDirInbox  string // where the returned result files land
	RemoteDirOutbox string // where the submission file goes
	Timeout         time.Duration
}

// Client wraps an SFTP session against the exchange server.
type Client struct {
	config *Config
	ssh    *ssh.Client
	sftp   *sftp.Client
	logger logger.Logger
}

// Dial connects to the exchange server.
func Dial(config *Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("transfer")

	port := config.Port
	if port == 0 {
		port = 22
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	addr := fmt.Sprintf("%s:%d", config.Host, port)
	sshConfig := &ssh.ClientConfig{
		User: config.Username,
		Auth: []ssh.AuthMethod{ssh.Password(config.Password)},
		// The exchange host key rotates without notice; the transport
		// is pinned at the network level instead.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, errors.TransferError(errors.CodeConnectionFailed, addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, errors.TransferError(errors.CodeConnectionFailed, addr, err)
	}

	log.WithField("host", addr).Info("Connected to exchange server")
	return &Client{config: config, ssh: sshClient, sftp: sftpClient, logger: log}, nil
}

// Close tears down the session.
func (c *Client) Close() error {
	if c.sftp != nil {
		c.sftp.Close()
	}
	if c.ssh != nil {
		return c.ssh.Close()
	}
	return nil
}

// FetchedFiles names the result files pulled from the inbox.
type FetchedFiles struct {
	Results string // local path of the results file, "" if absent
	Counts  string // local path of the counts file, "" if absent
}

// FetchResults downloads the returned results and counts files matching the
// query period into localDir. A missing counts file is tolerated; a missing
// results file is an error the caller surfaces.
func (c *Client) FetchResults(queryPeriod, localDir string) (*FetchedFiles, error) {
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, localDir, err)
	}

	entries, err := c.sftp.ReadDir(c.config.RemoteDirInbox)
	if err != nil {
		return nil, errors.TransferError(errors.CodeDownloadFailed, c.config.RemoteDirInbox, err)
	}
	c.logger.WithField("files", len(entries)).Infof("Listed %s", c.config.RemoteDirInbox)

	fetched := &FetchedFiles{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case matchesPeriodFile(name, resultsFilePrefix, queryPeriod):
			fetched.Results, err = c.download(name, localDir)
		case matchesPeriodFile(name, countsFilePrefix, queryPeriod):
			fetched.Counts, err = c.download(name, localDir)
		}
		if err != nil {
			return nil, err
		}
	}

	return fetched, nil
}

// matchesPeriodFile prefers the period-tagged name but accepts the bare
// prefix; the sender does not tag consistently.
func matchesPeriodFile(name, prefix, queryPeriod string) bool {
	return strings.Contains(name, prefix+"_"+queryPeriod) || strings.Contains(name, prefix)
}

func (c *Client) download(name, localDir string) (string, error) {
	remotePath := path.Join(c.config.RemoteDirInbox, name)
	localPath := filepath.Join(localDir, name)

	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return "", errors.TransferError(errors.CodeDownloadFailed, remotePath, err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return "", errors.FileError(errors.CodeDirectoryError, localPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.TransferError(errors.CodeDownloadFailed, remotePath, err)
	}

	c.logger.WithField("file", name).Info("Downloaded")
	return localPath, nil
}

// Upload puts a local file into the outbox under its base name.
func (c *Client) Upload(localPath string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", errors.FileError(errors.CodeFileNotFound, localPath, err)
	}
	defer src.Close()

	remotePath := path.Join(c.config.RemoteDirOutbox, filepath.Base(localPath))
	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return "", errors.TransferError(errors.CodeUploadFailed, remotePath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.TransferError(errors.CodeUploadFailed, remotePath, err)
	}

	c.logger.WithFields(logger.Fields{
		"local":  localPath,
		"remote": remotePath,
	}).Info("Uploaded")

	return remotePath, nil
}
