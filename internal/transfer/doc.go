// Package transfer copies media files from a local folder or an SFTP server
// into the MMFT bucket.
package transfer
