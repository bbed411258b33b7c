package noaa

import (
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

// fetchFTP retrieves a file from the NCEI anonymous FTP mirror. Used as a
// fallback when the HTTPS endpoint is throttling or down; the mirror carries
// the same directory tree.
func (c *Client) fetchFTP(path string) ([]byte, error) {
	conn, err := ftp.Dial(c.ftpHost, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("ftp read: %w", err)
	}
	return body, nil
}
