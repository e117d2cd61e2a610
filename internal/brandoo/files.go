package brandoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FileError reports a failed upload or deletion.
type FileError struct {
	Op   string
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("brandoo: %s file %q: %v", e.Op, e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// UploadFile stores r under name and returns the path the backend assigned.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	resp, err := c.execute(ctx, call{
		method:    http.MethodPost,
		path:      "upload-file",
		file:      &upload{name: name, reader: r},
		anonymous: true,
		fileOp:    true,
	})
	if err != nil {
		return "", &FileError{Op: "upload", Name: name, Err: err}
	}
	path := plainString(resp.Body())
	if path == "" {
		return "", &FileError{Op: "upload", Name: name, Err: fmt.Errorf("empty path in response")}
	}
	return path, nil
}

// DeleteFile removes a stored file and returns the backend's confirmation.
func (c *Client) DeleteFile(ctx context.Context, name string) (string, error) {
	resp, err := c.execute(ctx, call{
		method:    http.MethodDelete,
		path:      p("delete-file/", name),
		anonymous: true,
		fileOp:    true,
	})
	if err != nil {
		return "", &FileError{Op: "delete", Name: name, Err: err}
	}
	return plainString(resp.Body()), nil
}

// plainString accepts both a JSON string and a bare text body.
func plainString(body []byte) string {
	body = bytes.TrimSpace(body)
	var s string
	if len(body) > 0 && body[0] == '"' && json.Unmarshal(body, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(body))
}
