package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxImageSize = 10 << 20

// imageTypes maps the accepted media types to the extension stored on the
// content node.
var imageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

var errBlockedAddress = errors.New("blocked address")

type imageResult struct {
	ContentID string `json:"contentId"`
	Image     string `json:"image"`
}

func (s *Server) setContentImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("content_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := ""
	if v, fErr := req.RequireString("filename"); fErr == nil {
		filename = v
	}

	var data []byte
	var declared string
	if strings.HasPrefix(src, "data:") {
		data, declared, err = decodeDataURI(src)
	} else {
		data, declared, err = fetchImage(ctx, src)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, err := imageName(src, filename, declared)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := checkImageContent(data, filepath.Ext(name)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := s.ws.CMS().SetImage(ctx, id, name, bytes.NewReader(data))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := imageResult{ContentID: n.ID}
	if n.Image != nil {
		res.Image = *n.Image
	}
	out, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI reads a base64 image data URI and returns its bytes and the
// extension of its media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}
	ext, ok := imageTypes[mediaType]
	if !ok {
		return nil, "", fmt.Errorf("unsupported media type in data URI: %q", mediaType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxImageSize {
		return nil, "", fmt.Errorf("image too large: %d bytes (max %d)", len(data), maxImageSize)
	}
	return data, ext, nil
}

// fetchImage downloads an image over http(s). Hosts resolving to a
// non-public address are refused before the request and again when
// dialing, which also covers redirects and DNS answers that change.
func fetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported scheme %q (only http and https)", u.Scheme)
	}
	if err := checkHost(ctx, u.Hostname()); err != nil {
		return nil, "", err
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: dialGuard}
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{DialContext: dialer.DialContext, Proxy: nil},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, "", fmt.Errorf("image too large (max %d bytes)", maxImageSize)
	}
	mediaType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return data, imageTypes[strings.TrimSpace(mediaType)], nil
}

// blockedIP reports whether ip is not a public unicast address.
func blockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast() ||
		carrierNAT.Contains(ip)
}

var carrierNAT = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// checkHost refuses host when it is, or resolves to, a blocked address.
// Every address of the DNS answer is checked.
func checkHost(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("missing host")
	}
	if ip := net.ParseIP(host); ip != nil {
		if blockedIP(ip) {
			return fmt.Errorf("%w: %s", errBlockedAddress, host)
		}
		return nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if blockedIP(a.IP) {
			return fmt.Errorf("%w: %s resolves to %s", errBlockedAddress, host, a.IP)
		}
	}
	return nil
}

// dialGuard runs on every outgoing connection with the resolved address.
func dialGuard(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip == nil || blockedIP(ip) {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return nil
}

// imageName picks the stored file name: the given one, else the last URL
// path segment, else a random name with the declared extension.
func imageName(src, given, declaredExt string) (string, error) {
	name := given
	if name == "" && !strings.HasPrefix(src, "data:") {
		if u, err := url.Parse(src); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") {
				name = base
			}
		}
	}
	if name == "" {
		if declaredExt == "" {
			return "", fmt.Errorf("cannot tell the image type: pass a filename with an extension")
		}
		name = uuid.NewString() + declaredExt
	}

	name = unsafeNameChars.ReplaceAllString(filepath.Base(name), "_")
	if strings.Trim(name, "._") == "" {
		return "", fmt.Errorf("invalid filename %q", given)
	}
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return name, nil
	}
	return "", fmt.Errorf("unsupported image extension %q (allowed: png, jpg, jpeg, gif, webp, svg)", ext)
}

// checkImageContent sniffs data and requires it to be the image type ext
// names.
func checkImageContent(data []byte, ext string) error {
	ext = strings.ToLower(ext)
	if ext == ".jpeg" {
		ext = ".jpg"
	}

	var got string
	head := data[:min(len(data), 1024)]
	if bytes.Contains(head, []byte("<svg")) {
		got = ".svg"
	} else {
		mediaType, _, _ := strings.Cut(http.DetectContentType(data), ";")
		got = imageTypes[mediaType]
	}
	if got != ext {
		return fmt.Errorf("content does not look like a %s image", strings.TrimPrefix(ext, "."))
	}
	return nil
}
