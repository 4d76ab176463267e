package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/mithrel/docgen/internal/form"
	"github.com/mithrel/docgen/pkg/api"
)

// DefaultMaxUpload mirrors the collaborator's 50MB request limit.
const DefaultMaxUpload int64 = 50 << 20

// CookieStore persists the collaborator's session cookies between runs.
type CookieStore interface {
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	MaxUpload     int64
	ClientID      string
	Cookies       CookieStore
	Logger        *log.Logger
	Verbose       bool
}

// Client talks to the DocGen server. The server keeps the whole project in
// its session cookie, so every Client call shares one cookie jar.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
	opts       Options
	log        *log.Logger
}

// New builds a client and restores persisted cookies.
func New(ctx context.Context, opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("remote: server url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid server url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 6 * opts.Timeout
	}
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	if opts.ClientID == "" {
		opts.ClientID = api.NewClientID()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: base,
		jar:  jar,
		opts: opts,
		log:  logger,
		httpClient: &http.Client{
			Jar: jar,
			// Flask answers navigation endpoints with redirects; the target
			// tells us the outcome, so never follow them.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
	if opts.Cookies != nil {
		cookies, err := opts.Cookies.LoadCookies(ctx, base.Host)
		if err != nil {
			logger.Printf("remote: load cookies: %v", err)
		} else if len(cookies) > 0 {
			jar.SetCookies(base, cookies)
		}
	}
	return c, nil
}

// BaseURL returns the configured server url.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(p string) string {
	u := *c.base
	u.Path = path.Join(c.base.Path, p)
	return u.String()
}

type response struct {
	body   []byte
	status int
	header http.Header
}

func (c *Client) execRequest(ctx context.Context, timeout time.Duration, method, p, contentType string, body io.Reader) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(p), body)
	if err != nil {
		return response{}, err
	}
	reqID := api.NewRequestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("X-Docgen-Client", c.opts.ClientID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.opts.Verbose {
			c.log.Printf("remote: %s %s id=%s failed after %s: %v", method, p, reqID, time.Since(start), err)
		}
		return response{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, err
	}
	if c.opts.Verbose {
		c.log.Printf("remote: %s %s id=%s -> %d in %s", method, p, reqID, resp.StatusCode, time.Since(start))
	}
	c.persistCookies(ctx)
	return response{body: respBody, status: resp.StatusCode, header: resp.Header}, nil
}

func (c *Client) persistCookies(ctx context.Context) {
	if c.opts.Cookies == nil {
		return
	}
	if err := c.opts.Cookies.SaveCookies(context.WithoutCancel(ctx), c.base.Host, c.jar.Cookies(c.base)); err != nil {
		c.log.Printf("remote: save cookies: %v", err)
	}
}

// do runs a request and maps transport failures and non-2xx replies to
// NetworkError.
func (c *Client) do(ctx context.Context, op, method, p, contentType string, body io.Reader) (response, error) {
	return c.doTimeout(ctx, c.opts.Timeout, op, method, p, contentType, body)
}

func (c *Client) doTimeout(ctx context.Context, timeout time.Duration, op, method, p, contentType string, body io.Reader) (response, error) {
	resp, err := c.execRequest(ctx, timeout, method, p, contentType, body)
	if err != nil {
		return resp, &NetworkError{Op: op, Err: err}
	}
	if resp.status >= 300 {
		return resp, &NetworkError{Op: op, Status: resp.status, Message: errorMessage(resp)}
	}
	return resp, nil
}

func errorMessage(resp response) string {
	if resp.status >= 300 && resp.status < 400 {
		return "no active project; run setup first"
	}
	var eb api.ErrorBody
	if err := json.Unmarshal(resp.body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	return strings.TrimSpace(string(resp.body))
}

func decode(op string, resp response, v any) error {
	if err := json.Unmarshal(resp.body, v); err != nil {
		return &NetworkError{Op: op, Status: resp.status, Message: "malformed response", Err: err}
	}
	return nil
}

// UpdateSection posts a section snapshot and returns the regenerated markdown.
func (c *Client) UpdateSection(ctx context.Context, snap form.Snapshot) (api.SectionUpdate, error) {
	const op = "update section"
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := snap.WriteMultipart(w); err != nil {
		return api.SectionUpdate{}, err
	}
	if err := w.Close(); err != nil {
		return api.SectionUpdate{}, err
	}
	resp, err := c.do(ctx, op, http.MethodPost, "/update_section", w.FormDataContentType(), &buf)
	if err != nil {
		return api.SectionUpdate{}, err
	}
	var out api.SectionUpdate
	if err := decode(op, resp, &out); err != nil {
		return api.SectionUpdate{}, err
	}
	if !out.Success {
		return out, &ApplicationError{Op: op, Message: out.Error}
	}
	return out, nil
}

// Export fetches the full generated document.
func (c *Client) Export(ctx context.Context) (api.Export, error) {
	const op = "export"
	resp, err := c.do(ctx, op, http.MethodGet, "/export", "", nil)
	if err != nil {
		return api.Export{}, err
	}
	var out api.Export
	if err := decode(op, resp, &out); err != nil {
		return api.Export{}, err
	}
	if out.Filename == "" {
		out.Filename = "README.md"
	}
	return out, nil
}

// SectionsStatus returns completion flags keyed by section id.
func (c *Client) SectionsStatus(ctx context.Context) (map[string]bool, error) {
	const op = "sections status"
	resp, err := c.do(ctx, op, http.MethodGet, "/get_sections_status", "", nil)
	if err != nil {
		return nil, err
	}
	var out api.SectionsStatus
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out.Status == nil {
		if out.Error != "" {
			return nil, &ApplicationError{Op: op, Message: out.Error}
		}
		out.Status = map[string]bool{}
	}
	return out.Status, nil
}

// AllowedArchive reports whether the collaborator accepts the file name.
func AllowedArchive(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".zip") || strings.HasSuffix(n, ".tar.gz") || strings.HasSuffix(n, ".tgz")
}

// UploadStructure sends a project archive and returns the analyzed tree.
func (c *Client) UploadStructure(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "upload structure"
	if !AllowedArchive(filename) {
		return "", ErrUnsupportedArchive
	}
	data, err := io.ReadAll(io.LimitReader(r, c.opts.MaxUpload+1))
	if err != nil {
		return "", fmt.Errorf("read archive: %w", err)
	}
	if int64(len(data)) > c.opts.MaxUpload {
		return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, c.opts.MaxUpload)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("project_files", path.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := c.doTimeout(ctx, c.opts.UploadTimeout, op, http.MethodPost, "/upload_structure", w.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	var out api.UploadResult
	if err := decode(op, resp, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &ApplicationError{Op: op, Message: out.Error}
	}
	return out.Structure, nil
}

// UpdateTheme selects the document theme.
func (c *Client) UpdateTheme(ctx context.Context, theme string) error {
	const op = "update theme"
	vals := url.Values{"theme": {theme}}
	resp, err := c.do(ctx, op, http.MethodPost, "/update_theme", "application/x-www-form-urlencoded", strings.NewReader(vals.Encode()))
	if err != nil {
		return err
	}
	var out api.ThemeResult
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := decode(op, resp, &out); err != nil {
		return err
	}
	if !out.Success && out.Error != "" {
		return &ApplicationError{Op: op, Message: out.Error}
	}
	return nil
}

// Setup starts a new project of the given type, optionally prefilled.
func (c *Client) Setup(ctx context.Context, pt api.ProjectType, useExample bool) error {
	const op = "setup"
	if !pt.Valid() {
		return fmt.Errorf("%s: unknown project type %q", op, pt)
	}
	vals := url.Values{"project_type": {string(pt)}}
	if useExample {
		vals.Set("use_example", "true")
	}
	resp, err := c.execRequest(ctx, c.opts.Timeout, http.MethodPost, "/setup", "application/x-www-form-urlencoded", strings.NewReader(vals.Encode()))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	switch {
	case resp.status >= 300 && resp.status < 400:
		// Success redirects into the editor, rejection back to the index.
		if !strings.Contains(resp.header.Get("Location"), "/editor") {
			return &ApplicationError{Op: op, Message: "server rejected project type " + string(pt)}
		}
		return nil
	case resp.status >= 400:
		return &NetworkError{Op: op, Status: resp.status, Message: errorMessage(resp)}
	}
	return nil
}

// Reset discards the server side project.
func (c *Client) Reset(ctx context.Context) error {
	const op = "reset"
	resp, err := c.execRequest(ctx, c.opts.Timeout, http.MethodGet, "/reset", "", nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if resp.status >= 400 {
		return &NetworkError{Op: op, Status: resp.status, Message: errorMessage(resp)}
	}
	return nil
}

// Download streams the generated document as an attachment and returns the
// suggested file name.
func (c *Client) Download(ctx context.Context, w io.Writer) (string, error) {
	const op = "download"
	resp, err := c.do(ctx, op, http.MethodGet, "/download", "", nil)
	if err != nil {
		return "", err
	}
	name := "README.md"
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	if _, err := w.Write(resp.body); err != nil {
		return "", err
	}
	return name, nil
}
