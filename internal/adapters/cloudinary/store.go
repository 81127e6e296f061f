package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
)

// DefaultBaseURL is the Cloudinary upload API root.
const DefaultBaseURL = "https://api.cloudinary.com/v1_1"

// Config carries the Cloudinary account settings. APIKey/APISecret enable
// signed uploads (with incoming transformations) and destroys; with only an
// UploadPreset the adapter falls back to unsigned uploads and Destroy reports
// ErrUnavailable.
type Config struct {
	CloudName    string
	UploadPreset string
	APIKey       string
	APISecret    string

	// BaseURL overrides the API root, used by tests.
	BaseURL string

	HTTPTimeout time.Duration
}

// Store is a mediastore.Store backed by the Cloudinary REST API. The original
// deployment talks to the same endpoints, so assets remain interchangeable.
type Store struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time
}

func New(cfg Config, log zerolog.Logger) *Store {
	return NewWithOptions(cfg, nil, log)
}

func NewWithOptions(cfg Config, httpClient *http.Client, log zerolog.Logger) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &Store{
		cfg:    cfg,
		client: httpClient,
		log:    log.With().Str("component", "cloudinary").Logger(),
		now:    time.Now,
	}
}

// Configured reports whether uploads can be attempted at all.
func (s *Store) Configured() bool {
	return s.cfg.CloudName != "" && (s.cfg.UploadPreset != "" || s.signed())
}

func (s *Store) signed() bool {
	return s.cfg.APIKey != "" && s.cfg.APISecret != ""
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Store) Upload(ctx context.Context, r io.Reader, opts mediastore.UploadOptions) (mediastore.Upload, error) {
	if !s.Configured() {
		return mediastore.Upload{}, mediastore.ErrUnavailable
	}

	params := map[string]string{}
	if opts.Folder != "" {
		params["folder"] = opts.Folder
	}
	if s.signed() {
		// Quality/format auto-negotiation; face-aware square crop for headshots.
		transformation := "q_auto,f_auto"
		if opts.FaceCrop {
			transformation = "c_thumb,g_face,w_600,h_600," + transformation
		}
		params["transformation"] = transformation
		params["timestamp"] = strconv.FormatInt(s.now().Unix(), 10)
		params["signature"] = signParams(params, s.cfg.APISecret)
		params["api_key"] = s.cfg.APIKey
	} else {
		params["upload_preset"] = s.cfg.UploadPreset
	}

	body, contentType, err := multipartBody(r, params)
	if err != nil {
		return mediastore.Upload{}, err
	}
	endpoint := fmt.Sprintf("%s/%s/image/upload", s.cfg.BaseURL, s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return mediastore.Upload{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var out uploadResponse
	if err := s.do(req, &out); err != nil {
		return mediastore.Upload{}, err
	}
	if out.SecureURL == "" || out.PublicID == "" {
		return mediastore.Upload{}, fmt.Errorf("cloudinary: incomplete upload response")
	}
	return mediastore.Upload{URL: out.SecureURL, PublicID: out.PublicID}, nil
}

func (s *Store) Destroy(ctx context.Context, publicID string) error {
	if !s.signed() {
		// Destroys require API credentials; unsigned-preset deployments cannot
		// delete assets and the callers treat that as a logged warning.
		return mediastore.ErrUnavailable
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(s.now().Unix(), 10),
	}
	params["signature"] = signParams(params, s.cfg.APISecret)
	params["api_key"] = s.cfg.APIKey

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	endpoint := fmt.Sprintf("%s/%s/image/destroy", s.cfg.BaseURL, s.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := s.do(req, &out); err != nil {
		return err
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("cloudinary: destroy result %q", out.Result)
	}
	return nil
}

func (s *Store) do(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", mediastore.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		s.log.Debug().Int("status", resp.StatusCode).Str("url", req.URL.Path).Msg("cloudinary request failed")
		// Pass the service's own message through; callers map known codes.
		var er uploadResponse
		if json.Unmarshal(payload, &er) == nil && er.Error.Message != "" {
			return fmt.Errorf("cloudinary: %s", er.Error.Message)
		}
		return fmt.Errorf("cloudinary: http %d", resp.StatusCode)
	}
	return json.Unmarshal(payload, out)
}

// signParams implements Cloudinary request signing: the sorted query string of
// all params (minus api_key and signature) concatenated with the secret,
// SHA-1 hex encoded.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func multipartBody(r io.Reader, params map[string]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	fw, err := w.CreateFormFile("file", "upload")
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
