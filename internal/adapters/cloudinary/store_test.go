package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tanc-norcal/membership-api/internal/ports/out/mediastore"
)

func TestStore_UnconfiguredIsUnavailable(t *testing.T) {
	t.Parallel()

	s := New(Config{}, zerolog.Nop())
	_, err := s.Upload(context.Background(), strings.NewReader("img"), mediastore.UploadOptions{})
	if !errors.Is(err, mediastore.ErrUnavailable) {
		t.Fatalf("upload err=%v, want ErrUnavailable", err)
	}
	if err := s.Destroy(context.Background(), "x"); !errors.Is(err, mediastore.ErrUnavailable) {
		t.Fatalf("destroy err=%v, want ErrUnavailable", err)
	}
}

func TestStore_SignedUpload(t *testing.T) {
	t.Parallel()

	var gotPath string
	var form map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{}
		for k, vs := range r.MultipartForm.Value {
			form[k] = vs[0]
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url":"https://res.example/demo/img.jpg","public_id":"headshots/img"}`))
	}))
	defer ts.Close()

	s := New(Config{
		CloudName: "demo",
		APIKey:    "key-1",
		APISecret: "shhh",
		BaseURL:   ts.URL,
	}, zerolog.Nop())

	up, err := s.Upload(context.Background(), strings.NewReader("imgbytes"), mediastore.UploadOptions{
		Folder:   "headshots",
		FaceCrop: true,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.URL != "https://res.example/demo/img.jpg" || up.PublicID != "headshots/img" {
		t.Fatalf("upload=%+v", up)
	}
	if gotPath != "/demo/image/upload" {
		t.Fatalf("path=%q", gotPath)
	}
	if form["api_key"] != "key-1" || form["folder"] != "headshots" {
		t.Fatalf("form=%v", form)
	}
	if !strings.Contains(form["transformation"], "g_face") {
		t.Fatalf("transformation=%q, want face crop", form["transformation"])
	}

	// The signature covers the sorted params minus api_key and signature.
	want := sha1.Sum([]byte(
		"folder=headshots" +
			"&timestamp=" + form["timestamp"] +
			"&transformation=" + form["transformation"] +
			"shhh"))
	if form["signature"] != hex.EncodeToString(want[:]) {
		t.Fatalf("signature=%q", form["signature"])
	}
}

func TestStore_UnsignedUploadUsesPreset(t *testing.T) {
	t.Parallel()

	var form map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		form = map[string]string{}
		for k, vs := range r.MultipartForm.Value {
			form[k] = vs[0]
		}
		w.Write([]byte(`{"secure_url":"https://res.example/demo/i.jpg","public_id":"i"}`))
	}))
	defer ts.Close()

	s := New(Config{CloudName: "demo", UploadPreset: "preset-1", BaseURL: ts.URL}, zerolog.Nop())

	if _, err := s.Upload(context.Background(), strings.NewReader("img"), mediastore.UploadOptions{}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if form["upload_preset"] != "preset-1" {
		t.Fatalf("form=%v", form)
	}
	if _, ok := form["signature"]; ok {
		t.Fatalf("unsigned upload must not carry a signature")
	}

	// Without credentials there is no destroy.
	if err := s.Destroy(context.Background(), "i"); !errors.Is(err, mediastore.ErrUnavailable) {
		t.Fatalf("destroy err=%v, want ErrUnavailable", err)
	}
}

func TestStore_UploadErrorPassThrough(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid transformation"}}`))
	}))
	defer ts.Close()

	s := New(Config{CloudName: "demo", UploadPreset: "p", BaseURL: ts.URL}, zerolog.Nop())

	_, err := s.Upload(context.Background(), strings.NewReader("img"), mediastore.UploadOptions{})
	if err == nil || !strings.Contains(err.Error(), "Invalid transformation") {
		t.Fatalf("err=%v, want service message", err)
	}
}

func TestStore_Destroy(t *testing.T) {
	t.Parallel()

	var form map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = map[string]string{}
		for k, vs := range r.PostForm {
			form[k] = vs[0]
		}
		w.Write([]byte(`{"result":"ok"}`))
	}))
	defer ts.Close()

	s := New(Config{CloudName: "demo", APIKey: "key-1", APISecret: "shhh", BaseURL: ts.URL}, zerolog.Nop())

	if err := s.Destroy(context.Background(), "headshots/img"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if form["public_id"] != "headshots/img" || form["api_key"] != "key-1" {
		t.Fatalf("form=%v", form)
	}

	// "not found" counts as done; anything else is an error.
	ts2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"pending"}`))
	}))
	defer ts2.Close()
	s2 := New(Config{CloudName: "demo", APIKey: "key-1", APISecret: "shhh", BaseURL: ts2.URL}, zerolog.Nop())
	if err := s2.Destroy(context.Background(), "x"); err == nil {
		t.Fatalf("unexpected destroy result accepted")
	}
}
