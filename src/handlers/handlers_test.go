package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"retroview_services/src/cache"
	"retroview_services/src/flickr"
	"retroview_services/src/gateway"
	m "retroview_services/src/models"
	"retroview_services/src/session"

	"github.com/gorilla/mux"
)

func newTestGateway(t *testing.T, upstream http.HandlerFunc) (*gateway.Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	client := flickr.New("test-key")
	client.BaseURL = srv.URL
	return gateway.New(client, cache.New(cache.NewMemoryStore())), srv
}

func loggedInRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	sess := session.Session{ID: "s1", UserNSID: "12345@N00", Username: "ana"}
	return req.WithContext(session.WithContext(req.Context(), sess))
}

func TestFeedEndpoint_RequiresLogin(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream hit by unauthenticated request")
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/friend_latest_photos", strings.NewReader(`["a"]`))
	req = req.WithContext(session.WithContext(req.Context(), session.Session{ID: "anon"}))

	FeedEndpointHandler(context.Background(), gw).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestFeedEndpoint_RendersFriendlyDates(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"photos":{"photo":[{"id":"7","owner":"a","ownername":"ana","title":"t",
			"dateupload":"1712345678","datetaken":"2024-04-05 18:21:00","ispublic":1}]},"stat":"ok"}`)
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	FeedEndpointHandler(context.Background(), gw).ServeHTTP(rec, loggedInRequest(http.MethodPost, "/friend_latest_photos", `["a"]`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var feed []m.FeedEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
		t.Fatal(err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed length = %d", len(feed))
	}
	if feed[0].Photo.DateUploadedText == "" || feed[0].Photo.DateTakenText == "" {
		t.Fatalf("display dates not rendered: %+v", feed[0].Photo)
	}
	if feed[0].Friend.NSID != "a" || feed[0].Friend.Username != "ana" {
		t.Fatalf("friend = %+v", feed[0].Friend)
	}
}

func TestFeedEndpoint_RejectsBadBody(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream hit for a bad request body")
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	FeedEndpointHandler(context.Background(), gw).ServeHTTP(rec, loggedInRequest(http.MethodPost, "/friend_latest_photos", `{"not":"a list"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPhotoDetailsEndpoint_RendersFallbacks(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"photo":{"comments":{"_content":"0"},"tags":{"tag":[]}},"stat":"ok"}`)
	})
	defer srv.Close()

	router := mux.NewRouter()
	router.Handle("/photo_details/{photo_id}", PhotoDetailsEndpointHandler(context.Background(), gw))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photo_details/7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var view struct {
		Tags     string `json:"tags"`
		Views    string `json:"views"`
		Comments string `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Tags != "None" || view.Views != "N/A" || view.Comments != "0" {
		t.Fatalf("view = %+v", view)
	}
}

func TestPhotoDetailsEndpoint_UpstreamErrorStatus(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"stat":"fail","code":1,"message":"Photo not found"}`)
	})
	defer srv.Close()

	router := mux.NewRouter()
	router.Handle("/photo_details/{photo_id}", PhotoDetailsEndpointHandler(context.Background(), gw))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/photo_details/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPhotoSizesEndpoint_ReturnsRungsAndLadder(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sizes":{"size":[
			{"label":"Square","width":75,"height":75,"source":"https://x/sq.jpg"},
			{"label":"Small","width":240,"height":180,"source":"https://x/s.jpg"},
			{"label":"Large","width":1024,"height":768,"source":"https://x/l.jpg"}]},"stat":"ok"}`)
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/photo_sizes", strings.NewReader(`["7"]`))
	PhotoSizesEndpointHandler(context.Background(), gw).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var out map[string]PhotoLadder
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	ladder, ok := out["7"]
	if !ok {
		t.Fatalf("no ladder for photo 7: %s", rec.Body)
	}
	if len(ladder.Sizes) != 3 {
		t.Fatalf("sizes = %d, want 3", len(ladder.Sizes))
	}
	// The square crop fails the aspect filter; two rungs remain.
	if len(ladder.Rungs) != 2 || ladder.Rungs[0].Label != "Small" || ladder.Rungs[1].Label != "Large" {
		t.Fatalf("rungs = %+v", ladder.Rungs)
	}
}

func TestMeEndpoint_PrefersSessionOverUpstream(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream hit although the session already has a username")
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	MeEndpointHandler(context.Background(), gw).ServeHTTP(rec, loggedInRequest(http.MethodGet, "/me", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var me map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me["nsid"] != "12345@N00" || me["username"] != "ana" {
		t.Fatalf("me = %v", me)
	}
}

func TestOwnPhotosEndpoint_RejectsUnknownPrivacy(t *testing.T) {
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream hit for an invalid privacy level")
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	OwnPhotosEndpointHandler(context.Background(), gw).ServeHTTP(rec, loggedInRequest(http.MethodGet, "/photos?privacy=secret", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOwnPhotosEndpoint_PassesPrivacyFilter(t *testing.T) {
	var gotFilter, gotUser string
	gw, srv := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("privacy_filter")
		gotUser = r.URL.Query().Get("user_id")
		fmt.Fprint(w, `{"photos":{"photo":[]},"stat":"ok"}`)
	})
	defer srv.Close()

	rec := httptest.NewRecorder()
	OwnPhotosEndpointHandler(context.Background(), gw).ServeHTTP(rec, loggedInRequest(http.MethodGet, "/photos?privacy=friends", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if gotFilter != "2" {
		t.Fatalf("privacy_filter = %q, want 2", gotFilter)
	}
	if gotUser != "12345@N00" {
		t.Fatalf("user_id = %q", gotUser)
	}
}
