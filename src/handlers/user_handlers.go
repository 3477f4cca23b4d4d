package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"retroview_services/src/gateway"
	"retroview_services/src/session"
)

// privacyFilters maps the query value onto the upstream privacy_filter code.
var privacyFilters = map[string]int{
	"public":        1,
	"friends":       2,
	"family":        3,
	"friendsfamily": 4,
	"private":       5,
}

const ownStreamPageSize = 20

func OwnPhotosEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || !sess.LoggedIn() {
			w.WriteHeader(http.StatusUnauthorized)
			WriteErrorToWriter(w, "Not authenticated")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETOwnPhotos(ctx, w, r, gw, sess.UserNSID)
		}
	})
}

// GETOwnPhotos serves the logged-in user's own stream, optionally narrowed
// to one privacy level.
func GETOwnPhotos(ctx context.Context, w http.ResponseWriter, r *http.Request, gw *gateway.Gateway, nsid string) {
	privacy := r.URL.Query().Get("privacy")
	filter, ok := privacyFilters[privacy]
	if privacy != "" && !ok {
		w.WriteHeader(http.StatusBadRequest)
		WriteErrorToWriter(w, fmt.Sprintf("Unknown privacy level %q", privacy))
		return
	}

	photos, err := gw.OwnPhotos(ctx, nsid, ownStreamPageSize, filter)
	if err != nil {
		log.Printf("own photos for %s failed: %v", nsid, err)
		w.WriteHeader(upstreamStatus(err))
		WriteErrorToWriter(w, err.Error())
		return
	}

	now := time.Now()
	for i := range photos {
		renderPhotoDates(&photos[i], now)
	}
	WriteJSONToWriter(w, photos)
}

func MeEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || !sess.LoggedIn() {
			w.WriteHeader(http.StatusUnauthorized)
			WriteErrorToWriter(w, "Not authenticated")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETMe(ctx, w, gw, sess)
		}
	})
}

// GETMe returns the logged-in identity. The display name comes from the
// session when present and is resolved upstream otherwise.
func GETMe(ctx context.Context, w http.ResponseWriter, gw *gateway.Gateway, sess session.Session) {
	if sess.Username != "" {
		WriteJSONToWriter(w, map[string]string{"nsid": sess.UserNSID, "username": sess.Username})
		return
	}

	user, err := gw.LoginUser(ctx)
	if err != nil {
		log.Printf("login user lookup failed: %v", err)
		w.WriteHeader(upstreamStatus(err))
		WriteErrorToWriter(w, err.Error())
		return
	}
	WriteJSONToWriter(w, map[string]string{"nsid": user.NSID, "username": user.Username})
}

func GETHandlerRoot(w http.ResponseWriter, r *http.Request) {
	var welcomeString string = fmt.Sprintln("Welcome to Retroview Services.\nRequest one of the following routes to query data:\n /me\n /photos\n /friends\n /friend_latest_photos\n /photo_sizes\n /photo_details/{photo_id}\n /ws")
	responseBytes := []byte(welcomeString)

	w.Header().Set("Content-Type", "text/plain")
	w.Write(responseBytes)
}
