package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"retroview_services/src/flickr"
	"retroview_services/src/format"
	"retroview_services/src/gateway"
	m "retroview_services/src/models"
	"retroview_services/src/session"

	"github.com/gorilla/mux"
)

func FeedEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || !sess.LoggedIn() {
			w.WriteHeader(http.StatusUnauthorized)
			WriteErrorToWriter(w, "Not authenticated")
			return
		}

		switch r.Method {
		case http.MethodPost:
			POSTFriendLatestPhotos(ctx, w, r, gw)
		}
	})
}

// POSTFriendLatestPhotos fans the posted friend list out into latest-photo
// lookups and returns the aggregated feed, newest upload first.
func POSTFriendLatestPhotos(ctx context.Context, w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
	var nsids []string
	if err := json.NewDecoder(r.Body).Decode(&nsids); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		WriteErrorToWriter(w, "Request body must be a JSON array of friend NSIDs")
		return
	}

	feed := gw.AggregateFeed(ctx, nsids)
	now := time.Now()
	for i := range feed {
		renderPhotoDates(&feed[i].Photo, now)
	}

	WriteJSONToWriter(w, feed)
}

func FriendLatestPhotoEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || !sess.LoggedIn() {
			w.WriteHeader(http.StatusUnauthorized)
			WriteErrorToWriter(w, "Not authenticated")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETFriendLatestPhoto(ctx, w, r, gw)
		}
	})
}

// GETFriendLatestPhoto is the single-friend endpoint kept for legacy
// frontend calls; new clients batch through POSTFriendLatestPhotos.
func GETFriendLatestPhoto(ctx context.Context, w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
	nsid := mux.Vars(r)["nsid"]

	entry, found, err := gw.FriendLatestPhoto(ctx, nsid)
	if err != nil {
		log.Printf("latest photo for %s failed: %v", nsid, err)
		w.WriteHeader(upstreamStatus(err))
		WriteErrorToWriter(w, err.Error())
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		WriteErrorToWriter(w, "No photo found")
		return
	}

	renderPhotoDates(&entry.Photo, time.Now())
	WriteJSONToWriter(w, entry)
}

// renderPhotoDates fills the pre-rendered friendly date strings so every
// consumer shows identical text.
func renderPhotoDates(p *m.Photo, now time.Time) {
	p.DateUploadedText = format.FriendlyUnix(p.DateUploaded, now)
	p.DateTakenText = format.FriendlyDate(p.DateTaken, now)
}

// upstreamStatus maps classified upstream errors onto response codes.
func upstreamStatus(err error) int {
	switch flickr.Kind(err) {
	case flickr.KindNotFound:
		return http.StatusNotFound
	case flickr.KindRateLimited:
		return http.StatusTooManyRequests
	case flickr.KindTransient:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
