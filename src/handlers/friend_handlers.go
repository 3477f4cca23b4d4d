package handlers

import (
	"context"
	"log"
	"net/http"

	"retroview_services/src/gateway"
	"retroview_services/src/session"
)

func FriendEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := session.FromContext(r.Context())
		if !ok || !sess.LoggedIn() {
			w.WriteHeader(http.StatusUnauthorized)
			WriteErrorToWriter(w, "Not authenticated")
			return
		}

		switch r.Method {
		case http.MethodGet:
			GETFriendsList(ctx, w, gw)
		}
	})
}

// GETFriendsList returns the logged-in user's contact list, the input to the
// aggregated feed.
func GETFriendsList(ctx context.Context, w http.ResponseWriter, gw *gateway.Gateway) {
	friends, err := gw.Contacts(ctx)
	if err != nil {
		log.Printf("contacts lookup failed: %v", err)
		w.WriteHeader(upstreamStatus(err))
		WriteErrorToWriter(w, err.Error())
		return
	}

	WriteJSONToWriter(w, friends)
}
