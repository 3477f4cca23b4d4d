package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"retroview_services/src/detail"
	"retroview_services/src/gateway"
	m "retroview_services/src/models"
	"retroview_services/src/progressive"

	"github.com/gorilla/mux"
)

// PhotoLadder is one photo's sizes response: the selected rungs for the
// staged reveal plus the full upstream ladder.
type PhotoLadder struct {
	Rungs []m.SizeDescriptor `json:"rungs"`
	Sizes []m.SizeDescriptor `json:"sizes"`
}

func PhotoSizesEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			POSTPhotoSizes(ctx, w, r, gw)
		}
	})
}

// POSTPhotoSizes resolves the batched size ladders for the visible photos.
// Photos whose ladder could not be fetched are absent from the map.
func POSTPhotoSizes(ctx context.Context, w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
	var photoIDs []string
	if err := json.NewDecoder(r.Body).Decode(&photoIDs); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		WriteErrorToWriter(w, "Request body must be a JSON array of photo IDs")
		return
	}

	ladders := gw.BatchSizes(ctx, photoIDs)
	out := make(map[string]PhotoLadder, len(ladders))
	for id, sizes := range ladders {
		out[id] = PhotoLadder{
			Rungs: progressive.SelectRungs(sizes),
			Sizes: sizes,
		}
	}

	WriteJSONToWriter(w, out)
}

func PhotoDetailsEndpointHandler(ctx context.Context, gw *gateway.Gateway) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			GETPhotoDetails(ctx, w, r, gw)
		}
	})
}

// GETPhotoDetails serves the detail region payload: tags, views and comment
// count, already rendered with their empty-value fallbacks.
func GETPhotoDetails(ctx context.Context, w http.ResponseWriter, r *http.Request, gw *gateway.Gateway) {
	photoID := mux.Vars(r)["photo_id"]

	details, err := gw.PhotoDetails(ctx, photoID)
	if err != nil {
		log.Printf("details for %s failed: %v", photoID, err)
		w.WriteHeader(upstreamStatus(err))
		WriteErrorToWriter(w, "Failed to fetch details.")
		return
	}

	WriteJSONToWriter(w, detail.Render(details))
}
