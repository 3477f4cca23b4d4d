package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"retroview_services/src/cache"
	"retroview_services/src/flickr"
	"retroview_services/src/gateway"
	h "retroview_services/src/handlers"
	"retroview_services/src/inits"
	"retroview_services/src/session"

	"github.com/gorilla/mux"
)

// localTierSize bounds the in-process hot cache in front of Redis.
const localTierSize = 512

func main() {
	ctx := context.Background()
	cfg := inits.LoadConfig()

	// Redis Initialization: cache store and session store share one client
	rdb, err := inits.CreateRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to configure redis: %v", err)
	}
	defer rdb.Close()

	// Upstream client and the single-flight cache in front of it
	flickrClient := flickr.New(cfg.FlickrAPIKey)
	photoCache := cache.NewWithLocalTier(cache.NewRedisStore(rdb), localTierSize, cfg.SizesCacheTTL)

	gw := gateway.New(flickrClient, photoCache)
	gw.FriendTTL = cfg.FriendsCacheTTL
	gw.SizesTTL = cfg.SizesCacheTTL
	gw.InfoTTL = cfg.InfoCacheTTL

	sessions := session.NewRedisStore(rdb, cfg.SessionTTL)

	//Route Register
	router := mux.NewRouter()
	router.Use(session.Middleware(sessions))
	router.HandleFunc("/", h.GETHandlerRoot)
	router.Handle("/me", h.MeEndpointHandler(ctx, gw))
	router.Handle("/photos", h.OwnPhotosEndpointHandler(ctx, gw))
	router.Handle("/friends", h.FriendEndpointHandler(ctx, gw))
	router.Handle("/friend_latest_photos", h.FeedEndpointHandler(ctx, gw))
	router.Handle("/friend_latest_photo/{nsid}", h.FriendLatestPhotoEndpointHandler(ctx, gw))
	router.Handle("/photo_sizes", h.PhotoSizesEndpointHandler(ctx, gw))
	router.Handle("/photo_details/{photo_id}", h.PhotoDetailsEndpointHandler(ctx, gw))
	router.Handle("/ws", h.WebSocketEndpointHandler(ctx, gw))

	//Start Server
	serverString := fmt.Sprintf("%v:%v", cfg.Host, cfg.Port)
	fmt.Printf("Server is starting on %v...\n", serverString)
	if err := http.ListenAndServe(serverString, router); err != nil {
		fmt.Printf("Error starting the server: %v\n", err)
	}
}
