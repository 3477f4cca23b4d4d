// Package gateway sits between the handlers and the upstream client. It owns
// the per-friend feed fan-out and routes every cacheable lookup through the
// single-flight cache so N identical requests cost one upstream call.
package gateway

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"retroview_services/src/cache"
	"retroview_services/src/flickr"
	m "retroview_services/src/models"
)

type Gateway struct {
	Flickr *flickr.Client
	Cache  *cache.Cache

	// TTLs per resource class. FriendTTL covers a hit on a friend's
	// latest photo, EmptyTTL the negative "no public photo" result,
	// SizesTTL the effectively immutable size ladders, InfoTTL the
	// slowly drifting detail metadata.
	FriendTTL time.Duration
	EmptyTTL  time.Duration
	SizesTTL  time.Duration
	InfoTTL   time.Duration

	// FanOut bounds how many per-friend lookups run at once.
	FanOut int
}

func New(fc *flickr.Client, c *cache.Cache) *Gateway {
	return &Gateway{
		Flickr:    fc,
		Cache:     c,
		FriendTTL: 2 * time.Hour,
		EmptyTTL:  2 * time.Minute,
		SizesTTL:  24 * time.Hour,
		InfoTTL:   5 * time.Minute,
		FanOut:    8,
	}
}

// latestResult is the cacheable outcome of one friend lookup. Found=false
// entries are real values with a short TTL, distinct from errors, which are
// never cached.
type latestResult struct {
	Photo m.Photo `json:"photo"`
	Found bool    `json:"found"`
}

func friendPhotoKey(nsid string) string { return "friend_latest_photo:" + nsid }
func photoSizesKey(id string) string    { return "photo_sizes:" + id }
func photoInfoKey(id string) string     { return "photo_info:" + id }

// FriendLatestPhoto looks up one friend's most recent public photo through
// the cache. Unlike the aggregate path, upstream errors surface typed here.
func (g *Gateway) FriendLatestPhoto(ctx context.Context, nsid string) (m.FeedEntry, bool, error) {
	result, err := cache.GetOrComputeTTL(ctx, g.Cache, friendPhotoKey(nsid),
		func(ctx context.Context) (latestResult, time.Duration, error) {
			photo, found, err := g.Flickr.LatestPublicPhoto(ctx, nsid)
			if err != nil {
				return latestResult{}, 0, err
			}
			if !found {
				return latestResult{}, g.EmptyTTL, nil
			}
			return latestResult{Photo: photo, Found: true}, g.FriendTTL, nil
		})
	if err != nil || !result.Found {
		return m.FeedEntry{}, false, err
	}
	return feedEntry(nsid, result.Photo), true, nil
}

// AggregateFeed fans the friend list out into concurrent latest-photo
// lookups and fans the hits back in, newest upload first. Friends without a
// public photo, or whose lookup fails, are simply absent from the result;
// a partial upstream outage never fails the whole feed.
func (g *Gateway) AggregateFeed(ctx context.Context, nsids []string) []m.FeedEntry {
	type slot struct {
		entry m.FeedEntry
		ok    bool
	}
	slots := make([]slot, len(nsids))

	sem := make(chan struct{}, maxInt(1, g.FanOut))
	var wg sync.WaitGroup
	for i, nsid := range nsids {
		i, nsid := i, nsid
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			entry, found, err := g.FriendLatestPhoto(ctx, nsid)
			if err != nil {
				if !flickr.IsNotFound(err) {
					log.Printf("gateway: latest photo for %s failed: %v", nsid, err)
				}
				return
			}
			if found {
				slots[i] = slot{entry: entry, ok: true}
			}
		}()
	}
	wg.Wait()

	// Collect in input order so the stable sort preserves it for ties.
	feed := make([]m.FeedEntry, 0, len(nsids))
	for _, s := range slots {
		if s.ok {
			feed = append(feed, s.entry)
		}
	}
	sort.SliceStable(feed, func(a, b int) bool {
		return feed[a].Photo.DateUploaded > feed[b].Photo.DateUploaded
	})
	return feed
}

// BatchSizes resolves the size ladder for each requested photo, concurrently
// and through the long-TTL cache. Photos whose ladder cannot be fetched are
// left out of the map; the progressive selector falls back for them.
func (g *Gateway) BatchSizes(ctx context.Context, photoIDs []string) map[string][]m.SizeDescriptor {
	out := make(map[string][]m.SizeDescriptor, len(photoIDs))
	var mu sync.Mutex

	sem := make(chan struct{}, maxInt(1, g.FanOut))
	var wg sync.WaitGroup
	for _, id := range photoIDs {
		id := id
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			sizes, err := g.PhotoSizes(ctx, id)
			if err != nil {
				log.Printf("gateway: sizes for %s failed: %v", id, err)
				return
			}
			mu.Lock()
			out[id] = sizes
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// PhotoSizes returns one photo's size ladder, width-ascending as delivered
// by the upstream.
func (g *Gateway) PhotoSizes(ctx context.Context, photoID string) ([]m.SizeDescriptor, error) {
	return cache.GetOrCompute(ctx, g.Cache, photoSizesKey(photoID), g.SizesTTL,
		func(ctx context.Context) ([]m.SizeDescriptor, error) {
			return g.Flickr.Sizes(ctx, photoID)
		})
}

// PhotoDetails returns the extended metadata behind the lazy detail region.
func (g *Gateway) PhotoDetails(ctx context.Context, photoID string) (m.PhotoDetails, error) {
	return cache.GetOrCompute(ctx, g.Cache, photoInfoKey(photoID), g.InfoTTL,
		func(ctx context.Context) (m.PhotoDetails, error) {
			return g.Flickr.Info(ctx, photoID)
		})
}

// OwnPhotos is the logged-in user's own stream. Not cached: the user expects
// their own uploads to show up immediately.
func (g *Gateway) OwnPhotos(ctx context.Context, nsid string, perPage, privacyFilter int) ([]m.Photo, error) {
	return g.Flickr.OwnPhotos(ctx, nsid, perPage, privacyFilter)
}

// Contacts is the logged-in user's friend list.
func (g *Gateway) Contacts(ctx context.Context) ([]m.Friend, error) {
	return g.Flickr.Contacts(ctx)
}

// LoginUser resolves the identity behind the configured credentials, for
// sessions that carry an NSID but no display name yet.
func (g *Gateway) LoginUser(ctx context.Context) (m.Friend, error) {
	return g.Flickr.LoginUser(ctx)
}

func feedEntry(nsid string, photo m.Photo) m.FeedEntry {
	return m.FeedEntry{
		Photo: photo,
		Friend: m.Friend{
			NSID:     nsid,
			Username: photo.OwnerName,
		},
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
