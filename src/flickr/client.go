// Package flickr is a thin typed wrapper over the upstream photo API. Each
// method issues exactly one REST call and classifies failures; retry policy
// belongs to the caller.
package flickr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	m "retroview_services/src/models"
)

const DefaultBaseURL = "https://api.flickr.com/services/rest"

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{},
	}
}

// photoExtras are the extra fields requested on every photo listing call.
const photoExtras = "url_q,url_m,description,date_upload,date_taken,owner_name,ispublic,isfriend,isfamily"

// LoginUser looks up the identity behind the current credentials.
func (c *Client) LoginUser(ctx context.Context) (m.Friend, error) {
	var out struct {
		User struct {
			ID       string  `json:"id"`
			Username content `json:"username"`
		} `json:"user"`
	}
	err := c.call(ctx, "flickr.test.login", nil, &out)
	if err != nil {
		return m.Friend{}, err
	}
	return m.Friend{NSID: out.User.ID, Username: out.User.Username.Text}, nil
}

// Contacts returns the caller's contact list.
func (c *Client) Contacts(ctx context.Context) ([]m.Friend, error) {
	var out struct {
		Contacts struct {
			Contact []struct {
				NSID     string `json:"nsid"`
				Username string `json:"username"`
				Realname string `json:"realname"`
			} `json:"contact"`
		} `json:"contacts"`
	}
	if err := c.call(ctx, "flickr.contacts.getList", nil, &out); err != nil {
		return nil, err
	}
	friends := make([]m.Friend, 0, len(out.Contacts.Contact))
	for _, ct := range out.Contacts.Contact {
		friends = append(friends, m.Friend{NSID: ct.NSID, Username: ct.Username, Realname: ct.Realname})
	}
	return friends, nil
}

// LatestPublicPhoto fetches a user's most recent upload. found is false when
// the user has no public photo, which is a normal outcome, not an error.
func (c *Client) LatestPublicPhoto(ctx context.Context, nsid string) (photo m.Photo, found bool, err error) {
	params := map[string]string{
		"user_id":  nsid,
		"per_page": "1",
		"extras":   photoExtras,
	}
	var out photoListEnvelope
	if err := c.call(ctx, "flickr.people.getPhotos", params, &out); err != nil {
		return m.Photo{}, false, err
	}
	if len(out.Photos.Photo) == 0 || int(out.Photos.Photo[0].IsPublic) != 1 {
		return m.Photo{}, false, nil
	}
	return out.Photos.Photo[0].toModel(), true, nil
}

// OwnPhotos searches the given user's own stream. privacyFilter follows the
// upstream convention (1=public .. 5=private); 0 means unfiltered.
func (c *Client) OwnPhotos(ctx context.Context, nsid string, perPage, privacyFilter int) ([]m.Photo, error) {
	params := map[string]string{
		"user_id":  nsid,
		"per_page": strconv.Itoa(perPage),
		"extras":   photoExtras,
	}
	if privacyFilter != 0 {
		params["privacy_filter"] = strconv.Itoa(privacyFilter)
	}
	var out photoListEnvelope
	if err := c.call(ctx, "flickr.photos.search", params, &out); err != nil {
		return nil, err
	}
	photos := make([]m.Photo, 0, len(out.Photos.Photo))
	for _, p := range out.Photos.Photo {
		photos = append(photos, p.toModel())
	}
	return photos, nil
}

// Sizes lists the available resolutions for a photo, in upstream order
// (ascending by width).
func (c *Client) Sizes(ctx context.Context, photoID string) ([]m.SizeDescriptor, error) {
	var out struct {
		Sizes struct {
			Size []struct {
				Label  string `json:"label"`
				Width  intish `json:"width"`
				Height intish `json:"height"`
				Source string `json:"source"`
			} `json:"size"`
		} `json:"sizes"`
	}
	if err := c.call(ctx, "flickr.photos.getSizes", map[string]string{"photo_id": photoID}, &out); err != nil {
		return nil, err
	}
	sizes := make([]m.SizeDescriptor, 0, len(out.Sizes.Size))
	for _, s := range out.Sizes.Size {
		sizes = append(sizes, m.SizeDescriptor{
			Label:  s.Label,
			Width:  int(s.Width),
			Height: int(s.Height),
			Source: s.Source,
		})
	}
	return sizes, nil
}

// Info fetches the extended metadata (tags, views, comment count) shown in
// the lazily loaded detail region.
func (c *Client) Info(ctx context.Context, photoID string) (m.PhotoDetails, error) {
	var out struct {
		Photo struct {
			Views    *intish `json:"views"`
			Comments struct {
				Count intish `json:"_content"`
			} `json:"comments"`
			Tags struct {
				Tag []content `json:"tag"`
			} `json:"tags"`
			Description content `json:"description"`
		} `json:"photo"`
	}
	if err := c.call(ctx, "flickr.photos.getInfo", map[string]string{"photo_id": photoID}, &out); err != nil {
		return m.PhotoDetails{}, err
	}
	details := m.PhotoDetails{
		Description:  out.Photo.Description.Text,
		CommentCount: int(out.Photo.Comments.Count),
	}
	for _, t := range out.Photo.Tags.Tag {
		details.Tags = append(details.Tags, t.Text)
	}
	if out.Photo.Views != nil {
		details.Views = int(*out.Photo.Views)
		details.HasViews = true
	}
	return details, nil
}

// call performs one upstream request and decodes the JSON envelope into out.
func (c *Client) call(ctx context.Context, method string, params map[string]string, out any) error {
	q := url.Values{}
	q.Set("method", method)
	q.Set("api_key", c.APIKey)
	q.Set("format", "json")
	q.Set("nojsoncallback", "1")
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return &Error{Kind: KindMalformed, Message: err.Error()}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Message: "upstream rate limit (HTTP 429)"}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindTransient, Message: "upstream HTTP " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return &Error{Kind: KindMalformed, Message: "unexpected HTTP " + resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransient, Message: err.Error()}
	}

	var env struct {
		Stat    string `json:"stat"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return &Error{Kind: KindMalformed, Message: "undecodable response: " + err.Error()}
	}
	if env.Stat == "fail" {
		return classifyFail(env.Code, env.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindMalformed, Code: env.Code, Message: "unexpected payload shape: " + err.Error()}
	}
	return nil
}

// classifyFail maps the upstream's numeric failure codes onto error kinds.
// Codes 1 and 2 are the per-method "user/photo not found" pair; 105/106 are
// the upstream's "service unavailable / not responding" codes. Rate limiting
// has no stable code, only message text.
func classifyFail(code int, message string) *Error {
	switch code {
	case 1, 2:
		return &Error{Kind: KindNotFound, Code: code, Message: message}
	case 105, 106:
		return &Error{Kind: KindTransient, Code: code, Message: message}
	}
	if strings.Contains(strings.ToLower(message), "rate limit") {
		return &Error{Kind: KindRateLimited, Code: code, Message: message}
	}
	return &Error{Kind: KindMalformed, Code: code, Message: message}
}

// content unwraps the upstream's {"_content": "..."} wrapper objects.
type content struct {
	Text string `json:"_content"`
}

// intish accepts numbers that the upstream sometimes serializes as strings.
type intish int

func (v *intish) UnmarshalJSON(b []byte) error {
	n, ok := parseLooseInt(json.RawMessage(b))
	if !ok {
		*v = 0
		return nil
	}
	*v = intish(n)
	return nil
}

func parseLooseInt(raw json.RawMessage) (int, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// photoListEnvelope is shared by every listing call that returns
// photos.photo arrays.
type photoListEnvelope struct {
	Photos struct {
		Photo []photoItem `json:"photo"`
	} `json:"photos"`
}

type photoItem struct {
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	OwnerName  string `json:"ownername"`
	Title      string `json:"title"`
	DateUpload intish `json:"dateupload"`
	DateTaken  string `json:"datetaken"`
	IsPublic   intish `json:"ispublic"`
}

func (p photoItem) toModel() m.Photo {
	return m.Photo{
		ID:           p.ID,
		OwnerID:      p.Owner,
		OwnerName:    p.OwnerName,
		Title:        p.Title,
		DateUploaded: int64(p.DateUpload),
		DateTaken:    p.DateTaken,
	}
}
