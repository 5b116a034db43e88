package types

import (
	"encoding/json"
)

// UploadResult is the metadata the upload endpoint returns for one
// attachment. Type is the suffix used in the attachment form fields, e.g.
// "image_id" produces Type "image" and the field fbid_image.
type UploadResult struct {
	ID                int64  `json:"id"`
	Filename          string `json:"filename"`
	Filetype          string `json:"filetype"`
	Filesize          int64  `json:"filesize,omitempty"`
	CreationTimestamp int64  `json:"creation_timestamp,omitempty"`
	Type              string `json:"type"`
	Src               string `json:"src,omitempty"`
}

// ShareData is the resolved preview of a shared URL.
type ShareData struct {
	ShareType    string   `json:"share_type"`
	CanonicalURL string   `json:"canonical_url"`
	Description  string   `json:"description"`
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Images       []string `json:"images,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// SendResponse is the decoded payload of a successful send.
type SendResponse struct {
	MessageID          string `json:"message_id,omitempty"`
	ThreadID           string `json:"thread_fbid,omitempty"`
	Timestamp          int64  `json:"timestamp,omitempty"`
	OfflineThreadingID int64  `json:"offline_threading_id,string"`

	Raw json.RawMessage `json:"-"`
}

type Mention struct {
	Tag       string `json:"tag"`
	ID        string `json:"id"`
	FromIndex int    `json:"fromIndex,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   bool    `json:"current,omitempty"`
}

// UserEntry is one result of the typeahead user search.
type UserEntry struct {
	UID  string `json:"uid"`
	Name string `json:"text"`
	Type string `json:"type"`
	Path string `json:"path,omitempty"`
}
