package types

// RequestDefaults are the fields the web client attaches to every ajax POST.
type RequestDefaults struct {
	User    string `url:"__user"`
	A       string `url:"__a"`
	Req     string `url:"__req"`
	FbDtsg  string `url:"fb_dtsg,omitempty"`
	Jazoest string `url:"jazoest,omitempty"`
}

// MessageEnvelope is the message_batch[0] group shared by every message kind
// except plain text.
type MessageEnvelope struct {
	Client             string `url:"client"`
	ActionType         string `url:"message_batch[0][action_type]"`
	Author             string `url:"message_batch[0][author]"`
	ThreadID           string `url:"message_batch[0][thread_id],omitempty"`
	Source             string `url:"message_batch[0][source]"`
	OfflineThreadingID int64  `url:"message_batch[0][offline_threading_id]"`
	Timestamp          int64  `url:"message_batch[0][timestamp]"`
}

type SharePreviewForm struct {
	ImageHeight int    `url:"image_height"`
	ImageWidth  int    `url:"image_width"`
	URI         string `url:"uri"`
}

type UserSearchForm struct {
	Value     string `url:"value"`
	Viewer    string `url:"viewer"`
	RSP       string `url:"rsp"`
	Context   string `url:"context"`
	Path      string `url:"path"`
	RequestID string `url:"request_id"`
}
