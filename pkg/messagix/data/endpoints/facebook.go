package endpoints

const (
	facebookFreeHost   = "free.facebook.com"
	facebookHost       = "www.facebook.com"
	facebookMBasicHost = "mbasic.facebook.com"
	facebookTorHost    = "www.facebookwkhpilnemxj7asaniu7vnjjbiltxjqhye3mhbshg7kx5tfyd.onion"
)

var FacebookFreeEndpoints = MakeFacebookEndpoints("https://" + facebookFreeHost)
var FacebookEndpoints = MakeFacebookEndpoints("https://" + facebookHost)
var FacebookMBasicEndpoints = MakeFacebookEndpoints("https://" + facebookMBasicHost)
var FacebookTorEndpoints = MakeFacebookEndpoints("https://" + facebookTorHost)

// MakeFacebookEndpoints builds the endpoint table for a base URL. It is
// exported so that tests and proxies can point the client at another origin.
func MakeFacebookEndpoints(baseURL string) map[string]string {
	return map[string]string{
		"base_url":      baseURL,
		"messages":      baseURL + "/messages/",
		"send":          baseURL + "/messaging/send/",
		"media_upload":  baseURL + "/ajax/mercury/upload.php",
		"share_preview": baseURL + "/message_share_attachment/fromURI/",
		"user_search":   baseURL + "/ajax/typeahead/search.php",
	}
}
