package pixiv

const (
	// AppAPIBaseURL is the App-API origin. Media downloads send it as the
	// Referer.
	AppAPIBaseURL = "https://app-api.pixiv.net"
	UserAgent     = "PixivAndroidApp/5.0.234 (Android 11; Pixel 5)"
)
