package dusdk

const (
	formatInterstitial = "interstitial"
	formatRewarded     = "rewarded_video"
)

type adsRequest struct {
	RequestID   string `json:"request_id"`
	AppID       string `json:"app_id"`
	PlacementID int    `json:"placement_id"`
	Format      string `json:"format"`
	SDKVersion  string `json:"sdk_version"`
}

// adsResponse is the POST /v1/ads answer. Code 0 means an ad is attached.
type adsResponse struct {
	Code    int       `json:"code"`
	Message string    `json:"message,omitempty"`
	Ad      *Creative `json:"ad,omitempty"`
}

// Creative is the ad content served for a placement.
type Creative struct {
	ID            string   `json:"id"`
	Markup        string   `json:"markup"`
	RewardType    string   `json:"reward_type,omitempty"`
	RewardAmount  int      `json:"reward_amount,omitempty"`
	ImpressionURL []string `json:"impression_urls,omitempty"`
	ClickURL      []string `json:"click_urls,omitempty"`
}
