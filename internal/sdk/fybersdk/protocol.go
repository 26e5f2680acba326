package fybersdk

// Unit types the Marketplace ad server returns; each is rendered by exactly
// one kind of unit controller.
const (
	UnitTypeDisplay    = "display"
	UnitTypeFullscreen = "fullscreen"
)

// MediationName tells the Marketplace which mediation platform drives the SDK.
type MediationName string

const MediationAdMob MediationName = "admob"

// RemoteConfig is returned by GET /v1/config.
type RemoteConfig struct {
	AppID   string   `json:"app_id"`
	Enabled bool     `json:"enabled"`
	Spots   []string `json:"spots,omitempty"`
}

type adRequestBody struct {
	RequestID  string   `json:"request_id"`
	AppID      string   `json:"app_id"`
	SpotID     string   `json:"spot_id"`
	Mediation  string   `json:"mediation,omitempty"`
	UnitTypes  []string `json:"unit_types"`
	SDKVersion string   `json:"sdk_version"`
	Keywords   []string `json:"keywords,omitempty"`
	TestMode   bool     `json:"test_mode,omitempty"`
}

type adResponseBody struct {
	Ad *Ad `json:"ad"`
}

// Ad is the creative the Marketplace served for a spot.
type Ad struct {
	ID          string   `json:"id"`
	UnitType    string   `json:"unit_type"`
	Markup      string   `json:"markup"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	Rewarded    bool     `json:"rewarded,omitempty"`
	Reward      *Reward  `json:"reward,omitempty"`
	ClickURL    string   `json:"click_url,omitempty"`
	ExternalApp bool     `json:"external_app,omitempty"`
	Tracking    Tracking `json:"tracking"`
}

type Reward struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

type Tracking struct {
	Impression []string `json:"impression,omitempty"`
	Click      []string `json:"click,omitempty"`
	Complete   []string `json:"complete,omitempty"`
}
