// Package routes holds the per-feature transport preferences: whether a
// feature is served by the vendor cloud or a user-configured local relay,
// and which endpoint/model the relay should use.
package routes

// Feature identifies one of the studio's generation surfaces.
type Feature string

const (
	FeatureChat   Feature = "chat"
	FeatureVision Feature = "vision"
	FeatureStudio Feature = "studio"
	FeatureTTS    Feature = "tts"
)

// Features returns all known features in a stable order.
func Features() []Feature {
	return []Feature{FeatureChat, FeatureVision, FeatureStudio, FeatureTTS}
}

// Valid reports whether f names a known feature.
func (f Feature) Valid() bool {
	switch f {
	case FeatureChat, FeatureVision, FeatureStudio, FeatureTTS:
		return true
	}
	return false
}

// Route is one feature's transport preference. When Enabled is false the
// cloud path is used unconditionally and Endpoint/ModelName are kept only
// as defaults for the settings surface.
type Route struct {
	Enabled   bool   `json:"enabled"`
	Endpoint  string `json:"endpoint"`
	ModelName string `json:"modelName"`
}

// Record is the full per-feature route table, serialized as a single JSON
// blob in the preference store.
type Record struct {
	Chat   Route `json:"chat"`
	Vision Route `json:"vision"`
	Studio Route `json:"studio"`
	TTS    Route `json:"tts"`
}

// Get returns the route for the given feature. Unknown features get a zero
// route, which always resolves to the cloud path.
func (r Record) Get(f Feature) Route {
	switch f {
	case FeatureChat:
		return r.Chat
	case FeatureVision:
		return r.Vision
	case FeatureStudio:
		return r.Studio
	case FeatureTTS:
		return r.TTS
	}
	return Route{}
}

// Set replaces the route for the given feature. Unknown features are ignored.
func (r *Record) Set(f Feature, rt Route) {
	switch f {
	case FeatureChat:
		r.Chat = rt
	case FeatureVision:
		r.Vision = rt
	case FeatureStudio:
		r.Studio = rt
	case FeatureTTS:
		r.TTS = rt
	}
}

// Defaults returns the hard-coded route table used when nothing is stored
// or the stored record is unreadable.
func Defaults() Record {
	return Record{
		Chat:   Route{Enabled: false, Endpoint: "http://localhost:11434/api/generate", ModelName: "llama3"},
		Vision: Route{Enabled: false, Endpoint: "http://localhost:11434/api/generate", ModelName: "llava"},
		Studio: Route{Enabled: false, Endpoint: "http://localhost:5000/v1/generation", ModelName: "sdxl"},
		TTS:    Route{Enabled: false, Endpoint: "http://localhost:8000/tts", ModelName: "bark"},
	}
}

// Store is the persistence port for the route table. Load never fails:
// missing or corrupt data yields Defaults.
type Store interface {
	Load() Record
	Save(Record) error
	Clear() error
}
