// Package helpers parses common event payloads: profile metadata, thread
// coordinates. Everything here is pure and side-effect free, which is what
// lets models call into it on every update.
package helpers

import (
	"encoding/binary"

	"github.com/dgraph-io/ristretto/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	applesauce "github.com/hzrd149/applesauce-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Profile is the parsed content of a metadata event (kind 0).
type Profile struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	About       string `json:"about,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Website     string `json:"website,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
	LUD16       string `json:"lud16,omitempty"`

	// Event is the metadata event this was parsed from.
	Event applesauce.Event `json:"-"`
}

// BestName returns the display name when set, falling back to the short
// name. Empty when the profile names nothing.
func (p Profile) BestName() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// Content renders the profile fields back into kind-0 event content.
func (p Profile) Content() (string, error) {
	return json.MarshalToString(p)
}

var profileCache = func() *ristretto.Cache[uint64, Profile] {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, Profile]{
		NumCounters: 80_000,
		MaxCost:     8_000,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return cache
}()

// ParseProfile extracts the profile from a metadata event's content. It is
// lenient: malformed JSON or missing fields come back empty rather than as
// errors. Results are memoized by event id since many views tend to parse
// the same metadata event over and over.
func ParseProfile(evt applesauce.Event) Profile {
	key := binary.BigEndian.Uint64(evt.ID[32-8:])
	if cached, ok := profileCache.Get(key); ok && cached.Event.ID == evt.ID {
		return cached
	}

	profile := Profile{Event: evt}
	content := gjson.Parse(evt.Content)
	profile.Name = content.Get("name").String()
	profile.DisplayName = content.Get("display_name").String()
	if profile.DisplayName == "" {
		profile.DisplayName = content.Get("displayName").String()
	}
	profile.About = content.Get("about").String()
	profile.Picture = content.Get("picture").String()
	profile.Banner = content.Get("banner").String()
	profile.Website = content.Get("website").String()
	profile.NIP05 = content.Get("nip05").String()
	profile.LUD16 = content.Get("lud16").String()

	profileCache.Set(key, profile, 1)
	return profile
}
