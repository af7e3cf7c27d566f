package models

import (
	applesauce "github.com/hzrd149/applesauce-go"
	"github.com/hzrd149/applesauce-go/helpers"
)

// Profile tracks a pubkey's metadata (kind 0) as a parsed profile: nil
// while no metadata event is stored, updated whenever a newer version
// replaces the current one.
func Profile(pk applesauce.PubKey) Definition[*helpers.Profile] {
	source := Replaceable(applesauce.KindProfileMetadata, pk, "")
	return Map(source, "profile", func(evt *applesauce.Event) *helpers.Profile {
		if evt == nil {
			return nil
		}
		profile := helpers.ParseProfile(*evt)
		return &profile
	})
}
