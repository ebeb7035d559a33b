package models

import "slices"

// Merge reconciles a server supplied record with the local catalog entry for the same id.
//
//	field                          winner
//	id                             local
//	genre, subgenre                local when non-empty, else server
//	name, track_id                 server when non-empty, else local
//	artists                        server when non-empty, else local
//	preview_url, track_url, image  server
//
// When known is false the server record is returned unchanged.
func Merge(local Song, known bool, server SongMetadata) SongMetadata {
	if !known {
		server.Artists = slices.Clone(server.Artists)
		return server
	}

	merged := FromSong(local)
	merged.PreviewURL = server.PreviewURL
	merged.TrackURL = server.TrackURL
	merged.ImageURL = server.ImageURL

	if server.Name != "" {
		merged.Name = server.Name
	}
	if server.TrackID != "" {
		merged.TrackID = server.TrackID
	}
	if len(server.Artists) > 0 {
		merged.Artists = slices.Clone(server.Artists)
	}
	if merged.Genre == "" {
		merged.Genre = server.Genre
	}
	if merged.Subgenre == "" {
		merged.Subgenre = server.Subgenre
	}

	return merged
}

// Lookup resolves a song id against the local catalog.
type Lookup func(id int) (Song, bool)

// MergeAll applies [Merge] to every server record, keeping server order.
func MergeAll(lookup Lookup, server []SongMetadata) []SongMetadata {
	out := make([]SongMetadata, len(server))
	for i, s := range server {
		var (
			local Song
			known bool
		)
		if lookup != nil {
			local, known = lookup(s.ID)
		}
		out[i] = Merge(local, known, s)
	}
	return out
}
