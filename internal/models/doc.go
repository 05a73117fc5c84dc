// Package models defines the track and playlist types shared by the iTunes reader, the Spotify client and the matching workflow.
//
// Two track shapes exist:
//   - [LocalTrack] : a row from an iTunes playlist export
//   - [RemoteTrack] : a Spotify catalog entry returned by search
//
// Both satisfy [DisplayTrack], the structural view used by the table renderer.
//
// Playlist metadata comes from Spotify as [RemotePlaylist] (a created playlist)
// or [PlaylistSummary] (a row of the user's playlist listing).
package models
