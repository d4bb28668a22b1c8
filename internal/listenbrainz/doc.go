// Package listenbrainz is a small client for the ListenBrainz listen history
// API. Only the read endpoints needed to import plays are implemented.
package listenbrainz
