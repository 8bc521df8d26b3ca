// Package services implements clients for the remote music service.
//
// The [Service] interface is the capability set the organizer core consumes:
// saved-track and playlist reads plus the three mutations it plans (remove a
// saved track, create a playlist, add tracks to a playlist). [SpotifyService]
// is the production implementation; tests substitute mocks.
//
// Pagination is handled inside the client, so callers always see flat
// sequences. Transient failures are the caller's concern; [Retry] wraps a call
// with a bounded retry loop.
package services
