// Package models defines domain entities and persistence interfaces for the shelf library organizer.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [Playlist] : Basic playlist metadata from the music service
//   - [SavedTrack] : A saved-library entry with track, artists and added-at timestamp
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [ArtistGenres] : Cached per-artist genre tag sets used to avoid repeated lookups
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
