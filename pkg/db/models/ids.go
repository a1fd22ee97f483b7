package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier when the caller did not supply one.
// Postgres also defaults ids via gen_random_uuid(); SQLite relies on this.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
