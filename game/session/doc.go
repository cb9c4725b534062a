// Package session provides in-memory session management for the pairs game.
//
// Each session owns one engine.GameEngine together with the preset that
// produced its board. Sessions are keyed case-insensitively; when no id is
// supplied the manager generates a random 4-character hex id that is not in
// use.
//
// The manager is safe for concurrent use. It guards only the session table;
// mutations of a session's engine are serialised by the service layer.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", preset)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// Sessions are not persisted. Idle ones are pruned with
// CleanupExpiredSessions, which the server runs on an hourly ticker.
package session
