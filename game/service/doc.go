// Package service provides the business logic layer for the pairs game.
//
// The service package implements:
//   - Multi-session game management
//   - New-game requests from presets or explicit card counts
//   - Reveal handling and mismatch scheduling
//   - Celebration and state-change notification
//   - Paginated reveal history
//
// Core Interfaces:
//
// GameService is the main service interface used by every transport.
// SessionManager stores sessions and ConfigManager resolves presets.
// Scheduler delays the mismatch flip-back and Notifier receives state
// changes and celebrations.
//
// Concurrency:
//
// All engine access goes through a single service mutex. A mismatch schedules
// a one-shot callback that re-acquires the mutex and clears the pair with the
// generation token it was issued; if a new game or reset happened in the
// meantime the clear does nothing. Notifiers run after the mutex is released.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifier(service.MultiNotifier{hub, service.LogNotifier{}}),
//		service.WithMismatchDelay(800*time.Millisecond),
//	)
//
//	info, err := gameService.CreateSession(ctx, service.NewGameRequest{ConfigID: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Reveal(ctx, info.ID, 3)
package service
