// Package config provides preset management for the pairs game.
//
// A preset is an engine.GameConfig stored as JSON: a display name, the total
// number of cards, an optional rows/cols layout hint and an optional mismatch
// delay or seed. Five presets ship embedded in the binary, mirroring the
// "instant game" menu:
//   - small: 12 cards, 4x3
//   - classic: 16 cards, 4x4 (the default)
//   - medium: 20 cards, 4x5
//   - large: 30 cards, 5x6
//   - huge: 36 cards, 6x6
//
// A config directory may be supplied to add presets or override the
// built-ins by id. Ids are file names without the .json extension, lower
// cased, with spaces replaced by underscores.
//
// Usage:
//
//	manager, err := config.NewManager(os.Getenv("CONFIG_DIR"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadConfig("large")
//	presets, err := manager.ListConfigs()
//	def := manager.GetDefault()
//
// Every preset is validated with engine.ValidateGameConfig before use.
package config
