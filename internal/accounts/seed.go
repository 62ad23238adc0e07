package accounts

import "github.com/rs/zerolog/log"

// Seed creates the demo accounts and forces every account offline, mirroring
// a fresh boot: whatever the previous process thought about presence is stale.
func Seed(s *Service) {
	demo := []struct {
		username, password, fullName string
	}{
		{"alice", "password123", "Alice Johnson"},
		{"bob", "password123", "Bob Smith"},
		{"admin", "admin123", "Administrator"},
	}
	for _, d := range demo {
		if s.Exists(d.username) {
			continue
		}
		if _, err := s.Register(d.username, d.password, d.fullName); err != nil {
			log.Error().Err(err).Str("module", "accounts").Str("username", d.username).Msg("seed failed")
		}
	}
	s.SetAllOffline()
	log.Info().Str("module", "accounts").Msg("seeded demo accounts, all offline")
}
