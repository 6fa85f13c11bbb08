package domain

// UserData holds per-user notification preferences. A row is created
// lazily on first interaction and never deleted.
type UserData struct {
	UserID      string
	Blocks      []string // blocked user or guild identifiers
	Whitelist   []string // guild identifiers; empty means all guilds
	Blacklisted bool     // excluded from all features
}

// HasBlocked checks if the given user or guild identifier is blocked.
func (u *UserData) HasBlocked(id string) bool {
	for _, b := range u.Blocks {
		if b == id {
			return true
		}
	}
	return false
}

// GuildAllowed checks the whitelist. An empty whitelist allows every
// guild; a non-empty one allows only the guilds it names.
func (u *UserData) GuildAllowed(guildID string) bool {
	if len(u.Whitelist) == 0 {
		return true
	}
	for _, g := range u.Whitelist {
		if g == guildID {
			return true
		}
	}
	return false
}
