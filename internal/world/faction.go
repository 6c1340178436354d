package world

// FactionID is the side an entity fights for.
type FactionID string

const (
	FactionPlayer  FactionID = "Player"
	FactionEnemy   FactionID = "Enemy"
	FactionNeutral FactionID = "Neutral"
	FactionAlly    FactionID = "Ally"
)

// Faction is immutable for an entity's lifetime.
type Faction struct {
	ID   FactionID
	Team int
}

// Allied faction ids never fight each other even across teams.
var friendlyPairs = map[[2]FactionID]bool{
	{FactionPlayer, FactionAlly}: true,
	{FactionAlly, FactionPlayer}: true,
}

// Hostile reports whether two factions fight. Hostility requires differing
// teams, never involves neutrals, and is symmetric.
func Hostile(a, b Faction) bool {
	if a.Team == b.Team {
		return false
	}
	if a.ID == FactionNeutral || b.ID == FactionNeutral {
		return false
	}
	if friendlyPairs[[2]FactionID{a.ID, b.ID}] {
		return false
	}
	return true
}
