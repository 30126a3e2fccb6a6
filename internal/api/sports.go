package api

import "strings"

// SportInfo describes a supported sport key.
type SportInfo struct {
	Key   string
	Name  string
	Emoji string
	Alias string
}

// Sports is the catalog of supported sport keys, in display order.
var Sports = []SportInfo{
	{Key: "soccer_fifa_club_world_cup", Name: "FIFA Club World Cup", Emoji: "⚽", Alias: "cwc"},
	{Key: "baseball_mlb", Name: "MLB", Emoji: "⚾", Alias: "mlb"},
	{Key: "basketball_nba", Name: "NBA", Emoji: "🏀", Alias: "nba"},
	{Key: "americanfootball_nfl", Name: "NFL", Emoji: "🏈", Alias: "nfl"},
	{Key: "icehockey_nhl", Name: "NHL", Emoji: "🏒", Alias: "nhl"},
	{Key: "soccer_usa_mls", Name: "MLS", Emoji: "⚽", Alias: "mls"},
	{Key: "soccer_italy_serie_a", Name: "Serie A", Emoji: "⚽", Alias: "seriea"},
	{Key: "soccer_spain_la_liga", Name: "La Liga", Emoji: "⚽", Alias: "laliga"},
	{Key: "soccer_germany_bundesliga", Name: "Bundesliga", Emoji: "⚽", Alias: "bundesliga"},
	{Key: "soccer_england_league1", Name: "EFL League One", Emoji: "⚽", Alias: "league1"},
	{Key: "soccer_epl", Name: "Premier League", Emoji: "⚽", Alias: "epl"},
	{Key: "americanfootball_ncaaf", Name: "NCAA Football", Emoji: "🏈", Alias: "ncaaf"},
	{Key: "basketball_ncaab", Name: "NCAA Basketball", Emoji: "🏀", Alias: "ncaab"},
}

// LookupSport returns catalog info for a sport key.
func LookupSport(key string) (SportInfo, bool) {
	for _, s := range Sports {
		if s.Key == key {
			return s, true
		}
	}
	return SportInfo{}, false
}

// ResolveSport accepts a full key or a short alias ("nba") and returns the key.
func ResolveSport(input string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	for _, s := range Sports {
		if in == s.Key || in == s.Alias {
			return s.Key, true
		}
	}
	return "", false
}

// SportName returns a display name, falling back to the raw key.
func SportName(key string) string {
	if s, ok := LookupSport(key); ok {
		return s.Emoji + " " + s.Name
	}
	return key
}
