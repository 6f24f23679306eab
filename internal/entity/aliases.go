package entity

// Seed tables for the 30 NBA franchises and the well-known players the
// original alias map carried. The registry built from these is immutable for
// the life of the process; a database-backed deployment loads the same shape
// through the store package instead.

type teamSeed struct {
	name       string
	abbr       string
	conference string
	aliases    []string
}

type playerSeed struct {
	name    string
	team    string
	espnID  string
	aliases []string
}

var teamSeeds = []teamSeed{
	{"Atlanta Hawks", "ATL", "East", []string{"hawks", "atlanta"}},
	{"Boston Celtics", "BOS", "East", []string{"celtics", "boston"}},
	{"Brooklyn Nets", "BKN", "East", []string{"nets", "brooklyn"}},
	{"Charlotte Hornets", "CHA", "East", []string{"hornets", "charlotte"}},
	{"Chicago Bulls", "CHI", "East", []string{"bulls", "chicago"}},
	{"Cleveland Cavaliers", "CLE", "East", []string{"cavaliers", "cavs", "cleveland"}},
	{"Dallas Mavericks", "DAL", "West", []string{"mavericks", "mavs", "dallas"}},
	{"Denver Nuggets", "DEN", "West", []string{"nuggets", "denver"}},
	{"Detroit Pistons", "DET", "East", []string{"pistons", "detroit"}},
	{"Golden State Warriors", "GSW", "West", []string{"warriors", "golden state", "gs warriors"}},
	{"Houston Rockets", "HOU", "West", []string{"rockets", "houston"}},
	{"Indiana Pacers", "IND", "East", []string{"pacers", "indiana"}},
	{"Los Angeles Clippers", "LAC", "West", []string{"clippers", "la clippers"}},
	{"Los Angeles Lakers", "LAL", "West", []string{"lakers", "la lakers"}},
	{"Memphis Grizzlies", "MEM", "West", []string{"grizzlies", "memphis"}},
	{"Miami Heat", "MIA", "East", []string{"heat", "miami"}},
	{"Milwaukee Bucks", "MIL", "East", []string{"bucks", "milwaukee"}},
	{"Minnesota Timberwolves", "MIN", "West", []string{"timberwolves", "wolves", "minnesota"}},
	{"New Orleans Pelicans", "NOP", "West", []string{"pelicans", "new orleans"}},
	{"New York Knicks", "NYK", "East", []string{"knicks", "ny knicks"}},
	{"Oklahoma City Thunder", "OKC", "West", []string{"thunder", "oklahoma city", "okc thunder"}},
	{"Orlando Magic", "ORL", "East", []string{"magic", "orlando"}},
	{"Philadelphia 76ers", "PHI", "East", []string{"76ers", "sixers", "philadelphia"}},
	{"Phoenix Suns", "PHX", "West", []string{"suns", "phoenix"}},
	{"Portland Trail Blazers", "POR", "West", []string{"trail blazers", "blazers", "portland"}},
	{"Sacramento Kings", "SAC", "West", []string{"kings", "sacramento"}},
	{"San Antonio Spurs", "SAS", "West", []string{"spurs", "san antonio", "sa spurs"}},
	{"Toronto Raptors", "TOR", "East", []string{"raptors", "toronto"}},
	{"Utah Jazz", "UTA", "West", []string{"jazz", "utah"}},
	{"Washington Wizards", "WAS", "East", []string{"wizards", "washington"}},
}

var playerSeeds = []playerSeed{
	{"LeBron James", "Los Angeles Lakers", "1966", []string{"lebron", "king james"}},
	{"Stephen Curry", "Golden State Warriors", "3975", []string{"curry", "steph curry", "steph"}},
	{"Kevin Durant", "Phoenix Suns", "3202", []string{"durant", "kd"}},
	{"Giannis Antetokounmpo", "Milwaukee Bucks", "3032977", []string{"giannis", "antetokounmpo", "greek freak"}},
	{"Nikola Jokic", "Denver Nuggets", "3112335", []string{"jokic", "joker"}},
	{"Luka Doncic", "Los Angeles Lakers", "3945274", []string{"luka", "doncic"}},
	{"Jayson Tatum", "Boston Celtics", "4065648", []string{"tatum"}},
	{"Joel Embiid", "Philadelphia 76ers", "3059318", []string{"embiid"}},
	{"Anthony Davis", "Dallas Mavericks", "6583", []string{"ad", "anthony davis"}},
	{"Jimmy Butler", "Golden State Warriors", "6430", []string{"butler", "jimmy buckets"}},
	{"Damian Lillard", "Portland Trail Blazers", "6606", []string{"lillard", "dame"}},
	{"Devin Booker", "Phoenix Suns", "3136193", []string{"booker"}},
	{"Shai Gilgeous-Alexander", "Oklahoma City Thunder", "4278073", []string{"shai", "sga", "gilgeous alexander"}},
	{"Jalen Brunson", "New York Knicks", "3934672", []string{"brunson"}},
	{"Victor Wembanyama", "San Antonio Spurs", "5104157", []string{"wembanyama", "wemby"}},
	{"Chet Holmgren", "Oklahoma City Thunder", "4433255", []string{"holmgren", "chet"}},
	{"Anthony Edwards", "Minnesota Timberwolves", "4594268", []string{"edwards", "ant man"}},
	{"Tyrese Haliburton", "Indiana Pacers", "4396993", []string{"haliburton"}},
	{"Ja Morant", "Memphis Grizzlies", "4279888", []string{"morant", "ja"}},
	{"Donovan Mitchell", "Cleveland Cavaliers", "3908809", []string{"mitchell", "spida"}},
}

// SeededRegistry builds the registry from the built-in tables. Seed data is
// hand-maintained, so a duplicate alias here is a programming error.
func SeededRegistry() *Registry {
	r := NewRegistry()
	for _, t := range teamSeeds {
		e := &Entity{
			CanonicalName: t.name,
			Kind:          KindTeam,
			Abbreviation:  t.abbr,
			Conference:    t.conference,
		}
		if err := r.Add(e, t.aliases...); err != nil {
			panic(err)
		}
	}
	for _, p := range playerSeeds {
		e := &Entity{
			CanonicalName:   p.name,
			Kind:            KindPlayer,
			TeamAffiliation: p.team,
			ESPNID:          p.espnID,
		}
		if err := r.Add(e, p.aliases...); err != nil {
			panic(err)
		}
	}
	return r
}
