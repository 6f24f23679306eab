package scoreboard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/courtside/internal/provider"
)

// ParseGames extracts games from a Google search result document. Google
// varies the page structure, so two strategies are tried in order.
func ParseGames(doc *goquery.Document) []provider.GameResult {
	var games []provider.GameResult

	// Strategy 1: sports card widgets.
	doc.Find("div.imso_mh__lv-m-stl-cont").Each(func(i int, s *goquery.Selection) {
		if game := parseSportsCard(s); game != nil {
			games = append(games, *game)
		}
	})

	// Strategy 2: looser sports divs with a score pattern in the text.
	if len(games) == 0 {
		doc.Find("div[class*='sports']").Each(func(i int, s *goquery.Selection) {
			if game := parseSportsDiv(s); game != nil {
				games = append(games, *game)
			}
		})
	}

	return games
}

func parseSportsCard(s *goquery.Selection) *provider.GameResult {
	game := &provider.GameResult{}

	s.Find("div.imso_mh__first-tn-ed").Each(func(i int, team *goquery.Selection) {
		name := strings.TrimSpace(team.Text())
		switch i {
		case 0:
			game.HomeTeam = name
		case 1:
			game.AwayTeam = name
		}
	})

	s.Find("div.imso_mh__l-tm-sc").Each(func(i int, score *goquery.Selection) {
		val, err := strconv.Atoi(strings.TrimSpace(score.Text()))
		if err != nil {
			return
		}
		switch i {
		case 0:
			game.HomeScore = val
		case 1:
			game.AwayScore = val
		}
	})

	game.Status = strings.TrimSpace(s.Find("span.imso_mh__ft-mtch").Text())

	if game.HomeTeam == "" || game.AwayTeam == "" {
		return nil
	}
	game.Matchup = game.AwayTeam + " vs " + game.HomeTeam
	fillWinner(game)
	return game
}

// scorePattern matches text like "Lakers 105 - 98 Celtics".
var scorePattern = regexp.MustCompile(`([A-Za-z ]+?)\s+(\d{2,3})\s*-\s*(\d{2,3})\s+([A-Za-z ]+)`)

// parseSportsDiv is a fallback for alternate Google structures.
func parseSportsDiv(s *goquery.Selection) *provider.GameResult {
	text := s.Text()
	if !strings.Contains(strings.ToLower(text), "nba") {
		return nil
	}

	matches := scorePattern.FindStringSubmatch(text)
	if len(matches) != 5 {
		return nil
	}

	awayScore, _ := strconv.Atoi(matches[2])
	homeScore, _ := strconv.Atoi(matches[3])

	game := &provider.GameResult{
		AwayTeam:  trimStatusWords(matches[1]),
		HomeTeam:  trimStatusWords(matches[4]),
		AwayScore: awayScore,
		HomeScore: homeScore,
		Status:    "Final",
	}
	game.Matchup = game.AwayTeam + " vs " + game.HomeTeam
	fillWinner(game)
	return game
}

// trimStatusWords drops status tokens the loose regex drags into team names,
// like the "Final" in "Celtics Final".
func trimStatusWords(name string) string {
	tokens := strings.Fields(name)
	for len(tokens) > 0 {
		switch strings.ToLower(tokens[len(tokens)-1]) {
		case "final", "ft", "ot", "live":
			tokens = tokens[:len(tokens)-1]
		default:
			return strings.Join(tokens, " ")
		}
	}
	return ""
}

func fillWinner(game *provider.GameResult) {
	switch {
	case game.HomeScore > game.AwayScore:
		game.Winner = game.HomeTeam
	case game.AwayScore > game.HomeScore:
		game.Winner = game.AwayTeam
	}
}

// IsFinal reports whether a scraped status text describes a finished game.
func IsFinal(status string) bool {
	return strings.Contains(strings.ToLower(status), "final")
}
