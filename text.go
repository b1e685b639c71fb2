package main

import (
	"time"

	"github.com/Zachkp/portfolio/internal/catalog"
)

// AboutMe is the introduction on the home page.
const AboutMe = `I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes.
Most of my projects start with a simple idea and turn into a chance to learn something new, whether it's a
different language, a new tool, or a tricky problem.
When I'm not coding, you'll usually find me training Muay Thai or shooting pool with friends.`

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

// seedProjects is the catalog used when no project feed is configured.
var seedProjects = []catalog.Entry{
	{
		Slug:        "mail-tui",
		Title:       "Terminal Mail Client",
		Description: "A terminal email client written in Go with **fuzzy finding**, built on the Charmbracelet TUI framework and go-imap.",
		Categories:  []string{"cli", "go"},
		Tags:        []string{"Go", "Bubble Tea", "IMAP"},
		Date:        day("2025-03-10"),
		Image:       "/images/project-mail.png",
	},
	{
		Slug:        "music-tui",
		Title:       "Terminal Music Player",
		Description: "Streams YouTube Music from the command line through yt-dlp and mpv behind a keyboard-driven TUI.",
		Categories:  []string{"cli", "go"},
		Tags:        []string{"Go", "yt-dlp", "mpv"},
		Date:        day("2025-01-22"),
		Image:       "/images/project-music.png",
	},
	{
		Slug:        "game-recommender",
		Title:       "Game Recommender",
		Description: "Recommends games from content similarity using TF-IDF vectors and cosine similarity, with interactive charts and filtering by reviews and ratings.",
		Categories:  []string{"ml", "web"},
		Tags:        []string{"Python", "scikit-learn", "Pandas"},
		Date:        day("2024-06-05"),
		Image:       "/images/project-games.png",
	},
	{
		Slug:        "portfolio",
		Title:       "Portfolio Site",
		Description: "This site: a Go and Gin server rendering HTMX partials for filtering, theming and the contact form.",
		Categories:  []string{"web", "go"},
		Tags:        []string{"Go", "Gin", "HTMX", "SQLite"},
		Date:        day("2025-08-01"),
		Repo:        "https://github.com/Zachkp/portfolio",
	},
}
