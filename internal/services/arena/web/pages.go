package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/louisbranch/elemental-arena/internal/services/arena/domain/rules"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// authPageParams feeds the login and register forms.
type authPageParams struct {
	Error   string
	Message string
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<main class="container">
`, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}

func notice(w io.Writer, class, text string) error {
	if text == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "<p class=\"%s\">%s</p>\n", class, templ.EscapeString(text))
	return err
}

func loginPage(params authPageParams) templ.Component {
	return layout("Login - Elemental Arena", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Login</h1>\n"); err != nil {
			return err
		}
		if err := notice(w, "message", params.Message); err != nil {
			return err
		}
		if err := notice(w, "error", params.Error); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<form method="post" action="/login">
<label>Username <input type="text" name="username" required maxlength="64"></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Login</button>
</form>
<p>Don't have an account? <a href="/register">Register here</a>.</p>
`)
		return err
	}))
}

func registerPage(params authPageParams) templ.Component {
	return layout("Register - Elemental Arena", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Register</h1>\n"); err != nil {
			return err
		}
		if err := notice(w, "error", params.Error); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<form method="post" action="/register">
<label>Username <input type="text" name="username" required maxlength="64"></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Register</button>
</form>
<p>Already have an account? <a href="/login">Login here</a>.</p>
`)
		return err
	}))
}

func arenaPage(username string, types []rules.CreatureType) templ.Component {
	title := cases.Title(language.English)
	return layout("Elemental Arena", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<header>
<h1>Elemental Arena</h1>
<p>Welcome, %s! <a href="/logout">Logout</a></p>
</header>
<section id="game-setup">
<h2>Choose your creature</h2>
<select id="creature-select">
`, templ.EscapeString(username)); err != nil {
			return err
		}
		for _, ct := range types {
			if _, err := fmt.Fprintf(w, "<option value=\"%s\">%s</option>\n",
				templ.EscapeString(ct.String()), templ.EscapeString(title.String(ct.String()))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</select>
<button id="start-game-btn">Start Game</button>
</section>
<section id="game-area" hidden>
<div class="creatures">
<div class="creature"><h3>Your <span id="player-type"></span></h3><p>HP: <span id="player-hp"></span></p></div>
<div class="creature"><h3>AI's <span id="ai-type"></span></h3><p>HP: <span id="ai-hp"></span></p></div>
</div>
<p id="turn-indicator"></p>
<button id="attack-btn">Attack!</button>
<p id="game-status"></p>
<button id="restart-game-btn" hidden>Play Again</button>
<h3>Battle Log</h3>
<ul id="log-list"></ul>
</section>
<script src="/static/script.js"></script>
`)
		return err
	}))
}
