package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Debug     bool   `help:"Enable debug logging"`
	LogLevel  string `help:"Log level: debug, info, warn or error (default info)"`
	LogFormat string `default:"text" enum:"text,json,logfmt" help:"Log format (${enum})"`
}

type CLI struct {
	Globals

	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Serve       ServeCmd         `cmd:"" help:"Run the leaderboard server"`
	Play        PlayCmd          `cmd:"" help:"Play in the terminal"`
	Theme       ThemeCmd         `cmd:"" help:"Show the daily challenge for a date"`
	Bots        BotsCmd          `cmd:"" help:"List the bot entries seeded for a date"`
	Submit      SubmitCmd        `cmd:"" help:"Submit today's daily result to a server"`
	Leaderboard LeaderboardCmd   `cmd:"" help:"Show a daily leaderboard"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("when"),
		kong.Description("Put historical events in order, alone or pass-and-play"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
