package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/vacay/internal/errors"
	"github.com/hpungsan/vacay/internal/itinerary"
	"github.com/hpungsan/vacay/internal/ops"
	"github.com/hpungsan/vacay/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *appDeps) *cli.App {
	app := &cli.App{
		Name:    "vacay",
		Usage:   "AI vacation itinerary planner",
		Version: Version,
		// Destination names contain commas ("Paris, France").
		DisableSliceFlagSeparator: true,
		Commands: []*cli.Command{
			uiCmd(deps),
			planCmd(deps),
			historyCmd(deps),
			showCmd(deps),
			openCmd(deps),
			deleteCmd(deps),
			currentCmd(deps),
			pdfCmd(deps),
			healthCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// uiCmd creates the ui command.
func uiCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Start the planner web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config, 127.0.0.1)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config, 8765)"},
		},
		Action: func(c *cli.Context) error {
			bind := deps.cfg.UIBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := deps.cfg.UIPort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			go deps.monitor.Run(ctx)

			srv := web.NewServer(web.Deps{
				Store:   deps.store,
				Planner: deps.planner,
				Backend: deps.backend,
				Monitor: deps.monitor,
				Opener:  ops.OpenFile,
				Config:  deps.cfg,
				Logger:  deps.logger,
			}, Version, bind, port)
			return web.Run(srv, deps.logger)
		},
	}
}

// planCmd creates the plan command.
func planCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Generate an itinerary (preferences from --preferences or stdin)",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "dest",
				Aliases: []string{"d"},
				Usage:   "Destination, repeatable: Name, Name@2024-01-01, Name@2024-01-01+10, Name@2024-01-01..2024-01-05",
			},
			&cli.StringFlag{Name: "preferences", Aliases: []string{"p"}, Usage: "Travel preferences"},
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the itinerary markdown instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			entries := make([]itinerary.DestinationEntry, 0, len(c.StringSlice("dest")))
			for _, spec := range c.StringSlice("dest") {
				e, err := parseDestSpec(spec)
				if err != nil {
					return outputError(err)
				}
				entries = append(entries, e)
			}

			preferences := c.String("preferences")
			if preferences == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				preferences = text
			}

			output, err := deps.planner.Generate(c.Context, ops.GenerateInput{
				Destinations: entries,
				Preferences:  preferences,
			})
			if err != nil {
				return outputError(err)
			}
			if output.Warning != "" {
				deps.logger.Warn(output.Warning)
			}

			if c.Bool("markdown") {
				_, err := fmt.Fprintln(c.App.Writer, output.Record.Itinerary.Markdown)
				return err
			}
			return outputJSON(c, output)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved itineraries, newest first",
		Action: func(c *cli.Context) error {
			return outputJSON(c, ops.ListHistory(deps.store))
		},
	}
}

// showCmd creates the show command.
func showCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved itinerary",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print only the markdown"},
		},
		Action: func(c *cli.Context) error {
			rec, err := ops.FetchHistory(deps.store, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := fmt.Fprintln(c.App.Writer, rec.Itinerary.Markdown)
				return err
			}
			return outputJSON(c, rec)
		},
	}
}

// openCmd creates the open command.
func openCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Make a saved itinerary the current one",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.OpenHistory(c.Context, deps.store, deps.logger, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved itinerary",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.DeleteHistory(c.Context, deps.store, deps.logger, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// currentCmd creates the current command.
func currentCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the current itinerary",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print only the markdown"},
		},
		Action: func(c *cli.Context) error {
			cur := deps.store.Current()
			if cur == nil {
				return outputError(errors.NewInvalidRequest("no current itinerary"))
			}
			if c.Bool("markdown") {
				_, err := fmt.Fprintln(c.App.Writer, cur.Markdown)
				return err
			}
			return outputJSON(c, map[string]any{
				"itinerary":      cur,
				"last_generated": deps.store.LastGenerated(),
			})
		},
	}
}

// pdfCmd creates the pdf command.
func pdfCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "pdf",
		Usage: "Export the current itinerary as PDF",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory (default from config, else chosen by the backend)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the PDF after export"},
		},
		Action: func(c *cli.Context) error {
			output := deps.cfg.PDFOutputDir
			if c.IsSet("output") {
				output = c.String("output")
			}

			var opener ops.Opener
			if c.Bool("open") {
				opener = ops.OpenFile
			}

			out, err := ops.ExportPDF(c.Context, deps.backend, deps.store, opener, deps.logger, ops.ExportPDFInput{
				OutputPath: output,
				Open:       c.Bool("open"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, out)
		},
	}
}

// healthCmd creates the health command.
func healthCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check whether the backend is reachable and its model loaded",
		Action: func(c *cli.Context) error {
			status := deps.monitor.Check(c.Context)
			if err := outputJSON(c, map[string]any{
				"backend_url": deps.backend.BaseURL(),
				"state":       status.State,
				"label":       status.Label(),
				"llm_loaded":  status.LLMLoaded,
				"error":       status.Error,
			}); err != nil {
				return err
			}
			if !status.Online() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

// parseDestSpec parses a --dest value.
//
//	Lisbon                         no dates
//	Lisbon@2024-01-01              single date
//	Lisbon@2024-01-01+10           start date plus a number of days
//	Lisbon@2024-01-01..2024-01-05  date range
func parseDestSpec(spec string) (itinerary.DestinationEntry, error) {
	name, dates, hasDates := cutLast(spec, "@")
	name = strings.TrimSpace(name)
	if name == "" {
		return itinerary.DestinationEntry{}, errors.NewInvalidRequest(fmt.Sprintf("invalid destination %q: name is required", spec))
	}
	if !hasDates {
		return itinerary.DestinationEntry{Name: name, Mode: itinerary.DateModeNone}, nil
	}

	dates = strings.TrimSpace(dates)
	if start, end, ok := strings.Cut(dates, ".."); ok {
		if err := checkDates(spec, start, end); err != nil {
			return itinerary.DestinationEntry{}, err
		}
		return itinerary.DestinationEntry{Name: name, Mode: itinerary.DateModeRange, RangeStart: start, RangeEnd: end}, nil
	}
	if start, days, ok := strings.Cut(dates, "+"); ok {
		if err := checkDates(spec, start); err != nil {
			return itinerary.DestinationEntry{}, err
		}
		days = strings.TrimSpace(days)
		if n, err := strconv.Atoi(days); err != nil || n < itinerary.MinNumDays || n > itinerary.MaxNumDays {
			return itinerary.DestinationEntry{}, errors.NewInvalidRequest(fmt.Sprintf("invalid destination %q: days must be %d-%d", spec, itinerary.MinNumDays, itinerary.MaxNumDays))
		}
		return itinerary.DestinationEntry{Name: name, Mode: itinerary.DateModeDuration, DurationStart: start, NumDays: days}, nil
	}
	if err := checkDates(spec, dates); err != nil {
		return itinerary.DestinationEntry{}, err
	}
	return itinerary.DestinationEntry{Name: name, Mode: itinerary.DateModeSingle, Date: dates}, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

func checkDates(spec string, dates ...string) error {
	for _, d := range dates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return errors.NewInvalidRequest(fmt.Sprintf("invalid destination %q: dates must be YYYY-MM-DD", spec))
		}
	}
	return nil
}

// outputJSON writes v as indented JSON to the app's writer.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var vErr *errors.VacayError
	if stderrors.As(err, &vErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
