package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/calabash-bridge/pkg/calabash"
)

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Show the server and client versions",
	Action: func(c *cli.Context) error {
		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			server, err := b.ServerVersion(ctx)
			if err != nil {
				return err
			}
			client, err := b.ClientVersion(ctx)
			if err != nil {
				return err
			}
			return printYAML(c.App.Writer, map[string]interface{}{
				"server": server.Raw.Interface(),
				"client": client,
				"bridge": Version,
			})
		})
	},
}

var queryCommand = &cli.Command{
	Name:      "query",
	Usage:     "Run a query and print the matches",
	ArgsUsage: "<query> [projection...]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("query expression is required")
		}
		q := c.Args().First()
		projections := make([]interface{}, 0, c.NArg()-1)
		for _, p := range c.Args().Tail() {
			projections = append(projections, p)
		}

		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			if len(projections) > 0 {
				v, err := b.QueryValue(ctx, q, projections...)
				if err != nil {
					return err
				}
				return printYAML(c.App.Writer, v.Interface())
			}

			elements, err := b.Query(ctx, q)
			if err != nil {
				return err
			}
			out := make([]map[string]interface{}, 0, elements.Len())
			for _, el := range elements.All() {
				out = append(out, map[string]interface{}{
					"query":  el.Query(),
					"fields": el.Descriptor().Interface(),
				})
			}
			return printYAML(c.App.Writer, out)
		})
	},
}

var touchCommand = &cli.Command{
	Name:      "touch",
	Usage:     "Tap the first element matching a query",
	ArgsUsage: "<query>",
	Action: queryAction(func(ctx context.Context, b *calabash.Bridge, q string) error {
		return b.Touch(ctx, q)
	}),
}

var flashCommand = &cli.Command{
	Name:      "flash",
	Usage:     "Highlight the elements matching a query",
	ArgsUsage: "<query>",
	Action: queryAction(func(ctx context.Context, b *calabash.Bridge, q string) error {
		return b.Flash(ctx, q)
	}),
}

var existsCommand = &cli.Command{
	Name:      "exists",
	Usage:     "Report whether a query matches an element",
	ArgsUsage: "<query>",
	Action: func(c *cli.Context) error {
		return queryAction(func(ctx context.Context, b *calabash.Bridge, q string) error {
			found, err := b.ElementExists(ctx, q)
			if err != nil {
				return err
			}
			return printYAML(c.App.Writer, map[string]interface{}{"query": q, "exists": found})
		})(c)
	},
}

var waitCommand = &cli.Command{
	Name:      "wait",
	Usage:     "Wait until queries match (or stop matching)",
	ArgsUsage: "<query>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "gone",
			Usage: "Wait for the elements to disappear",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Give up after this long (default from config)",
		},
		&cli.DurationFlag{
			Name:  "retry",
			Usage: "Poll interval (default from config)",
		},
		&cli.StringFlag{
			Name:  "message",
			Usage: "Error message on timeout",
		},
		&cli.BoolFlag{
			Name:  "no-screenshot",
			Usage: "Skip the screenshot on timeout",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return fmt.Errorf("at least one query is required")
		}
		queries := c.Args().Slice()
		opts := &calabash.WaitOptions{
			Timeout:        c.Duration("timeout"),
			RetryFrequency: c.Duration("retry"),
			TimeoutMessage: c.String("message"),
		}
		if c.Bool("no-screenshot") {
			off := false
			opts.ScreenshotOnError = &off
		}

		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			if c.Bool("gone") {
				return b.WaitForElementsToNotExist(ctx, queries, opts)
			}
			return b.WaitForElementsExist(ctx, queries, opts)
		})
	},
}

var screenshotCommand = &cli.Command{
	Name:      "screenshot",
	Usage:     "Capture the screen",
	ArgsUsage: "[name]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Directory for the image (default: screenshotsDir or cwd)",
		},
	},
	Action: func(c *cli.Context) error {
		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			dir := c.String("dir")
			if dir == "" {
				dir = b.Config().Screenshots()
			}
			path, err := b.TakeScreenshot(ctx, dir, c.Args().First())
			if err != nil {
				return err
			}
			return printYAML(c.App.Writer, map[string]interface{}{"path": path})
		})
	},
}

var textCommand = &cli.Command{
	Name:      "text",
	Usage:     "Type text on the visible keyboard",
	ArgsUsage: "<text>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("exactly one text argument is required")
		}
		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			return b.EnterText(ctx, c.Args().First())
		})
	},
}

var playbackCommand = &cli.Command{
	Name:      "playback",
	Usage:     "Replay a recorded gesture",
	ArgsUsage: "<recording>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "query",
			Usage: "Anchor the recording on this element",
		},
		&cli.IntFlag{
			Name:  "offset-x",
			Usage: "Horizontal offset",
		},
		&cli.IntFlag{
			Name:  "offset-y",
			Usage: "Vertical offset",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("recording name is required")
		}
		opts := &calabash.PlaybackOptions{Query: c.String("query")}
		if c.IsSet("offset-x") || c.IsSet("offset-y") {
			opts.Offset = &calabash.Offset{X: c.Int("offset-x"), Y: c.Int("offset-y")}
		}
		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			return b.Playback(ctx, c.Args().First(), opts)
		})
	},
}

// queryAction adapts a single-query action into a command action.
func queryAction(fn func(ctx context.Context, b *calabash.Bridge, q string) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("exactly one query is required")
		}
		q := c.Args().First()
		return withBridge(c, func(ctx context.Context, b *calabash.Bridge) error {
			return fn(ctx, b, q)
		})
	}
}
