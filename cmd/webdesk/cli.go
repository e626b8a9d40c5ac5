package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	shellerr "webdesk/pkg/errors"
	"webdesk/pkg/logging"
	"webdesk/pkg/mcptools"
	"webdesk/pkg/server"
	"webdesk/pkg/vfs"
)

// newCLIApp creates the CLI application with all commands. Command output
// goes to out; open builds the session for commands that need one.
func newCLIApp(out io.Writer, open opener) *cli.App {
	app := &cli.App{
		Name:    "webdesk",
		Usage:   "Simulated desktop shell with a persistent virtual file system",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Usage: "Data directory (default ~/.webdesk)", EnvVars: []string{"WEBDESK_DATA_DIR"}},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error"},
		},
		Commands: []*cli.Command{
			serveCmd(out, open),
			mcpCmd(open),
			fsCmd(out, open),
			windowsCmd(out, open),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(out io.Writer, open opener) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Aliases: []string{"a"}, Usage: "Listen address (overrides config)"},
		},
		Action: withEnv(open, func(c *cli.Context, e *env) error {
			addr := e.cfg.Addr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			ctx, stop := signal.NotifyContext(background(c), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.Config{Addr: addr, Session: e.session})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Fprintf(out, "webdesk listening on %s\n", addr)

			select {
			case err := <-errCh:
				return outputError(err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return outputError(err)
			}
			e.session.Wait()
			return nil
		}),
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(open opener) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the file system tools to an AI assistant over stdio",
		Action: withEnv(open, func(c *cli.Context, e *env) error {
			if unknown := mcptools.ValidateDisabledTools(e.cfg.DisabledTools); len(unknown) > 0 {
				logging.L().Warn("ignoring unknown disabled tools", logging.String("tools", strings.Join(unknown, ",")))
			}
			if err := mcptools.Run(e.session, e.cfg, Version); err != nil {
				return outputError(err)
			}
			e.session.Wait()
			return nil
		}),
	}
}

// fsCmd groups the file system commands.
func fsCmd(out io.Writer, open opener) *cli.Command {
	return &cli.Command{
		Name:  "fs",
		Usage: "Inspect and change the virtual file system",
		Subcommands: []*cli.Command{
			{
				Name:  "tree",
				Usage: "Print the whole tree",
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					printTree(out, e.session.Root(), 0)
					return nil
				}),
			},
			{
				Name:      "ls",
				Usage:     "List a folder",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sort", Aliases: []string{"s"}, Value: string(vfs.SortByName), Usage: "Sort key: name|size|createdAt"},
					&cli.BoolFlag{Name: "desc", Usage: "Sort descending"},
					&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
				},
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					p := c.Args().First()
					if p == "" {
						p = vfs.HomePrefix
					}
					folder, err := e.session.Resolve(p)
					if err != nil {
						return outputError(err)
					}
					children, err := e.session.List(folder.ID, vfs.SortKey(c.String("sort")), c.Bool("desc"))
					if err != nil {
						return outputError(err)
					}
					if c.Bool("json") {
						return outputJSON(out, children)
					}
					return printListing(out, children, time.Now())
				}),
			},
			{
				Name:      "search",
				Usage:     "Search names and text contents",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scope", Value: vfs.HomePrefix, Usage: "Folder to search below"},
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Value: string(vfs.FilterAll), Usage: "Filter: all|folder|text|image"},
				},
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					if c.NArg() == 0 {
						return outputError(shellerr.NewInvalidRequest("query is required"))
					}
					query := strings.Join(c.Args().Slice(), " ")
					for _, r := range e.session.Search(query, c.String("scope"), vfs.SearchFilter(c.String("filter"))) {
						fmt.Fprintln(out, r.Path)
					}
					return nil
				}),
			},
			{
				Name:      "cat",
				Usage:     "Print a file",
				ArgsUsage: "<path>",
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					n, err := e.session.Resolve(c.Args().First())
					if err != nil {
						return outputError(err)
					}
					if n.IsFolder() {
						return outputError(shellerr.NewInvalidRequest(n.Name + " is a folder"))
					}
					fmt.Fprint(out, n.Content)
					if !strings.HasSuffix(n.Content, "\n") {
						fmt.Fprintln(out)
					}
					return nil
				}),
			},
			{
				Name:      "import",
				Usage:     "Copy a host directory into the tree",
				ArgsUsage: "<dir>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dest", Value: "~/Downloads", Usage: "Destination folder"},
				},
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					if c.NArg() == 0 {
						return outputError(shellerr.NewInvalidRequest("directory is required"))
					}
					dest, err := e.session.Resolve(c.String("dest"))
					if err != nil {
						return outputError(err)
					}
					if err := e.session.ImportHostDir(c.Args().First(), dest.ID); err != nil {
						return outputError(err)
					}
					e.session.Wait()

					latest := e.session.Notifications().List()
					if len(latest) == 0 {
						return nil
					}
					fmt.Fprintf(out, "%s: %s\n", latest[0].Title, latest[0].Message)
					if latest[0].Title != "Import Complete" {
						return cli.Exit("", 1)
					}
					return nil
				}),
			},
			{
				Name:  "empty-trash",
				Usage: "Permanently delete everything in the trash",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm permanent deletion"},
				},
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					emptied, err := e.session.EmptyTrash(c.Bool("yes"))
					if err != nil {
						if shellerr.Is(err, shellerr.ErrConfirmationRequired) {
							return cli.Exit("refusing to empty the trash without --yes", 1)
						}
						return outputError(err)
					}
					if emptied {
						fmt.Fprintln(out, "Trash emptied.")
					} else {
						fmt.Fprintln(out, "Trash is already empty.")
					}
					return nil
				}),
			},
		},
	}
}

// windowsCmd groups the window commands.
func windowsCmd(out io.Writer, open opener) *cli.Command {
	return &cli.Command{
		Name:  "windows",
		Usage: "Inspect the saved window layout",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List open windows, bottom to top",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
				},
				Action: withEnv(open, func(c *cli.Context, e *env) error {
					windows := e.session.WM().Windows()
					if c.Bool("json") {
						return outputJSON(out, windows)
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tAPP\tTITLE\tSTATE\tGEOMETRY")
					for _, w := range windows {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dx%d+%d+%d\n",
							w.ID, w.AppID, w.Title, w.State(),
							w.Size.Width, w.Size.Height, w.Position.X, w.Position.Y)
					}
					return tw.Flush()
				}),
			},
		},
	}
}

// printTree prints n and everything below it, one node per line.
func printTree(out io.Writer, n *vfs.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsFolder() {
		fmt.Fprintf(out, "%s%s/\n", indent, n.Name)
		for _, c := range n.Children {
			printTree(out, c, depth+1)
		}
		return
	}
	fmt.Fprintf(out, "%s%s (%s)\n", indent, n.Name, humanize.Bytes(uint64(n.Size)))
}

// printListing prints a folder listing as an aligned table.
func printListing(out io.Writer, nodes []*vfs.Node, now time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tCREATED")
	for _, n := range nodes {
		name, size := n.Name, humanize.Bytes(uint64(n.Size))
		if n.IsFolder() {
			name += "/"
			size = humanize.Comma(int64(len(n.Children))) + " items"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, size, humanize.RelTime(n.CreatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}

// outputJSON writes v as indented JSON.
func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var se *shellerr.ShellError
	if errors.As(err, &se) {
		return cli.Exit(fmt.Sprintf("[%s] %s", se.Code, se.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
