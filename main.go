package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-tinyioc/app"
	kernel "github.com/km-arc/go-tinyioc/framework/app"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error:"), err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var envFiles []string
	root := &cobra.Command{
		Use:           "tinyioc",
		Short:         "Run the TinyIoC demo application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")

	boot := func() (*kernel.Application, error) {
		a, err := kernel.Bootstrap(envFiles...)
		if err != nil {
			return nil, err
		}
		a.Register(&app.Provider{})
		if err := a.Boot(); err != nil {
			return nil, err
		}
		return a, nil
	}

	root.AddCommand(serveCommand(boot), beansCommand(boot), callCommand(boot))
	return root
}

func serveCommand(boot func() (*kernel.Application, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP and, in the app and echo scopes, the TCP echo server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := boot()
			if err != nil {
				return err
			}
			defer a.Log.Sync() //nolint:errcheck
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	}
}

func beansCommand(boot func() (*kernel.Application, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "beans",
		Short: "List the beans registered for the configured scope",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := boot()
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background()) //nolint:errcheck

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCOPE\tKIND\tTYPE\tOWNER")
			for _, d := range a.Container.Definitions() {
				name := cyan(d.Name)
				if d.Intercepted {
					name += yellow(" *")
				}
				owner := d.Owner
				if owner == "" {
					owner = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, green(d.Scope), d.Kind, d.Type, gray(owner))
			}
			return w.Flush()
		},
	}
}

func callCommand(boot func() (*kernel.Application, error)) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "call <bean> <method> [args...]",
		Short: "Call a bean method once, through interception",
		Example: `  tinyioc call userService Register alice
  tinyioc call adminService DeleteUser 1 --as root:ADMIN`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot()
			if err != nil {
				return err
			}
			defer a.Shutdown(context.Background()) //nolint:errcheck

			if as != "" {
				user, role, _ := strings.Cut(as, ":")
				if err := a.Session.Login(user, role); err != nil {
					return err
				}
			}
			out, err := a.Call(args[0], args[1], args[2:]...)
			if err != nil {
				return err
			}
			for _, v := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %+v\n", green("→"), v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "log in as user[:ROLE] before the call")
	return cmd
}
