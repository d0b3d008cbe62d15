// Package cli is the terminal client of the Sinergy chat. It shares the
// identity rules of the web front: a remembered login lives in a file under
// the user's config directory, a plain login lives only as long as the process.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/sinergy/sinergy-web/internal/core/ports"
	"github.com/sinergy/sinergy-web/internal/core/service"
	"github.com/sinergy/sinergy-web/internal/infrastructure/backend"
	"github.com/sinergy/sinergy-web/internal/infrastructure/localstore"
	"github.com/sinergy/sinergy-web/internal/pkg/config"
	"github.com/sinergy/sinergy-web/pkg/logger"
)

// API is the part of the Sinergy API the terminal client talks to.
type API interface {
	ports.AuthAPI
	ports.ChatAPI
}

// App holds the collaborators of every command. Nil fields are filled from
// the environment before a command runs.
type App struct {
	In     io.Reader
	Out    io.Writer
	Config *config.Config
	API    API
	Log    *zerolog.Logger

	// Durable keeps remembered logins; Session keeps the login of this process.
	Durable ports.Scope
	Session ports.Scope

	store  *service.IdentityAccessor
	reader *bufio.Reader
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	var (
		stateDir string
		verbose  bool
	)

	root := &cobra.Command{
		Use:   "sinergy-chat",
		Short: "Terminal client of the Sinergy ERP chat",
		Long: `sinergy-chat keeps you online in the Sinergy ERP chat and lets you
talk to other users from a terminal.

Log in once with "sinergy-chat login" to be remembered, or just run
"sinergy-chat chat" and enter your credentials for this session only.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd.Context(), stateDir, verbose)
		},
	}
	root.SetIn(app.input())
	root.SetOut(app.output())

	root.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory of the remembered login (default is the user config dir)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log polling failures")

	root.AddCommand(newLoginCmd(app), newLogoutCmd(app), newWhoamiCmd(app), newChatCmd(app))
	return root
}

func (a *App) input() io.Reader {
	if a.In == nil {
		a.In = os.Stdin
	}
	return a.In
}

// readLine returns the next input line without its line break.
func (a *App) readLine() (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.input())
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) output() io.Writer {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	return a.Out
}

func (a *App) init(ctx context.Context, stateDir string, verbose bool) error {
	if a.Config == nil {
		cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		a.Config = cfg
	}

	if a.Log == nil {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l := logger.Init(logger.Options{
			Level:    level,
			Pretty:   true,
			Output:   os.Stderr,
			Service:  "sinergy-chat",
			NoCaller: true,
		})
		a.Log = &l
	}

	if a.API == nil {
		a.API = backend.NewClient(a.Config.Sinergy.URL, *a.Log, backend.WithTimeout(a.Config.Sinergy.Timeout))
	}

	if a.Durable == nil {
		dir := stateDir
		if dir == "" {
			d, err := localstore.DefaultDir()
			if err != nil {
				return err
			}
			dir = d
		}
		a.Durable = localstore.NewFileScope(dir)
	}
	if a.Session == nil {
		a.Session = localstore.NewMemoryScope()
	}

	a.store = service.NewIdentityAccessor(a.Durable, a.Session)
	return nil
}

func (a *App) auth() *service.AuthService {
	return service.NewAuthService(a.API, a.Log.With().Str("component", "auth").Logger())
}
