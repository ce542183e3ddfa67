package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"text/template"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/uptrack/uptrack/internal/config"
	"github.com/uptrack/uptrack/internal/logger"
	"github.com/uptrack/uptrack/internal/meta"
	"github.com/uptrack/uptrack/internal/scheme"
)

func init() {
	scheme.HTTPUserAgent = meta.UserAgent()
}

type UptrackCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	ConfigPath  string
	ListenPort  int
	OneshotMode bool
	SummaryMode bool
	ShowVersion bool
	ShowHelp    bool

	Config config.Config
}

var defaultUptrackCommand = &UptrackCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

//go:embed help.txt
var helpText string

func (cmd *UptrackCommand) PrintUsage(detail bool) {
	tmpl := template.Must(template.New("help.txt").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Version":         meta.Version,
		"HTTPRedirectMax": scheme.HTTP_REDIRECT_MAX,
		"Short":           !detail,
	})
}

func (cmd *UptrackCommand) ParseArgs(args []string) (exitCode int) {
	flags := pflag.NewFlagSet("uptrack", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVarP(&cmd.ConfigPath, "config", "c", "uptrack.yaml", "Path to configuration file")
	flags.IntVarP(&cmd.ListenPort, "port", "p", 0, "HTTP listen port")
	flags.BoolVarP(&cmd.OneshotMode, "oneshot", "1", false, "Check status only once and exit")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message")

	if len(args) > 1 {
		switch args[1] {
		case "oneshot":
			cmd.OneshotMode = true
			args = append(args[:1:1], args[2:]...)
		case "summary":
			cmd.SummaryMode = true
			args = append(args[:1:1], args[2:]...)
		}
	}

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp {
		return 0
	}

	if flags.NArg() > 0 {
		fmt.Fprintf(cmd.ErrStream, "invalid argument: unexpected argument: %s\n", flags.Arg(0))
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	if (cmd.OneshotMode || cmd.SummaryMode) && flags.Changed("port") {
		fmt.Fprintln(cmd.ErrStream, "warning: port option will ignored in the oneshot and summary mode.")
	}

	cfg, err := config.Load(cmd.ConfigPath)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 2
	}
	if cmd.ListenPort > 0 {
		cfg.Listen = fmt.Sprintf(":%d", cmd.ListenPort)
	}
	cmd.Config = cfg

	return 0
}

func (cmd *UptrackCommand) PrintVersion() {
	fmt.Fprintf(cmd.OutStream, "Uptrack version %s\n", meta.String())
}

// Logger makes the logger that the configuration specifies.
func (cmd *UptrackCommand) Logger() zerolog.Logger {
	return logger.New(cmd.ErrStream, cmd.Config.Log.Level, cmd.Config.Log.Format)
}

func (cmd *UptrackCommand) Run(args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	log := cmd.Logger()
	ctx := log.WithContext(context.Background())

	st, err := OpenStorage(ctx, cmd.Config.Storage)
	if err != nil {
		log.Error().Err(err).Str("driver", cmd.Config.Storage.Driver).Msg("failed to open storage")
		return 1
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m, schedules, err := cmd.NewMonitor(ctx, st, log, reg)
	if err != nil {
		log.Error().Err(err).Msg("failed to prepare sites")
		return 2
	}

	switch {
	case cmd.SummaryMode:
		exitCode = cmd.RunSummary(ctx, m)
	case cmd.OneshotMode:
		exitCode = cmd.RunOneshot(ctx, m)
	default:
		exitCode = cmd.RunServer(ctx, m, schedules, reg)
	}

	healthy, _ := m.Errors()
	if exitCode == 0 && !healthy {
		return 1
	}

	return exitCode
}

func main() {
	os.Exit(defaultUptrackCommand.Run(os.Args))
}
