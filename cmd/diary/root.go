package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"diary/internal/config"
	"diary/internal/diary"
	"diary/internal/logging"
	"diary/internal/storage"
	"diary/internal/ui"
)

type app struct {
	configPath string
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "diary",
		Short:         "Keep a short list of things to do",
		Long:          `diary keeps a list of records with a title and description. Run it without a subcommand for the interactive view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runTUI,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $DIARY_CONFIG or the user config dir)")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.editCmd(),
		a.completeCmd(),
		a.removeCmd(),
		a.syncCmd(),
	)
	return root
}

// session is one opened config, log, store and controller.
type session struct {
	cfg     config.Config
	ctrl    *diary.Controller
	logger  *log.Logger
	closers []io.Closer
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i].Close()
	}
}

func (a *app) open() (*session, error) {
	path := a.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &session{cfg: cfg}
	logger, closer, err := logging.OpenFile(cfg.LogPath, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger = logging.New(a.errOut, "warn", cfg.LogFormat)
		logger.Warn("logging to stderr", "err", err)
	} else {
		s.closers = append(s.closers, closer)
	}
	s.logger = logger

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.closers = append(s.closers, store)

	repo := diary.NewRepository(store, diary.WithLogger(logger))
	if _, err := repo.Load(); err != nil {
		logger.Warn("starting with an empty list", "err", err)
	}
	s.ctrl = diary.NewController(repo, newStdinDialogs(a.in, a.out), nil, logger)
	return s, nil
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := ui.Run(s.ctrl, s.cfg); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
