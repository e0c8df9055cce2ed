package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minhyannv/chatgpt-cli-go/pkg/chat"
	configpkg "github.com/minhyannv/chatgpt-cli-go/pkg/config"
	loggerpkg "github.com/minhyannv/chatgpt-cli-go/pkg/logger"
	"github.com/minhyannv/chatgpt-cli-go/pkg/session"
	"github.com/minhyannv/chatgpt-cli-go/pkg/transcript"
)

// cliFlags holds values parsed from the command line.
type cliFlags struct {
	Model          string
	ConfigFile     string
	Store          string
	HistoryDir     string
	BaseURL        string
	TimeoutSeconds int
	Verbose        bool
}

func newRootCmd() *cobra.Command {
	var flags cliFlags
	cmd := &cobra.Command{
		Use:           "chatgpt-cli [prompt...]",
		Short:         "Chat with a streaming chat-completions API from the terminal",
		Long:          "Sends the prompt, streams the answer as it arrives, and keeps the conversation for this terminal window.\nType exit at the prompt to leave.",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, args)
		},
	}
	bindFlags(cmd.Flags(), &flags)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, f *cliFlags) {
	fs.StringVarP(&f.Model, "model", "m", "", "Model to use (default: $"+configpkg.EnvModel+" or "+configpkg.DefaultModel+")")
	fs.StringVar(&f.ConfigFile, "config", configpkg.DefaultFilePath(), "Path to a YAML config file")
	fs.StringVar(&f.Store, "store", "", "Transcript store: file, redis or memory")
	fs.StringVar(&f.HistoryDir, "history_dir", "", "Directory for file transcripts")
	fs.StringVar(&f.BaseURL, "base_url", "", "Chat-completions API base URL")
	fs.IntVar(&f.TimeoutSeconds, "timeout", 0, "Request timeout in seconds")
	fs.BoolVar(&f.Verbose, "verbose", false, "Verbose debug logging to stderr")
}

// loadConfig layers defaults, the YAML file, the environment and flags, in that order.
func loadConfig(flags cliFlags, getenv func(string) string) (configpkg.Config, error) {
	cfg, err := configpkg.LoadFile(configpkg.DefaultConfig(), flags.ConfigFile)
	if err != nil {
		return configpkg.Config{}, err
	}
	cfg = configpkg.ApplyEnv(cfg, getenv)

	if v := strings.TrimSpace(flags.Model); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(flags.Store); v != "" {
		cfg.Store = v
	}
	if v := strings.TrimSpace(flags.HistoryDir); v != "" {
		cfg.HistoryDir = v
	}
	if v := strings.TrimSpace(flags.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if flags.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = flags.TimeoutSeconds
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	return configpkg.Normalize(cfg), nil
}

func run(cmd *cobra.Command, flags cliFlags, args []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(flags, os.Getenv)
	if err != nil {
		return err
	}
	if err := configpkg.Validate(cfg); err != nil {
		return err
	}

	appLogger := loggerpkg.NewWriterLogger(os.Stderr)
	store, err := openStore(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			loggerpkg.Error(appLogger, "close transcript store", map[string]any{"error": err.Error()})
		}
	}()

	key := session.FromProcess()
	loggerpkg.Debug(cfg.Verbose, appLogger, "session ready", map[string]any{
		"session": key.String(),
		"store":   cfg.Store,
	})

	out := cmd.OutOrStdout()
	answer := newAnswerWriter(out)
	orchestrator, err := chat.New(cfg, store,
		chat.WithLogger(appLogger),
		chat.WithDisplay(answer),
		chat.WithDiagnostics(func(err error) {
			loggerpkg.Warn(appLogger, "Error parsing JSON", map[string]any{"error": err.Error()})
		}),
	)
	if err != nil {
		return err
	}

	return runREPL(cmd.Context(), orchestrator, replOptions{
		Key:           key,
		InitialPrompt: strings.Join(args, " "),
		Answer:        answer,
		Verbose:       cfg.Verbose,
		Logger:        appLogger,
	}, cmd.InOrStdin(), out, cmd.ErrOrStderr())
}

// openStore builds the transcript store selected by cfg.Store.
func openStore(cfg configpkg.Config, l loggerpkg.Logger) (transcript.Store, error) {
	logOpt := transcript.WithLogger(l, cfg.Verbose)
	switch transcript.StoreType(cfg.Store) {
	case transcript.StoreTypeFile:
		return transcript.NewStore(transcript.StoreTypeFile, transcript.WithRoot(cfg.HistoryDir), logOpt)
	case transcript.StoreTypeRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", configpkg.EnvRedisURL, err)
		}
		return transcript.NewStore(transcript.StoreTypeRedis, transcript.WithRedisClient(redis.NewClient(opts)), logOpt)
	default:
		return transcript.NewStore(transcript.StoreType(cfg.Store), logOpt)
	}
}
