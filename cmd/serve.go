package cmd

import (
	"os"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/sigexhq/sigex-cli/internal/bank"
	"github.com/sigexhq/sigex-cli/internal/config"
)

var flagServeListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bank and match REST API",
	Long: `Serve starts the HTTP API: bank and member management plus
'GET /v1/match?signal_type=...&hash=...' over the indexes built by
'sigex fetch'. The listen address comes from the config unless
overridden with --listen.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(os.Stderr, env.cfg.Logging)
	if err != nil {
		return err
	}

	store, err := bank.OpenStore(env.cfg.Bank.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var media *bank.MediaStore
	if env.cfg.Media.Endpoint != "" {
		accessKey := env.cfg.Media.AccessKey
		secretKey := env.cfg.Media.SecretKey
		if accessKey == "" {
			accessKey, _ = config.GetConfigValue("SIGEX_MEDIA_ACCESS_KEY")
		}
		if secretKey == "" {
			secretKey, _ = config.GetConfigValue("SIGEX_MEDIA_SECRET_KEY")
		}
		media, err = bank.NewMediaStore(env.cfg.Media.Endpoint, accessKey, secretKey, env.cfg.Media.Bucket, env.cfg.Media.UseSSL)
		if err != nil {
			return err
		}
		if err := media.EnsureBucket(cmd.Context()); err != nil {
			return err
		}
	}

	listen := env.cfg.Bank.Listen
	if flagServeListen != "" {
		listen = flagServeListen
	}

	e := echo.New()
	e.HideBanner = true
	svc := bank.NewService(store, media, env.registry, env.indexes, logger)
	svc.Register(e)

	logger.Info("serving", "listen", listen, "db", env.cfg.Bank.DBPath)
	return e.Start(listen)
}
