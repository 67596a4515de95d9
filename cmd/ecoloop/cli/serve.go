package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ecoloopkenya/ecoloop/internal/config"
	"github.com/ecoloopkenya/ecoloop/internal/server"
	"github.com/ecoloopkenya/ecoloop/internal/service"
)

const banner = `
 ___ ___ ___  _    ___   ___  ___
| __/ __/ _ \| |  / _ \ / _ \| _ \
| _| (_| (_) | |_| (_) | (_) |  _/
|___\___\___/|____\___/ \___/|_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the marketplace API server",
		Long:  "Start the HTTP server that exposes the buyer, seller and admin APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	logger := newLogger(dev)

	// A --config file is parsed into the typed config; env vars
	// referenced as ${VAR} in the file are expanded on load.
	var fileCfg *config.YAMLConfig
	if cfgFile != "" {
		var err error
		if fileCfg, err = config.LoadYAMLConfig(cfgFile); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("store initialized", "driver", st.Driver())

	tokenTTL := 24 * time.Hour
	secret := jwtSecret()
	if fileCfg != nil {
		tokenTTL = fileCfg.Auth.TokenTTL()
		if fileCfg.Auth.JWTSecret != "" {
			secret = fileCfg.Auth.JWTSecret
		}
	} else if d, err := time.ParseDuration(viper.GetString("auth.jwt_expiry")); err == nil && d > 0 {
		tokenTTL = d
	}
	authSvc := service.NewAuthService(st, secret, tokenTTL, logger)

	// First-run hint: the admin APIs are unusable until setup has run.
	hasAdmin, err := st.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - POST /api/admin/setup or run: ecoloop admin create")
	}

	corsOrigins := viper.GetStringSlice("server.cors.origins")
	if fileCfg != nil && len(fileCfg.Server.CORS.Origins) > 0 {
		corsOrigins = fileCfg.Server.CORS.Origins
	}
	if dev || len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = host
	srvCfg.Port = port
	srvCfg.CORSOrigins = corsOrigins
	if fileCfg != nil {
		if fileCfg.Server.RateLimit.Requests > 0 {
			srvCfg.RateLimit = fileCfg.Server.RateLimit.Requests
		}
		srvCfg.RateWindow = fileCfg.Server.RateLimit.RateWindow()
		srvCfg.ShutdownTimeout = fileCfg.Server.ShutdownGrace()
	} else {
		if n := viper.GetInt("server.rate_limit.requests"); n > 0 {
			srvCfg.RateLimit = n
		}
		if d, err := time.ParseDuration(viper.GetString("server.rate_limit.window")); err == nil && d > 0 {
			srvCfg.RateWindow = d
		}
		if d, err := time.ParseDuration(viper.GetString("server.shutdown_timeout")); err == nil && d > 0 {
			srvCfg.ShutdownTimeout = d
		}
	}

	srv := server.New(srvCfg, st, authSvc, logger)

	fmt.Printf("→ EcoLoop %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ OpenAPI:  http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:   http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}
