package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fairexam/fairexam/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis HTTP API",
	Long: "Serve the analysis API:\n" +
		"  POST /api/analyze              multipart exam_paper and syllabus files\n" +
		"  GET  /api/classifier/status    classifier connectivity check\n" +
		"  GET  /health\n" +
		"  GET  /",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		origins, _ := cmd.Flags().GetStringSlice("origins")
		maxUploadMB, _ := cmd.Flags().GetInt64("max-upload-mb")
		scoringPath, _ := cmd.Flags().GetString("scoring-config")
		offline, _ := cmd.Flags().GetBool("offline")

		engine, provider, cleanup, err := buildEngine(cmd, engineOptions{offline: offline, scoringConfig: scoringPath})
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := server.DefaultConfig()
		cfg.Addr = envOr(addr, "FAIREXAM_ADDR")
		if cfg.Addr == "" {
			cfg.Addr = server.DefaultConfig().Addr
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		} else if v := os.Getenv("FAIREXAM_ALLOWED_ORIGINS"); v != "" {
			cfg.AllowedOrigins = strings.Split(v, ",")
		}
		if maxUploadMB > 0 {
			cfg.MaxUploadBytes = maxUploadMB << 20
		}
		cfg.Version = version

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return server.New(cfg, engine, provider).Run(ctx)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "Listen address (default :8000, env FAIREXAM_ADDR)")
	f.StringSlice("origins", nil, "CORS allowed origins (default *, env FAIREXAM_ALLOWED_ORIGINS)")
	f.Int64("max-upload-mb", 20, "Maximum size of one analyze request in MiB")
	f.String("scoring-config", "", "YAML scoring policy (see 'fairexam scoring defaults')")
	f.Bool("offline", false, "Skip the external classifier and use heuristics only")
}
