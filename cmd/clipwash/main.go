package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/clipwash/clipwash/internal/api"
	"github.com/clipwash/clipwash/internal/app"
	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/engine"
	"github.com/clipwash/clipwash/internal/fetch"
	"github.com/clipwash/clipwash/internal/infra/config"
	"github.com/clipwash/clipwash/internal/infra/logger"
	"github.com/clipwash/clipwash/internal/platform"
	"github.com/clipwash/clipwash/internal/processor"
	"github.com/clipwash/clipwash/internal/speech"
	"github.com/clipwash/clipwash/internal/store"
)

var (
	configPath string

	cropPixels   int
	cropPosition string
	narration    string
	voiceRef     string
	voiceID      string
	emotion      string
	platformHint string
)

func main() {
	root := &cobra.Command{
		Use:   "clipwash",
		Short: "Acquire source videos, crop watermarks, resynthesize narration",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and job queue",
		RunE:  runServe,
	}

	runCmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Process a single video URL and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runOnce,
	}
	runCmd.Flags().IntVar(&cropPixels, "crop", 0, "pixels to crop off the watermark edge")
	runCmd.Flags().StringVar(&cropPosition, "position", "bottom", "edge to crop: bottom/top/left/right")
	runCmd.Flags().StringVar(&narration, "narration", "", "narration text to synthesize over the video")
	runCmd.Flags().StringVar(&voiceRef, "voice-ref", "", "reference audio path enabling voice cloning")
	runCmd.Flags().StringVar(&voiceID, "voice", "", "generic tts voice id")
	runCmd.Flags().StringVar(&emotion, "emotion", "", "emotion preset for voice cloning")
	runCmd.Flags().StringVar(&platformHint, "platform", "", "platform hint (tiktok/sora/runway/youtube)")

	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Report which acquisition methods are usable",
		RunE:  runProbe,
	}

	root.AddCommand(serveCmd, runCmd, probeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// core bundles everything both serve and run need.
type core struct {
	cfg    *config.Config
	log    *logger.Logger
	prober *platform.Prober
	runner *engine.Runner
	store  *store.PersistentStore
}

func buildCore() (*core, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}

	if err := os.MkdirAll(cfg.Download.WorkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}

	var st *store.PersistentStore
	switch cfg.Store.Backend {
	case "postgres":
		st, err = store.NewPostgres(cfg.Store.PostgresDSN)
	default:
		st, err = store.NewSQLite(cfg.Store.SQLitePath)
	}
	if err != nil {
		return nil, fmt.Errorf("store error: %w", err)
	}

	prober := platform.NewProber(cfg.Download)

	methods := []fetch.Method{
		fetch.NewRemoteBrowser(cfg.Download.RemoteBrowser),
		fetch.NewYtDlp(prober.YtDlpBinary()),
		fetch.NewDirect(),
	}
	if browser := prober.BrowserBinary(); browser != "" {
		methods = append(methods, fetch.NewNativeBrowser(browser))
	}
	fetcher := fetch.NewOrchestrator(cfg.Download.MethodTimeout, log, methods...)

	synth := speech.NewOrchestrator(
		speech.NewCloneClient(cfg.Speech.CloneBaseURL, cfg.Speech.CloneAPIKey),
		speech.NewTTSClient(cfg.Speech.TTSBaseURL, cfg.Speech.TTSAPIKey),
		cfg.Speech.DefaultVoice,
		cfg.Speech.RequestTimeout,
		log,
	)

	proc := processor.New(cfg.Process, log)

	runner := engine.NewRunner(fetcher, synth, proc, prober.Probe, cfg.Download.WorkDir, cfg.Download.OutputDir, log)

	return &core{cfg: cfg, log: log, prober: prober, runner: runner, store: st}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := engine.NewQueueManager(c.runner, c.store, c.log, 2, true)
	go queue.Start(ctx)

	appCtx := app.NewContext(c.cfg, c.log)
	appCtx.Queue = queue
	appCtx.Prober = c.prober

	e := echo.New()
	api.RegisterRoutes(e, appCtx)

	server := &http.Server{
		Addr:    ":" + c.cfg.Port,
		Handler: e,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	c.log.Info("listening on :%s", c.cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	c, err := buildCore()
	if err != nil {
		return err
	}
	defer c.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := args[0]
	plat := domain.ParsePlatform(platformHint)
	if platformHint == "" {
		plat = domain.DetectPlatform(url)
	}

	job := &domain.Job{
		ID:       ksuid.New().String(),
		URL:      url,
		Platform: plat,
		Params: domain.ProcessingParams{
			CropPixels:   cropPixels,
			CropPosition: cropPosition,
		},
		Status:    domain.StatusQueued,
		CreatedAt: time.Now(),
	}
	if narration != "" {
		job.Params.Narration = &domain.NarrationParams{
			Text:         narration,
			VoiceRefPath: voiceRef,
			VoiceID:      voiceID,
			Emotion:      emotion,
		}
	}

	if err := c.store.SaveJob(job); err != nil {
		return err
	}

	runErr := c.runner.Run(ctx, job, func(status domain.JobStatus) {
		job.Status = status
		_ = c.store.SaveJob(job)
		fmt.Printf("-> %s\n", status)
	})

	if runErr != nil {
		job.Status = domain.StatusFailed
		job.Error = runErr.Error()
	} else {
		job.Status = domain.StatusCompleted
	}
	job.FinishedAt = time.Now()
	_ = c.store.SaveJob(job)

	fmt.Println("\n=== Job Summary ===")
	fmt.Printf("Job ID:   %s\n", job.ID)
	fmt.Printf("Platform: %s\n", job.Platform)
	fmt.Printf("Status:   %s\n", job.Status)
	if runErr != nil {
		fmt.Printf("Error:    %s\n", job.Error)
		return runErr
	}
	fmt.Printf("Method:   %s\n", job.MethodUsed)
	if job.ProviderUsed != "" {
		fmt.Printf("Voice:    %s\n", job.ProviderUsed)
	}
	fmt.Printf("Artifact: %s\n", job.ArtifactPath)
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	caps := platform.NewProber(cfg.Download).Probe()
	fmt.Println("Acquisition capabilities:")
	for _, method := range domain.MethodPriority() {
		state := "unavailable"
		if caps.Available(method) {
			state = "ok"
		}
		fmt.Printf("  %-16s %s\n", method, state)
	}
	return nil
}
