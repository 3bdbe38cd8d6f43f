package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/subscription-sales/internal/confirmation"
	confirmationPostgres "github.com/frahmantamala/subscription-sales/internal/confirmation/postgres"
	"github.com/frahmantamala/subscription-sales/internal/notify/kafka"
	"github.com/frahmantamala/subscription-sales/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background worker pools such as purchase confirmation delivery.`,
}

var confirmationWorkerCmd = &cobra.Command{
	Use:   "confirmations",
	Short: "Start purchase confirmation dispatcher",
	Long:  `Poll pending purchase confirmations and deliver them to the confirmation email topic`,
	Run: func(cmd *cobra.Command, args []string) {
		startConfirmationWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	batchSize    int
	pollInterval time.Duration
)

func startConfirmationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.LoggerWrapper()

	if len(config.Kafka.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, "kafka.brokers is required to deliver confirmations")
		os.Exit(1)
	}

	db, query, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer query.Close()

	producer, err := kafka.NewSyncProducer(config.Kafka.Brokers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to kafka: %v\n", err)
		os.Exit(1)
	}
	publisher := kafka.NewPublisher(producer, config.Kafka.TopicPrefix, log)
	defer publisher.Close()

	// Use command line flags if provided, otherwise use config values
	dispatcherConfig := confirmation.Config{
		MaxWorkers:   getIntFlag(maxWorkers, config.Confirmation.MaxWorkers),
		JobQueueSize: getIntFlag(jobQueueSize, config.Confirmation.JobQueueSize),
		BatchSize:    getIntFlag(batchSize, config.Confirmation.BatchSize),
		PollInterval: getDurationFlag(pollInterval, config.Confirmation.PollInterval),
	}

	log.Info("starting confirmation worker",
		"max_workers", dispatcherConfig.MaxWorkers,
		"job_queue_size", dispatcherConfig.JobQueueSize,
		"batch_size", dispatcherConfig.BatchSize,
		"poll_interval", dispatcherConfig.PollInterval,
		"topic", publisher.Topic(kafka.ConfirmationTopic))

	dispatcher := confirmation.NewDispatcher(
		confirmationPostgres.NewConfirmationRepository(db),
		publisher,
		dispatcherConfig,
		log,
	)
	dispatcher.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("confirmation worker is running. Press Ctrl+C to stop.")

	// wait for shutdown signal
	sig := <-sigChan
	log.Info("received signal, shutting down confirmation worker", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		log.Info("confirmation worker pool shutdown complete")
	case <-ctx.Done():
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	confirmationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	confirmationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	confirmationWorkerCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Pending confirmations read per poll (overrides config)")
	confirmationWorkerCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Delay between polls (overrides config)")

	workerCmd.AddCommand(confirmationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
