package main

import (
	"fmt"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/history"
	"maintenance_backend/internal/scheduler"
	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders"
	"maintenance_backend/platform/db"
	"maintenance_backend/platform/validator"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one lead-time activation sweep now",
	Long:  `Promotes every scheduled work order whose activation date has been reached to the backlog.`,
	RunE:  runSweep,
}

var enqueueSweepCmd = &cobra.Command{
	Use:   "enqueue-sweep",
	Short: "Queue an activation sweep for the scheduler worker",
	RunE:  runEnqueueSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	history.NewModule(pool, val, eventBus, log)
	svc := workorders.NewModule(pool, val, users.NewContextProvider(nil, log), eventBus, nil, log).Service

	result, err := svc.ActivateDue(ctx)
	eventBus.Wait()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "examined %d, promoted %d, failed %d\n", result.Examined, len(result.Promoted), len(result.Failed))
	for _, msg := range result.Errors {
		fmt.Fprintln(out, "  "+msg)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d work orders could not be activated", len(result.Failed))
	}
	return nil
}

func runEnqueueSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := scheduler.NewClient(cfg, "cli")
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.EnqueueActivationSweep(cmd.Context()); err != nil {
		return fmt.Errorf("failed to enqueue sweep: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "activation sweep queued")
	return nil
}
