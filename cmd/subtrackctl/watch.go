package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subtrack/internal/amqp"
	"subtrack/internal/log"
)

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change events published by the server",
		Long: `Consume the change-event queue and print one line per event until
interrupted. Requires AMQP_URL. Events are acknowledged once printed.`,
		GroupID: "system",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rt.loadConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is not set")
			}
			queue := cfg.AMQPRoutingKey
			client, err := amqp.NewClient(cmd.Context(), cfg.AMQPURL, cfg.AMQPExchange, queue)
			if err != nil {
				return err
			}
			defer client.Close()

			rt.logger.Info("Watching change events", "queue", queue, log.FieldOperation, "watch")
			err = client.Consume(cmd.Context(), func(e *amqp.SubscriptionEvent) error {
				printEvent(rt, e)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printEvent(rt *runtime, e *amqp.SubscriptionEvent) {
	id := e.ID
	if id == "" {
		id = "-"
	}
	fmt.Fprintf(rt.out, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Type, id)
}
