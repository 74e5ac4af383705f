package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
	"github.com/septivank/rnsync-vitals/internal/mq"
	"github.com/septivank/rnsync-vitals/internal/validator"
)

type sampleMetric struct {
	name  string
	unit  string
	base  float64
	swing float64
}

var sampleMetrics = []sampleMetric{
	{name: "heart_rate", unit: "bpm", base: 72, swing: 18},
	{name: "spo2", unit: "%", base: 95, swing: 4},
	{name: "temperature", unit: "C", base: 36.6, swing: 1.4},
	{name: "resp_rate", unit: "/min", base: 14, swing: 6},
}

// sampleReading returns the i-th simulated reading for patientID
func sampleReading(patientID string, i int, at time.Time) validator.IngestMessage {
	m := sampleMetrics[i%len(sampleMetrics)]
	step := float64((i/len(sampleMetrics))%5) / 4
	value := m.base + m.swing*step

	return validator.IngestMessage{
		PatientID: patientID,
		Metric:    m.name,
		Value:     &value,
		Unit:      m.unit,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func simulateCmd() *cobra.Command {
	var (
		patientID string
		count     int
		interval  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Publish sample vital readings to the RabbitMQ ingest exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Read()
			if !cfg.RabbitMQ.Enabled() {
				return fmt.Errorf("RABBITMQ_URL is required to simulate readings")
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			conn, err := mq.Dial(cfg.RabbitMQ.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			publisher, err := mq.NewPublisher(conn, cfg.RabbitMQ.IngestExchange, cfg.RabbitMQ.IngestRoutingKey, logger)
			if err != nil {
				return err
			}
			defer publisher.Close()

			ctx := cmd.Context()
			for i := 0; i < count; i++ {
				msg := sampleReading(patientID, i, time.Now())
				if err := publisher.PublishJSON(ctx, cfg.RabbitMQ.IngestRoutingKey, msg); err != nil {
					return err
				}
				logger.Info("published sample reading",
					zap.Int("n", i+1),
					zap.String("metric", msg.Metric),
					zap.Float64("value", *msg.Value),
				)

				if interval > 0 && i < count-1 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(interval):
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&patientID, "patient", "", "patient id the readings belong to")
	cmd.Flags().IntVar(&count, "count", 10, "number of readings to publish")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between readings")
	cmd.MarkFlagRequired("patient")

	return cmd
}
