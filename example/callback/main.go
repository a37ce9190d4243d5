package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/AquaFlow/pkg/aquaflow"
)

func main() {
	b, err := aquaflow.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(batch []aquaflow.PipelineStatus) error {
		for _, st := range batch {
			fmt.Printf("%s pipeline=%s status=%s ratio=%.2f rate=%.1f pressure=%.1f\n",
				st.Timestamp.Format(time.RFC3339),
				st.PipelineID,
				st.Status,
				st.FlowRatio,
				st.FlowRate,
				st.Pressure,
			)
		}
		return nil
	}

	if err := b.Run(ctx, aquaflow.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
