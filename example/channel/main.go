package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/AquaFlow"
)

func main() {
	b, err := aquaflow.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, rounds, closeRounds := aquaflow.NewChannelSink("dry-alerts", 32)
	defer closeRounds()

	go dryAlerts(rounds)

	if err := b.Run(ctx, aquaflow.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

// dryAlerts reports pipelines that stopped carrying water between rounds.
func dryAlerts(rounds <-chan []aquaflow.PipelineStatus) {
	flowing := map[string]bool{}
	for round := range rounds {
		for _, st := range round {
			if was, seen := flowing[st.PipelineID]; seen && was && !st.FlowActive {
				fmt.Printf("[%s] pipeline %s ran dry\n", time.Now().Format(time.RFC3339), st.PipelineID)
			}
			flowing[st.PipelineID] = st.FlowActive
		}
	}
}
