// Command bpcli is a terminal front end for the blood-pressure journal:
// it lists readings with their classification, shows the aggregate stats,
// and can submit or delete a reading.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/vpetrenko/bp-journal/internal/buildinfo"
	"github.com/vpetrenko/bp-journal/internal/client"
	"github.com/vpetrenko/bp-journal/internal/config"
	"github.com/vpetrenko/bp-journal/internal/coordinator"
	"github.com/vpetrenko/bp-journal/model"
)

func main() {
	buildinfo.PrintBuildInfo()

	var submitArg string
	var deleteID int64
	flag.StringVar(&submitArg, "submit", "", `submit three measurements: "sys/dia/pulse,sys/dia/pulse,sys/dia/pulse"`)
	flag.Int64Var(&deleteID, "delete", 0, "delete the reading with the given id")
	cfg := config.NewClientConfig() // parses the flags registered above too

	if err := run(cfg, submitArg, deleteID); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.ClientConfig, submitArg string, deleteID int64) error {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer func() { _ = logger.Sync() }()

	clnt, err := client.NewClient(cfg)
	if err != nil {
		return err
	}
	coord := coordinator.New(clnt, logger)
	ctx := context.Background()

	switch {
	case submitArg != "":
		in, err := parseSubmitArg(submitArg)
		if err != nil {
			return err
		}
		if err := coord.Submit(ctx, in); err != nil {
			return err
		}
	case deleteID != 0:
		if err := coord.LoadAll(ctx); err != nil {
			return err
		}
		if err := coord.Delete(ctx, deleteID); err != nil {
			return err
		}
	default:
		if err := coord.LoadAll(ctx); err != nil {
			return err
		}
	}

	printSnapshot(coord.Snapshot())
	return nil
}

// parseSubmitArg splits "120/80/70,125/82/72,118/78/68" into the nine
// whole-number fields of a ReadingInput.
func parseSubmitArg(s string) (model.ReadingInput, error) {
	triplets := strings.Split(s, ",")
	if len(triplets) != 3 {
		return model.ReadingInput{}, fmt.Errorf("expected three sys/dia/pulse triplets, got %d", len(triplets))
	}
	var fields [9]string
	for i, t := range triplets {
		parts := strings.Split(strings.TrimSpace(t), "/")
		if len(parts) != 3 {
			return model.ReadingInput{}, fmt.Errorf("triplet %d: expected sys/dia/pulse", i+1)
		}
		copy(fields[i*3:], parts)
	}
	return model.ParseReadingInput(fields)
}

var tierColors = map[model.Tier]string{
	model.TierNormal:   "\x1b[32m",
	model.TierElevated: "\x1b[33m",
	model.TierStage1:   "\x1b[93m",
	model.TierStage2:   "\x1b[31m",
	model.TierCrisis:   "\x1b[91m",
}

const colorReset = "\x1b[0m"

func printSnapshot(s coordinator.Snapshot) {
	fmt.Printf("%-6s %-17s %5s %5s %6s  %s\n", "ID", "TIME", "SYS", "DIA", "PULSE", "CLASS")
	for _, r := range s.Readings {
		color := tierColors[model.TierFor(r.Classification)]
		reset := colorReset
		if color == "" {
			reset = "" // unknown labels get the neutral treatment
		}
		fmt.Printf("%-6d %-17s %5d %5d %6d  %s%s%s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"),
			r.Systolic, r.Diastolic, r.Pulse,
			color, r.Classification, reset)
	}

	if s.Stats == nil {
		return
	}
	fmt.Println()
	if lr := s.Stats.LastReading; lr != nil {
		fmt.Printf("last:     %d/%d pulse %d (%s)\n", lr.Systolic, lr.Diastolic, lr.Pulse, lr.Classification)
	}
	printWindow("7 days", s.Stats.Avg7Days, s.Stats.Count7Days)
	printWindow("30 days", s.Stats.Avg30Days, s.Stats.Count30Days)
	printWindow("all", s.Stats.AvgAllTime, s.Stats.CountAllTime)
	if s.LastError != "" {
		fmt.Printf("error:    %s\n", s.LastError)
	}
}

func printWindow(name string, avg *model.Reading, count int) {
	if avg == nil {
		fmt.Printf("%-9s no readings\n", name+":")
		return
	}
	fmt.Printf("%-9s %d/%d pulse %d over %d reading(s)\n",
		name+":", avg.Systolic, avg.Diastolic, avg.Pulse, count)
}
