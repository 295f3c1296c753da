// Command careerforge-jobctl is a small developer tool that creates a job
// directly in the Job Store and enqueues it for the orchestrator to pick up,
// standing in for the (out-of-scope, contract-only) HTTP API during local
// development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/bobmcallan/careerforge/internal/common"
	"github.com/bobmcallan/careerforge/internal/models"
	"github.com/bobmcallan/careerforge/internal/queue/redis"
	"github.com/bobmcallan/careerforge/internal/store/surrealdb"
)

func main() {
	configPath := os.Getenv("CAREERFORGE_CONFIG")
	kind := flag.String("kind", "cv_parse", "job kind (cv_parse, job_parse, gap_analysis, cv_rewrite, interview_prep, get_analytics, full_analysis)")
	owner := flag.String("owner", "jobctl", "owning user id")
	inputPath := flag.String("input", "", "path to a JSON file holding the job's input envelope (defaults to stdin)")
	flag.Parse()

	if !models.KnownKind(models.JobKind(*kind)) {
		fmt.Fprintf(os.Stderr, "unknown job kind %q\n", *kind)
		os.Exit(1)
	}

	var raw []byte
	var err error
	if *inputPath != "" {
		raw, err = os.ReadFile(*inputPath)
	} else {
		raw, err = readStdin()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		os.Exit(1)
	}
	if !json.Valid(raw) {
		fmt.Fprintf(os.Stderr, "input is not valid JSON\n")
		os.Exit(1)
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewSilentLogger()
	ctx := context.Background()

	store, err := surrealdb.New(ctx, &config.Store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to job store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	queue, err := redis.New(ctx, &config.Queue, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to work queue: %v\n", err)
		os.Exit(1)
	}
	defer queue.Close()

	id, err := store.Create(ctx, *owner, models.JobKind(*kind), json.RawMessage(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create job: %v\n", err)
		os.Exit(1)
	}

	if err := queue.Enqueue(ctx, models.QueueMessage{JobID: id, Owner: *owner, Kind: models.JobKind(*kind)}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to enqueue job %s: %v\n", id, err)
		os.Exit(1)
	}

	fmt.Println(id)
}

func readStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return []byte("{}"), nil
	}
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}
