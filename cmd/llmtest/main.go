// Command llmtest runs utterances through the configured language model and
// prints the extracted booking slots, for checking providers and prompts.
//
//	go run ./cmd/llmtest "pick me up from JLT tomorrow at 7" "two bags"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/starskyline/bareerah/cmd/mainconfig"
	appconfig "github.com/starskyline/bareerah/internal/config"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/location"
	"github.com/starskyline/bareerah/internal/nlu"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

func main() {
	step := flag.String("step", string(session.StepDropoff), "flow step the utterance answers")
	lang := flag.String("lang", "en", "conversation language (en, ur, ar)")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	utterances := flag.Args()
	if len(utterances) == 0 {
		utterances = []string{"I need a car from Dubai Marina to DXB Terminal 3 tomorrow at 6 in the morning"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aws config: %v\n", err)
		os.Exit(1)
	}
	client, err := mainconfig.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "llm client: %v\n", err)
		os.Exit(1)
	}
	if client == nil {
		fmt.Println("No language model configured; results come from the gazetteer fallback.")
	}

	extractor := nlu.NewExtractor(client, location.DefaultGazetteer(), nlu.Config{
		Timeout:     cfg.NLUTimeout,
		CompanyName: cfg.CompanyName,
	}, nil, logger)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, u := range utterances {
		start := time.Now()
		res := extractor.Extract(ctx, nlu.Request{
			Utterance: u,
			FlowStep:  session.Step(*step),
			Language:  lexicon.ParseLanguage(*lang),
		})
		fmt.Printf("\n> %s (%v)\n", u, time.Since(start).Round(time.Millisecond))
		_ = enc.Encode(res)
	}
}
