package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"gridbot/internal/backend"
	"gridbot/internal/config"
	"gridbot/internal/dialogue"
	"gridbot/internal/freshness"
	"gridbot/internal/llm"
	"gridbot/internal/logger"
	"gridbot/internal/metrics"
	"gridbot/internal/nlu"
	"gridbot/internal/storage"
)

type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	metrics    *metrics.Metrics
	store      *backend.Elastic
	recorder   storage.Recorder
	dispatcher *dialogue.Dispatcher
	recognizer nlu.Recognizer
}

// wireApp builds everything a channel needs. Logs go to logOut so the MCP
// transport can keep stdout to itself.
func wireApp(envFile string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: logOut})
	m := metrics.New()

	es, err := backend.NewElastic(backend.Config{
		Addresses: cfg.ESHosts,
		Username:  cfg.ESUsername,
		Password:  cfg.ESPassword,
		APIKey:    cfg.ESAPIKey,
	}, m, log)
	if err != nil {
		return nil, err
	}

	catalogue, err := config.LoadCatalogue(cfg.StreamCataloguePath)
	if err != nil {
		return nil, err
	}
	detector := freshness.NewDetector(es, catalogue)

	var rec storage.Recorder = storage.Discard{}
	if cfg.TurnLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.TurnLogPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.TurnLogPath).Msg("failed to init turn log, turns will not be recorded")
		} else {
			rec = fr
		}
	}

	seed := cfg.SuggestionSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	d := dialogue.NewDispatcher(es, detector,
		dialogue.WithLogger(logger.Component(log, "dialogue")),
		dialogue.WithObserver(m),
		dialogue.WithRecorder(rec),
		dialogue.WithSuggester(dialogue.NewSuggester(seed)),
		dialogue.WithDefaultWindows(cfg.JobsDefaultWindow, cfg.TasksDefaultWindow),
	)

	recognizers := []nlu.Recognizer{nlu.Keywords{}}
	client, err := llm.NewFactory(cfg).CreateClient(cfg.NLUProvider)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	if client != nil {
		recognizers = append(recognizers, nlu.NewLLM(client))
	}

	return &app{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		store:      es,
		recorder:   rec,
		dispatcher: d,
		recognizer: nlu.NewChain(logger.Component(log, "nlu"), recognizers...),
	}, nil
}
