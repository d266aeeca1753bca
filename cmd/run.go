package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/ai/gemini"
	"github.com/BeliaevAndrey/vibeBot/internal/filtering"
	"github.com/BeliaevAndrey/vibeBot/internal/intake"
	"github.com/BeliaevAndrey/vibeBot/internal/logger"
	"github.com/BeliaevAndrey/vibeBot/internal/metrics"
	"github.com/BeliaevAndrey/vibeBot/internal/ops"
	"github.com/BeliaevAndrey/vibeBot/internal/questionnaire"
	"github.com/BeliaevAndrey/vibeBot/internal/secrets"
	"github.com/BeliaevAndrey/vibeBot/internal/storage"
	"github.com/BeliaevAndrey/vibeBot/internal/telegram"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot: interview candidates and deliver results to the recruiter",
	Run: func(_ *cobra.Command, _ []string) {
		run()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("recruiter", "r", "", "chat id or @channel of the recruiter receiving results")
	runCmd.Flags().String("policy", "", "answer validation policy: retry or early-exit")
	runCmd.Flags().String("ops-addr", "", "listen address of the health and metrics endpoint. Default is unset.")

	viper.BindPFlag("recruiter", runCmd.Flags().Lookup("recruiter"))
	viper.BindPFlag("questionnaire.policy", runCmd.Flags().Lookup("policy"))
	viper.BindPFlag("ops.addr", runCmd.Flags().Lookup("ops-addr"))
}

func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}
	if config == nil {
		log.Fatal("config is required")
	}

	logFile := ""
	if config.Log != nil {
		logFile = config.Log.File
	}

	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  logFile,
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	logger.Info("starting the vibebot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	judge, err := newJudge(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building the answer judge", zap.Error(err))
	}

	engine, greeter := prepareQuestionnaire(config, judge, logger)

	sink, closeSink := prepareSink(ctx, config.Results, logger)
	defer closeSink()

	bot, err := newBot(ctx, config.Telegram, logger)
	if err != nil {
		logger.Fatal("connecting to telegram",
			zap.Error(err),
			zap.String("hint", "set TELEGRAM_BOT_TOKEN or the 'telegram.token-file' key in the configuration file"),
		)
	}

	counters := metrics.New()

	deps := intake.Deps{
		Engine:    engine,
		Greeter:   greeter,
		Messenger: bot,
		Extractor: judge,
		Filters:   prepareFilters(config.Filtering, logger),
		Sink:      sink,
		Metrics:   counters,
		Logger:    logger,
	}

	topN, callTimeout := 0, time.Duration(0)
	if client := newVaxtaClient(config.Vaxta, logger); client != nil {
		deps.Jobs = client
		topN = config.Vaxta.TopN
		callTimeout = config.Vaxta.Timeout
	}

	if strings.TrimSpace(config.Recruiter) == "" {
		logger.Warn("recruiter is not configured, results will only be stored",
			zap.String("hint", "set HR_ACCOUNT or the 'recruiter' key in the configuration file"),
		)
	}

	orchestrator, err := intake.New(intake.Config{
		Recruiter:   config.Recruiter,
		Candidates:  config.Candidates,
		TopN:        topN,
		CallTimeout: callTimeout,
	}, deps)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}

	var wg sync.WaitGroup

	if config.Ops != nil && config.Ops.Addr != "" {
		server := ops.NewServer(config.Ops.Addr, counters, engine, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Run(ctx); err != nil {
				logger.Error("ops server stopped", zap.Error(err))
			}
		}()
	}

	idleTTL := config.Questionnaire.IdleTTL
	if idleTTL > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweep(ctx, orchestrator, idleTTL, logger)
		}()
	}

	logger.Info("polling telegram updates",
		zap.String("policy", string(engine.Policy())),
		zap.Int("candidates_allowed", len(config.Candidates)),
	)

	err = bot.Poll(ctx, func(ctx context.Context, u telegram.Update) {
		if !u.IsPrivate() {
			return
		}
		msg := intake.Inbound{
			SenderID: u.Message.Chat.ChatID(),
			Handle:   u.Message.From.Username,
			Text:     u.Message.Text,
		}
		if err := orchestrator.HandleMessage(ctx, msg); err != nil {
			logger.Warn("handling message failed",
				zap.String("candidate_id", msg.SenderID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		logger.Error("polling stopped", zap.Error(err))
	}

	wg.Wait()
	logger.Info("vibebot stopped", zap.Int("sessions_left", engine.Len()))
}

func sweep(ctx context.Context, orchestrator *intake.Orchestrator, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := orchestrator.Sweep(ctx, ttl); n > 0 {
				logger.Info("idle sessions finalized", zap.Int("count", n), zap.Duration("ttl", ttl))
			}
		}
	}
}

func prepareQuestionnaire(config *Config, judge questionnaire.Judge, logger *zap.Logger) (*questionnaire.Engine, *questionnaire.Greeter) {
	if config.Resources == nil {
		logger.Fatal("resources section is required")
	}
	if config.Questionnaire == nil {
		config.Questionnaire = &QuestionnaireConfig{}
	}

	questions, err := questionnaire.LoadQuestions(config.Resources.Questions)
	if err != nil {
		logger.Fatal("loading questions", zap.Error(err), zap.String("path", config.Resources.Questions))
	}
	if len(questions) == 0 {
		logger.Warn("question set is empty, sessions will complete right after agreement")
	}

	greetings, err := questionnaire.LoadGreetings(config.Resources.Greetings)
	if err != nil {
		logger.Fatal("loading greetings", zap.Error(err), zap.String("path", config.Resources.Greetings))
	}

	company, err := questionnaire.LoadCompany(config.Resources.Company)
	if err != nil {
		logger.Fatal("loading company data", zap.Error(err), zap.String("path", config.Resources.Company))
	}

	greeter, err := questionnaire.NewGreeter(greetings, company)
	if err != nil {
		logger.Fatal("building greeter", zap.Error(err))
	}

	engine, err := questionnaire.NewEngine(questionnaire.Config{
		Policy:       questionnaire.Policy(config.Questionnaire.Policy),
		JudgeTimeout: config.Questionnaire.JudgeTimeout,
	}, questions, judge, questionnaire.NewStore(), logger)
	if err != nil {
		logger.Fatal("building questionnaire engine", zap.Error(err))
	}

	logger.Info("questionnaire loaded",
		zap.Int("questions", len(questions)),
		zap.Int("greetings", len(greetings)),
		zap.String("company", company.Company),
	)

	return engine, greeter
}

func newJudge(ctx context.Context, cfg *AIConfig, base *zap.Logger) (*gemini.Judge, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := logger.WithFields(base, logger.CommonFields("gemini", cfg.Gemini.Model)...).With(
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewJudge(generator, cfg.Gemini.MaxLogLength, genLogger), nil
}

func newBot(ctx context.Context, cfg *TelegramConfig, logger *zap.Logger) (*telegram.Bot, error) {
	if cfg == nil {
		cfg = &TelegramConfig{}
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "telegram bot token",
		Value: cfg.Token,
		File:  cfg.TokenFile,
		Env:   "TELEGRAM_BOT_TOKEN",
	})
	if err != nil {
		return nil, err
	}

	bot, err := telegram.New(token, logger)
	if err != nil {
		return nil, err
	}
	if cfg.APIURL != "" {
		bot.APIURL = cfg.APIURL
	}
	bot.SetPollTimeout(cfg.PollTimeout)

	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to telegram", zap.String("bot", "@"+me.Username))

	return bot, nil
}

// newVaxtaClient returns nil when no api key is configured; the bot then runs
// without the vacancy search.
func newVaxtaClient(cfg *VaxtaConfig, logger *zap.Logger) *vaxta.Client {
	if cfg == nil {
		logger.Warn("vacancy search disabled", zap.Error(vaxta.ErrNoAPIKey))
		return nil
	}

	token, err := secrets.Load(secrets.Source{
		Name:  "vacancy api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   "VACANCY_API_KEY",
	})
	if err != nil {
		logger.Warn("vacancy search disabled", zap.Error(err))
		return nil
	}

	client := vaxta.New(logger, token)
	if cfg.APIURL != "" {
		client.APIURL = cfg.APIURL
	}
	if cfg.PageSize > 0 {
		client.PageSize = cfg.PageSize
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return client
}

func prepareFilters(cfg *FilteringConfig, logger *zap.Logger) []filtering.Filter {
	if cfg == nil {
		cfg = &FilteringConfig{}
	}

	steps := []filtering.Filter{
		filtering.NewExcludeFile(cfg.ExcludeFile, logger),
		filtering.NewExcludedCompanies(cfg.Companies, logger),
	}
	if len(cfg.Companies) == 0 {
		filtering.DisableByName(steps, "companies", "no companies configured")
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("offering filter",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
		)
	}
	return steps
}

// prepareSink builds the result sinks. The returned func releases them.
func prepareSink(ctx context.Context, cfg *ResultsConfig, logger *zap.Logger) (storage.Sink, func()) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("result persistence disabled")
		return storage.Nop{}, func() {}
	}

	var sinks storage.Multi
	closers := []func(){}

	files, err := storage.NewFileSink(cfg.Dir, logger)
	if err != nil {
		logger.Fatal("preparing results directory", zap.Error(err), zap.String("dir", cfg.Dir))
	}
	sinks = append(sinks, files)

	if cfg.Redis != nil && cfg.Redis.Address != "" {
		redisSink, err := storage.NewRedisSink(ctx, storage.RedisOptions{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		}, logger)
		if err != nil {
			logger.Warn("redis result sink disabled", zap.Error(err), zap.String("address", cfg.Redis.Address))
		} else {
			sinks = append(sinks, redisSink)
			closers = append(closers, func() {
				if err := redisSink.Close(); err != nil {
					logger.Warn("closing redis client", zap.Error(err))
				}
			})
		}
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// redacted returns a copy of config safe for logging.
func redacted(config *Config) Config {
	c := *config
	if c.Telegram != nil && c.Telegram.Token != "" {
		t := *c.Telegram
		t.Token = "***"
		c.Telegram = &t
	}
	if c.AI != nil && c.AI.Gemini != nil && c.AI.Gemini.APIKey != "" {
		ai := *c.AI
		g := *ai.Gemini
		g.APIKey = "***"
		ai.Gemini = &g
		c.AI = &ai
	}
	if c.Vaxta != nil && c.Vaxta.APIKey != "" {
		v := *c.Vaxta
		v.APIKey = "***"
		c.Vaxta = &v
	}
	if c.Results != nil && c.Results.Redis != nil && c.Results.Redis.Password != "" {
		r := *c.Results
		redis := *r.Redis
		redis.Password = "***"
		r.Redis = &redis
		c.Results = &r
	}
	return c
}
