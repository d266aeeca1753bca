package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "vibebot"
)

type Config struct {
	Telegram      *TelegramConfig      `mapstructure:"telegram"`
	Recruiter     string               `mapstructure:"recruiter"`
	Candidates    []string             `mapstructure:"candidates"`
	Resources     *ResourcesConfig     `mapstructure:"resources"`
	Questionnaire *QuestionnaireConfig `mapstructure:"questionnaire"`
	AI            *AIConfig            `mapstructure:"ai"`
	Vaxta         *VaxtaConfig         `mapstructure:"vaxta"`
	Filtering     *FilteringConfig     `mapstructure:"filtering"`
	Results       *ResultsConfig       `mapstructure:"results"`
	Ops           *OpsConfig           `mapstructure:"ops"`
	Log           *LogConfig           `mapstructure:"log"`
}

type TelegramConfig struct {
	Token       string        `mapstructure:"token"`
	TokenFile   string        `mapstructure:"token-file"`
	APIURL      string        `mapstructure:"api-url"`
	PollTimeout time.Duration `mapstructure:"poll-timeout"`
}

type ResourcesConfig struct {
	Questions string `mapstructure:"questions"`
	Greetings string `mapstructure:"greetings"`
	Company   string `mapstructure:"company"`
}

type QuestionnaireConfig struct {
	Policy       string        `mapstructure:"policy"`
	JudgeTimeout time.Duration `mapstructure:"judge-timeout"`
	IdleTTL      time.Duration `mapstructure:"idle-ttl"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type VaxtaConfig struct {
	APIURL     string        `mapstructure:"api-url"`
	APIKey     string        `mapstructure:"api-key"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	PageSize   int           `mapstructure:"page-size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	TopN       int           `mapstructure:"top-n"`
}

type FilteringConfig struct {
	ExcludeFile string   `mapstructure:"exclude-file"`
	Companies   []string `mapstructure:"companies"`
}

type ResultsConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Dir     string       `mapstructure:"dir"`
	Redis   *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "vibebot interviews candidates in Telegram and picks vacancies for them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"telegram.token":         "TELEGRAM_BOT_TOKEN",
		"telegram.token-file":    "TELEGRAM_BOT_TOKEN_FILE",
		"recruiter":              "HR_ACCOUNT",
		"questionnaire.policy":   "VALIDATION_POLICY",
		"questionnaire.idle-ttl": "SESSION_IDLE_TTL",
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"vaxta.api-url":          "VACANCY_API_URL",
		"vaxta.api-key":          "VACANCY_API_KEY",
		"vaxta.api-key-file":     "VACANCY_API_KEY_FILE",
		"results.redis.address":  "REDIS_ADDR",
		"results.redis.password": "REDIS_PASSWORD",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is vibebot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("resources.questions", "resources/questions.yaml")
	viper.SetDefault("resources.greetings", "resources/greetings.yaml")
	viper.SetDefault("resources.company", "resources/company.yaml")
	viper.SetDefault("questionnaire.policy", "retry")
	viper.SetDefault("questionnaire.judge-timeout", 30*time.Second)
	viper.SetDefault("questionnaire.idle-ttl", 24*time.Hour)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 2000)
	viper.SetDefault("vaxta.timeout", 60*time.Second)
	viper.SetDefault("vaxta.top-n", 1)
	viper.SetDefault("results.enabled", true)
	viper.SetDefault("results.dir", "results")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	// Config is needed only by run and vacancies.
	if runCmd.CalledAs() == "" && vacanciesCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			log.Printf("no %s.yaml found, using defaults and environment", app)
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
