package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"
	"github.com/BeliaevAndrey/vibeBot/internal/filtering"
	"github.com/BeliaevAndrey/vibeBot/internal/logger"
	"github.com/BeliaevAndrey/vibeBot/internal/report"
	"github.com/BeliaevAndrey/vibeBot/internal/vaxta"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptDone             = "Готово"
	defaultVacanciesOutput = "vacancy_results/results.json"
	excludeReason          = "excluded from the vacancies command"
)

var vacanciesCmd = &cobra.Command{
	Use:   "vacancies",
	Short: "Download job offerings with a filter and dump them to a file",
	Run: func(cmd *cobra.Command, _ []string) {
		vacancies(cmd)
	},
}

func init() {
	rootCmd.AddCommand(vacanciesCmd)

	vacanciesCmd.Flags().String("filter-json", "", "filter in the platform query format. Interactive prompts are used when unset.")
	vacanciesCmd.Flags().Int("limit", 10, "how many offerings to print")
	vacanciesCmd.Flags().Bool("no-print", false, "do not print offerings, only save them to the file")
	vacanciesCmd.Flags().StringP("output", "o", defaultVacanciesOutput, "file to dump enriched offerings to")
	vacanciesCmd.Flags().Bool("append-exclude", false, "append every found offering to the exclude file")
	vacanciesCmd.Flags().StringP("exclude-file", "e", "", "special file with offerings to exclude. Default is unset.")

	viper.BindPFlag("filtering.exclude-file", vacanciesCmd.Flags().Lookup("exclude-file"))
}

func vacancies(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	client := newVaxtaClient(config.Vaxta, logger)
	if client == nil {
		logger.Fatal("vacancy api is not configured",
			zap.String("hint", "set VACANCY_API_KEY or the 'vaxta.api-key-file' key in the configuration file"),
		)
	}

	places, err := client.Places(ctx)
	if err != nil {
		logger.Fatal("getting places", zap.Error(err))
	}
	regions := dictionary.NewRegions(places)
	logger.Info("got places", zap.Int("count", regions.Len()))

	var found *vaxta.Offerings
	if raw := cmd.Flag("filter-json").Value.String(); raw != "" {
		found, err = client.OfferingsByQuery(ctx, raw)
	} else {
		fields, perr := chooseFields(regions)
		if perr != nil {
			logger.Fatal("exiting", zap.Error(perr))
		}
		var filter *vaxta.Filter
		if len(fields) > 0 {
			compiled := vaxta.Compile(fields)
			filter = &compiled
		}
		found, err = client.Offerings(ctx, filter)
	}
	if err != nil {
		logger.Fatal("getting offerings", zap.Error(err))
	}

	offerings := report.Enrich(found.Items, regions, logger)

	offerings, err = filtering.Run(ctx, logger, prepareFilters(config.Filtering, logger), offerings)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if noPrint, _ := cmd.Flags().GetBool("no-print"); !noPrint && len(offerings) > 0 {
		limit, _ := cmd.Flags().GetInt("limit")
		fmt.Println(report.FormatTop(offerings, limit))
	}

	output := cmd.Flag("output").Value.String()
	if err := dumpOfferings(output, offerings); err != nil {
		logger.Fatal("dumping offerings", zap.Error(err))
	}

	logger.Info("offerings saved",
		zap.Int("count", len(offerings)),
		zap.Int("total", found.Total),
		zap.String("filename", output),
	)

	if appendExclude, _ := cmd.Flags().GetBool("append-exclude"); appendExclude {
		excludeFile := viper.GetString("filtering.exclude-file")
		if excludeFile == "" {
			logger.Fatal("exclude file is not configured", zap.String("hint", "pass --exclude-file"))
		}
		added, err := filtering.AppendToFile(excludeFile, offerings, excludeReason)
		if err != nil {
			logger.Fatal("appending to exclude file", zap.Error(err))
		}
		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("added", added))
	}
}

func dumpOfferings(path string, offerings []*report.Offering) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if offerings == nil {
		offerings = []*report.Offering{}
	}

	data, err := json.MarshalIndent(offerings, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// chooseFields asks for filter values until the user picks PromptDone.
func chooseFields(regions *dictionary.Regions) (vaxta.Fields, error) {
	fields := vaxta.Fields{}

	items := make([]string, 0, len(vaxta.FieldOrder)+1)
	for _, key := range vaxta.FieldOrder {
		items = append(items, vaxta.FieldLabels[key])
	}
	items = append(items, PromptDone)

	for {
		fieldPrompt := promptui.Select{
			Label: "Выберите фильтр",
			Items: items,
		}

		idx, choice, err := fieldPrompt.Run()
		if err != nil {
			return nil, err
		}
		if choice == PromptDone {
			return fields, nil
		}

		key := vaxta.FieldOrder[idx]
		var value any
		switch key {
		case vaxta.FieldAge:
			value, err = promptAge()
		case vaxta.FieldGender:
			value, err = promptCode(dictionary.Gender, choice)
		case vaxta.FieldCategory:
			value, err = promptCode(dictionary.Category, choice)
		case vaxta.FieldNationality:
			value, err = promptCode(dictionary.Nationality, choice)
		case vaxta.FieldRate:
			value, err = promptCode(dictionary.Rate, choice)
		case vaxta.FieldRegion:
			value, err = promptRegion(regions)
		}
		if err != nil {
			return nil, err
		}
		fields[key] = value
	}
}

func promptAge() (int, error) {
	agePrompt := promptui.Prompt{
		Label: "Возраст",
		Validate: func(input string) error {
			age, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil || age <= 0 {
				return errors.New("введите положительное число")
			}
			return nil
		},
	}

	input, err := agePrompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(input))
}

func promptCode(d *dictionary.Dictionary, label string) ([]string, error) {
	entries := d.Entries()
	labels := make([]string, 0, len(entries))
	for _, e := range entries {
		labels = append(labels, e.Label)
	}

	codePrompt := promptui.Select{
		Label: label,
		Items: labels,
		Size:  10,
	}

	idx, _, err := codePrompt.Run()
	if err != nil {
		return nil, err
	}
	return []string{entries[idx].Code}, nil
}

func promptRegion(regions *dictionary.Regions) (int, error) {
	places := regions.Places()
	if len(places) == 0 {
		return 0, errors.New("no places known to the platform")
	}

	names := make([]string, 0, len(places))
	for _, p := range places {
		names = append(names, p.Name)
	}

	regionPrompt := promptui.Select{
		Label: "Область",
		Items: names,
		Size:  15,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(names[index]), strings.ToLower(strings.TrimSpace(input)))
		},
	}

	idx, _, err := regionPrompt.Run()
	if err != nil {
		return 0, err
	}
	return places[idx].ID, nil
}
