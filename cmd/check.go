package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speech-translation-service/internal/config"
	"speech-translation-service/internal/filter"
)

var checkCmd = &cobra.Command{
	Use:   "check [text...]",
	Short: "Run the hallucination filters over text",
	Long: `Classifies each line of text with the configured filters and prints the verdict.
Text is read from the arguments, or line by line from stdin when none are given.
With --transcript the transcript cleaner is applied instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		filterFile, _ := cmd.Flags().GetString("filter-config")
		if filterFile == "" {
			filterFile = cfg.Filter.ConfigFile
		}
		fc, err := filter.LoadConfig(filterFile)
		if err != nil {
			return err
		}

		sevFlag, _ := cmd.Flags().GetString("severity")
		if sevFlag == "" {
			sevFlag = cfg.Filter.Severity
		}
		if err := fc.OverrideSeverity(sevFlag); err != nil {
			return err
		}
		f := filter.New(fc)
		transcript, _ := cmd.Flags().GetBool("transcript")

		out := cmd.OutOrStdout()
		classify := func(text string) {
			if transcript {
				cleaned, v := f.CleanTranscript(text)
				fmt.Fprintf(out, "%s\t%q\n", v, cleaned)
				return
			}
			fmt.Fprintf(out, "%s\t%s\n", f.Check(text), text)
		}

		if len(args) > 0 {
			classify(strings.Join(args, " "))
			return nil
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				classify(line)
			}
		}
		return scanner.Err()
	},
}

func init() {
	checkCmd.Flags().String("filter-config", "", "Filter list file (defaults to FILTER_CONFIG_FILE)")
	checkCmd.Flags().String("severity", "", "lenient, standard or strict (defaults to FILTER_SEVERITY)")
	checkCmd.Flags().Bool("transcript", false, "Apply the transcript cleaner instead of the classifier")
}
