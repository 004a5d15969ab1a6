package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/generation"
)

var promptCmd = &cobra.Command{
	Use:   "prompt TOPIC",
	Short: "Print the instruction that would be sent to the model",
	Long:  "Render the generation prompt for a topic without calling any backend. Useful when editing a custom prompt template.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

var (
	promptAgeGroup     string
	promptCourseLength string
	promptTemplatePath string
)

func init() {
	promptCmd.Flags().StringVarP(&promptAgeGroup, "age", "a", string(domain.AgeGroup8To10), "Age group: 5-7, 8-10 or 11-12")
	promptCmd.Flags().StringVarP(&promptCourseLength, "length", "l", string(domain.CourseLengthQuick), "Course length: quick, standard or deep")
	promptCmd.Flags().StringVarP(&promptTemplatePath, "template", "t", "", "Prompt template file (defaults to the built-in template)")

	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ageGroup, err := domain.ParseAgeGroup(promptAgeGroup)
	if err != nil {
		return err
	}
	length, err := domain.ParseCourseLength(promptCourseLength)
	if err != nil {
		return err
	}
	req, err := domain.NewGenerationRequest(args[0], ageGroup, length)
	if err != nil {
		return err
	}

	builder, err := generation.NewPromptBuilder(promptTemplatePath)
	if err != nil {
		return err
	}
	prompt, err := builder.Build(req)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), prompt.Text)
	return err
}
