package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

type categoryTable []domain.CategoryRecommendation

func (t categoryTable) TableHeaders() []string { return []string{"CATEGORY", "RECOMMENDATION"} }

func (t categoryTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{strconv.Itoa(int(r.Category)), r.Recommendation})
	}
	return rows
}

func (t categoryTable) String() string {
	return FormatTable(t.TableHeaders(), t.TableRows())
}

// NewCategoriesCmd creates `nodulectl categories`.
func NewCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List every follow-up category and its recommendation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, categoryTable(domain.Recommendations()))
		},
	}
}

// NewRecommendCmd creates `nodulectl recommend <category>`.
func NewRecommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "recommend <category>",
		Short:   "Print the recommendation for one category (0-8)",
		Example: "  nodulectl recommend 2",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := nodule.ParseCategory(args[0])
			if err != nil {
				return errors.New(errors.ErrCodeCategoryOutOfRange, err.Error())
			}
			text, err := domain.Recommendation(c)
			if err != nil {
				return err
			}
			cliCtx, ctxErr := GetCLIContext(cmd)
			if ctxErr == nil && cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, domain.CategoryRecommendation{Category: c, Recommendation: text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

//Personal.AI order the ending
