package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/NoduleAdvisor/internal/application/followup"
	"github.com/turtacn/NoduleAdvisor/pkg/client"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

// maxStdinBytes bounds what classify reads from a pipe.
const maxStdinBytes = 1 << 20

// Classifier turns one sentence into a Result, locally or through the API.
type Classifier interface {
	Classify(ctx context.Context, text string) (nodule.Result, error)
}

type localClassifier struct {
	svc *followup.Service
}

func (l localClassifier) Classify(ctx context.Context, text string) (nodule.Result, error) {
	out, err := l.svc.Classify(ctx, text)
	if err != nil {
		return nodule.Result{}, err
	}
	return out.Result, nil
}

type remoteClassifier struct {
	api *client.NodulesClient
}

// Classify maps API rejections back to the local error codes so exit
// statuses match local mode.
func (r remoteClassifier) Classify(ctx context.Context, text string) (nodule.Result, error) {
	out, err := r.api.Classify(ctx, text)
	if err != nil {
		var apiErr *client.APIError
		if stderrors.As(err, &apiErr) && apiErr.Code != "" {
			return nodule.Result{}, apiErr.AppError()
		}
		return nodule.Result{}, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "classification request failed")
	}
	return out.Result, nil
}

// resultView renders a Result for the three output formats.
type resultView struct {
	nodule.Result
}

func (v resultView) String() string { return v.Summary() }

func (v resultView) TableHeaders() []string { return []string{"FIELD", "VALUE"} }

func (v resultView) TableRows() [][]string {
	d := v.Descriptor
	return [][]string{
		{"multiplicity", string(d.Multiplicity)},
		{"composition", string(d.Composition)},
		{"calcification", d.CalcificationLabel()},
		{"measurement", d.RawMeasurementText},
		{"unit", string(d.Unit)},
		{"size_mm", nodule.FormatSize(v.SizeMM)},
		{"category", strconv.Itoa(int(v.Category))},
		{"recommendation", v.Recommendation},
	}
}

// NewClassifyCmd creates `nodulectl classify [sentence...]`.
func NewClassifyCmd() *cobra.Command {
	var appendOnly bool

	cmd := &cobra.Command{
		Use:   "classify [sentence...]",
		Short: "Classify one report sentence",
		Long: "Classify one sentence describing a pulmonary nodule.  Arguments are joined\n" +
			"with spaces; with no arguments or a single \"-\" the sentence is read from stdin.",
		Example: `  nodulectl classify "There is a solid nodule measuring 7 x 8 mm."
  echo "Calcified nodule measuring 5 mm." | nodulectl classify -o json
  nodulectl classify --append Part solid nodule measuring 6 x 4 x 8 mm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			text, err := sentenceFromArgs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()
			res, err := cliCtx.Classifier.Classify(ctx, text)
			if err != nil {
				return err
			}

			if appendOnly {
				fmt.Fprintln(cmd.OutOrStdout(), res.Recommendation)
				return nil
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, res)
			}
			return PrintResult(cmd, resultView{res})
		},
	}

	cmd.Flags().BoolVar(&appendOnly, "append", false, "print only the recommendation for pasting into a report")
	return cmd
}

// sentenceFromArgs joins args, or reads stdin for no args or "-".
func sentenceFromArgs(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, maxStdinBytes))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read sentence from stdin")
	}
	return strings.Join(strings.Fields(string(data)), " "), nil
}

//Personal.AI order the ending
