package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var flowID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				FlowID: flowID,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOW_ID", "VERSION", "MODE", "STATUS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.FlowID, strconv.Itoa(r.Version), r.Mode, r.Status, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow-id", "", "Filter by flow ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var version int
	var mode string
	var inputs []string
	var inputFiles []string
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "start FLOW_ID",
		Short: "Start a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{
				Mode:           mode,
				IdempotencyKey: idempotencyKey,
			}

			if cmd.Flags().Changed("version") {
				req.Version = &version
			}

			if len(inputs) > 0 || len(inputFiles) > 0 {
				req.Inputs = make(map[string]string)
			}

			for _, kv := range inputs {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
				}
				req.Inputs[parts[0]] = parts[1]
			}

			// --input-file name=path: содержимое файла становится сырым входом
			for _, kv := range inputFiles {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid input-file format %q, expected KEY=PATH", kv)
				}
				data, err := os.ReadFile(parts[1])
				if err != nil {
					return fmt.Errorf("failed to read input file %s: %w", parts[1], err)
				}
				req.Inputs[parts[0]] = string(data)
			}

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Run %s: %s", strings.ToLower(run.Status), run.ID)
			out.Print(
				[]string{"ID", "FLOW_ID", "VERSION", "MODE", "STATUS", "ERROR", "CREATED"},
				[][]string{{run.ID, run.FlowID, strconv.Itoa(run.Version), run.Mode, run.Status, run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Flow version (latest if not specified)")
	cmd.Flags().StringVar(&mode, "mode", "", "Execution mode: sync, async or auto (default async)")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Input values as KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&inputFiles, "input-file", nil, "Input files as KEY=PATH (repeatable)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			nodes := ""
			if run.Metrics != nil {
				nodes = strconv.Itoa(run.Metrics.NodesExecuted)
			}

			out.Print(
				[]string{"ID", "FLOW_ID", "VERSION", "MODE", "STATUS", "NODES", "ERROR", "CREATED"},
				[][]string{{run.ID, run.FlowID, strconv.Itoa(run.Version), run.Mode, run.Status, nodes, run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending or running run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success("Run cancelled: %s", run.ID)
			return nil
		},
	}
}
